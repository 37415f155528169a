// Package memory provides an in-memory implementation of the persistence
// layer. It backs local development and tests through the same repository
// interfaces the Postgres implementation satisfies, selected by STORE_DRIVER.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bizex-academy/portal-api/internal/models"
)

// Store holds all domain state behind one mutex. Sub-stores share it, so a
// cross-entity operation like enroll-on-create stays atomic.
type Store struct {
	mu sync.RWMutex

	courses      map[string]models.Course
	cycles       map[string]models.Cycle
	cycleMentors map[string][]string
	lessons      map[string]models.Lesson
	materials    map[string][]models.Material
	students     map[string]models.Student
	enrollments  map[string]models.Enrollment
	payments     map[string][]models.Payment
	attendance   map[string]models.AttendanceRecord
	teamMembers  map[string]models.TeamMember

	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	auditLogs     []models.AuditLog
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		courses:      make(map[string]models.Course),
		cycles:       make(map[string]models.Cycle),
		cycleMentors: make(map[string][]string),
		lessons:      make(map[string]models.Lesson),
		materials:    make(map[string][]models.Material),
		students:     make(map[string]models.Student),
		enrollments:  make(map[string]models.Enrollment),
		payments:     make(map[string][]models.Payment),
		attendance:   make(map[string]models.AttendanceRecord),
		teamMembers:  make(map[string]models.TeamMember),

		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
	}
}

// Courses returns the course repository view of the store.
func (s *Store) Courses() *CourseStore { return &CourseStore{s} }

// Cycles returns the cycle repository view of the store.
func (s *Store) Cycles() *CycleStore { return &CycleStore{s} }

// Lessons returns the lesson repository view of the store.
func (s *Store) Lessons() *LessonStore { return &LessonStore{s} }

// Students returns the student repository view of the store.
func (s *Store) Students() *StudentStore { return &StudentStore{s} }

// Enrollments returns the enrollment repository view of the store.
func (s *Store) Enrollments() *EnrollmentStore { return &EnrollmentStore{s} }

// Payments returns the payment repository view of the store.
func (s *Store) Payments() *PaymentStore { return &PaymentStore{s} }

// Attendance returns the attendance repository view of the store.
func (s *Store) Attendance() *AttendanceStore { return &AttendanceStore{s} }

// TeamMembers returns the team member repository view of the store.
func (s *Store) TeamMembers() *TeamMemberStore { return &TeamMemberStore{s} }

// Workflows returns the workflow projection view of the store.
func (s *Store) Workflows() *WorkflowStore { return &WorkflowStore{s} }

// Users returns the user and session repository view of the store.
func (s *Store) Users() *UserStore { return &UserStore{s} }

func attendanceKey(enrollmentID, lessonID string) string {
	return enrollmentID + "/" + lessonID
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func paginate[T any](items []T, page, size, max int) ([]T, int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = max
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}, page, size
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, size
}

func sortByName[T any](items []T, name func(T) string, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return name(items[i]) > name(items[j])
		}
		return name(items[i]) < name(items[j])
	})
}

func sortByTime[T any](items []T, ts func(T) time.Time, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return ts(items[i]).After(ts(items[j]))
		}
		return ts(items[i]).Before(ts(items[j]))
	})
}
