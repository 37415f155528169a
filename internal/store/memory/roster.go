package memory

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizex-academy/portal-api/internal/models"
)

// StudentStore implements the student repository interface in memory.
type StudentStore struct {
	store *Store
}

// List returns students matching the filter with the total count.
func (s *StudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	var students []models.Student
	for _, student := range s.store.students {
		if filter.Search != "" && !containsFold(student.FullName, filter.Search) && !containsFold(student.Email, filter.Search) {
			continue
		}
		if filter.Status != nil && student.Status != *filter.Status {
			continue
		}
		if filter.CourseID != "" && !s.enrolledLocked(student.ID, filter.CourseID, "") {
			continue
		}
		if filter.CycleID != "" && !s.enrolledLocked(student.ID, "", filter.CycleID) {
			continue
		}
		students = append(students, student)
	}

	desc := !strings.EqualFold(filter.SortOrder, "asc")
	if filter.SortBy == "full_name" {
		sortByName(students, func(st models.Student) string { return st.FullName }, desc)
	} else {
		sortByTime(students, func(st models.Student) time.Time { return st.JoinDate }, desc)
	}

	total := len(students)
	page, _, _ := paginate(students, filter.Page, filter.PageSize, 20)
	return page, total, nil
}

// FindByID returns a student by ID.
func (s *StudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	student, ok := s.store.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

// ExistsByEmail reports whether another student already holds the email.
func (s *StudentStore) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	for _, student := range s.store.students {
		if student.ID != excludeID && strings.EqualFold(student.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// CreateWithEnrollment stores a new student and their first enrollment under
// one lock acquisition.
func (s *StudentStore) CreateWithEnrollment(ctx context.Context, student *models.Student, enrollment *models.Enrollment) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.StudentID = student.ID
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	s.store.students[student.ID] = *student
	s.store.enrollments[enrollment.ID] = *enrollment
	return nil
}

// Update stores student field changes.
func (s *StudentStore) Update(ctx context.Context, student *models.Student) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	student.UpdatedAt = time.Now().UTC()
	s.store.students[student.ID] = *student
	return nil
}

func (s *StudentStore) enrolledLocked(studentID, courseID, cycleID string) bool {
	for _, e := range s.store.enrollments {
		if e.StudentID != studentID || e.Status != models.EnrollmentStatusActive {
			continue
		}
		if courseID != "" && e.CourseID == courseID {
			return true
		}
		if cycleID != "" && e.CycleID == cycleID {
			return true
		}
	}
	return false
}
