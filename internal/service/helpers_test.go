package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/store/memory"
)

// testEnv wires the services against the in-memory store, the same backend
// the API runs with under STORE_DRIVER=memory.
type testEnv struct {
	store      *memory.Store
	catalog    *CatalogService
	roster     *RosterService
	enrollment *EnrollmentService
	workflow   *WorkflowService
	team       *TeamService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	return &testEnv{
		store:      store,
		catalog:    NewCatalogService(store.Courses(), store.Cycles(), store.Lessons(), store.TeamMembers(), nil, time.Minute, nil, nil),
		roster:     NewRosterService(store.Students(), store.Enrollments(), store.Payments(), store.Courses(), store.Cycles(), nil, time.Minute, nil, nil),
		enrollment: NewEnrollmentService(store.Enrollments(), store.Payments(), store.Students(), store.Courses(), store.Cycles(), store.TeamMembers(), nil, nil, nil),
		workflow:   NewWorkflowService(store.Workflows(), store.Attendance(), store.Lessons(), store.Cycles(), store.Enrollments(), nil, nil),
		team:       NewTeamService(store.TeamMembers(), nil, nil),
	}
}

func (env *testEnv) seedMember(t *testing.T, name string, department models.Department, active bool) string {
	t.Helper()
	member := &models.TeamMember{
		FullName:   name,
		RoleTitle:  "Staff",
		Department: department,
		Active:     active,
	}
	require.NoError(t, env.store.TeamMembers().Create(context.Background(), member))
	return member.ID
}

func (env *testEnv) seedCourse(t *testing.T, name string) string {
	t.Helper()
	course := &models.Course{Name: name}
	require.NoError(t, env.store.Courses().Create(context.Background(), course))
	return course.ID
}

func (env *testEnv) seedCycle(t *testing.T, courseID, name string, mentorIDs ...string) string {
	t.Helper()
	start := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	cycle := &models.Cycle{
		CourseID:  courseID,
		Name:      name,
		StartDate: start,
		EndDate:   start.AddDate(0, 3, 0),
		Status:    models.CycleStatusActive,
	}
	require.NoError(t, env.store.Cycles().Create(context.Background(), cycle, mentorIDs))
	return cycle.ID
}

func (env *testEnv) seedLesson(t *testing.T, cycleID, title string) string {
	t.Helper()
	lesson := &models.Lesson{CycleID: cycleID, Title: title}
	require.NoError(t, env.store.Lessons().Create(context.Background(), lesson))
	return lesson.ID
}

// seedEnrolled creates a student together with one enrollment in the given
// course+cycle and returns both IDs.
func (env *testEnv) seedEnrolled(t *testing.T, name, email, courseID, cycleID string, deal float64, status models.EnrollmentStatus, payment models.PaymentStatus) (string, string) {
	t.Helper()
	student := &models.Student{
		FullName: name,
		Email:    email,
		Phone:    "+995 555 000 000",
		Status:   models.StudentStatusActive,
		JoinDate: time.Now().UTC(),
	}
	enrollment := &models.Enrollment{
		CourseID:      courseID,
		CycleID:       cycleID,
		Status:        status,
		DealAmount:    deal,
		PaymentStatus: payment,
	}
	require.NoError(t, env.store.Students().CreateWithEnrollment(context.Background(), student, enrollment))
	return student.ID, enrollment.ID
}

func strPtr(s string) *string { return &s }
