package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

func TestAddCycleRejectsEndBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := env.catalog.AddCycle(ctx, courseID, CycleRequest{
		Name:      "Cycle 1",
		StartDate: start,
		EndDate:   start.AddDate(0, -1, 0),
		Status:    models.CycleStatusPlanned,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddCycleRequiresActiveMentoringMentor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	salesID := env.seedMember(t, "Tamar S", models.DepartmentSales, true)
	retiredID := env.seedMember(t, "Levan R", models.DepartmentMentoring, false)
	mentorID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req := CycleRequest{
		Name:      "Cycle 1",
		StartDate: start,
		EndDate:   start.AddDate(0, 3, 0),
		Status:    models.CycleStatusPlanned,
	}

	req.MentorIDs = []string{salesID}
	_, err := env.catalog.AddCycle(ctx, courseID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.MentorIDs = []string{retiredID}
	_, err = env.catalog.AddCycle(ctx, courseID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.MentorIDs = []string{mentorID}
	detail, err := env.catalog.AddCycle(ctx, courseID, req)
	require.NoError(t, err)
	assert.Equal(t, []string{mentorID}, detail.MentorIDs)
}

func TestAddLessonAppendsToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")

	first, err := env.catalog.AddLesson(ctx, courseID, cycleID, AddLessonRequest{Title: "Kickoff"})
	require.NoError(t, err)
	second, err := env.catalog.AddLesson(ctx, courseID, cycleID, AddLessonRequest{Title: "Unit Economics"})
	require.NoError(t, err)
	assert.Greater(t, second.Position, first.Position)

	tree, err := env.catalog.GetCourse(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, tree.Cycles, 1)
	require.Len(t, tree.Cycles[0].Lessons, 2)
	assert.Equal(t, "Kickoff", tree.Cycles[0].Lessons[0].Title)
	assert.Equal(t, "Unit Economics", tree.Cycles[0].Lessons[1].Title)
}

func TestUpdateLessonReplacesMaterials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	lessonID := env.seedLesson(t, cycleID, "Kickoff")

	detail, err := env.catalog.UpdateLesson(ctx, courseID, cycleID, lessonID, UpdateLessonContentRequest{
		VideoURL: "https://videos.example.com/kickoff",
		Task:     "Draft your business model canvas",
		Materials: []MaterialInput{
			{Name: "Canvas template", URL: "https://files.example.com/canvas.pdf"},
			{Name: "Reading list", URL: "https://files.example.com/reading.pdf"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://videos.example.com/kickoff", detail.VideoURL)
	require.Len(t, detail.Materials, 2)

	detail, err = env.catalog.UpdateLesson(ctx, courseID, cycleID, lessonID, UpdateLessonContentRequest{
		VideoURL:  "https://videos.example.com/kickoff-v2",
		Materials: []MaterialInput{{Name: "Canvas template", URL: "https://files.example.com/canvas.pdf"}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Materials, 1, "materials are replaced, not appended")
}

func TestDeleteLessonKeepsOtherAttendance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	doomedLessonID := env.seedLesson(t, cycleID, "Kickoff")
	keptLessonID := env.seedLesson(t, cycleID, "Unit Economics")
	studentID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	for _, lessonID := range []string{doomedLessonID, keptLessonID} {
		_, err := env.workflow.SetAttendance(ctx, studentID, courseID, cycleID, dto.SetAttendanceRequest{
			LessonID: lessonID,
			Present:  true,
		})
		require.NoError(t, err)
	}

	require.NoError(t, env.catalog.DeleteLesson(ctx, courseID, cycleID, doomedLessonID))

	view, err := env.workflow.Attendance(ctx, courseID, cycleID)
	require.NoError(t, err)
	require.Len(t, view.Lessons, 1)
	assert.Equal(t, keptLessonID, view.Lessons[0].LessonID)
	require.Len(t, view.Rows, 1)
	require.Len(t, view.Rows[0].Cells, 1)
	assert.True(t, view.Rows[0].Cells[0].Present, "attendance of the remaining lesson is untouched")
}

func TestCatalogGuardsHierarchy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	otherCourseID := env.seedCourse(t, "Marketing Pro")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	foreignCycleID := env.seedCycle(t, otherCourseID, "Cycle 1")
	lessonID := env.seedLesson(t, cycleID, "Kickoff")

	_, err := env.catalog.AddLesson(ctx, courseID, foreignCycleID, AddLessonRequest{Title: "Kickoff"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = env.catalog.RenameLesson(ctx, otherCourseID, foreignCycleID, lessonID, RenameLessonRequest{Title: "Renamed"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetCourseCountsActiveStudents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)
	env.seedEnrolled(t, "Beka P", "beka@example.com", courseID, cycleID, 8000, models.EnrollmentStatusCanceled, models.PaymentStatusUnpaid)

	tree, err := env.catalog.GetCourse(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, tree.Cycles, 1)
	assert.Equal(t, 1, tree.Cycles[0].StudentCount, "canceled enrollments do not count")
}
