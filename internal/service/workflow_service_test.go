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

func TestHotlistListsExactlyActiveUnpaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")

	owingID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)
	env.seedEnrolled(t, "Beka P", "beka@example.com", courseID, cycleID, 8000, models.EnrollmentStatusActive, models.PaymentStatusFullyPaid)
	env.seedEnrolled(t, "Cira Q", "cira@example.com", courseID, cycleID, 9000, models.EnrollmentStatusCanceled, models.PaymentStatusUnpaid)

	_, err := env.enrollment.ReplacePayments(ctx, owingID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 6000},
	})
	require.NoError(t, err)

	rows, err := env.workflow.Hotlist(ctx, courseID, cycleID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "fully paid and canceled enrollments stay off the hotlist")
	assert.Equal(t, owingID, rows[0].StudentID)
	assert.Equal(t, 10000.0, rows[0].DealAmount)
	assert.Equal(t, 6000.0, rows[0].PaidSoFar)
	assert.Equal(t, 4000.0, rows[0].Balance)
}

func TestOnboardingSkipsCanceledEnrollments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	activeID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)
	env.seedEnrolled(t, "Beka P", "beka@example.com", courseID, cycleID, 8000, models.EnrollmentStatusCanceled, models.PaymentStatusUnpaid)

	rows, err := env.workflow.Onboarding(ctx, courseID, cycleID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, activeID, rows[0].StudentID)
}

func TestWorkflowViewsRequireCycleOfCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	otherCourseID := env.seedCourse(t, "Marketing Pro")
	foreignCycleID := env.seedCycle(t, otherCourseID, "Cycle 1")

	_, err := env.workflow.Strategy(ctx, courseID, foreignCycleID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = env.workflow.Hotlist(ctx, courseID, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceGridReadsMissingAsAbsent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	firstLessonID := env.seedLesson(t, cycleID, "Kickoff")
	secondLessonID := env.seedLesson(t, cycleID, "Unit Economics")
	studentID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.workflow.SetAttendance(ctx, studentID, courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: firstLessonID,
		Present:  true,
	})
	require.NoError(t, err)

	view, err := env.workflow.Attendance(ctx, courseID, cycleID)
	require.NoError(t, err)
	require.Len(t, view.Lessons, 2)
	assert.Equal(t, firstLessonID, view.Lessons[0].LessonID)
	require.Len(t, view.Rows, 1)
	require.Len(t, view.Rows[0].Cells, 2)
	assert.True(t, view.Rows[0].Cells[0].Present)
	assert.False(t, view.Rows[0].Cells[1].Present, "a lesson without a record reads as absent")
	assert.Equal(t, secondLessonID, view.Rows[0].Cells[1].LessonID)
}

func TestSetAttendanceOverwritesPreviousMark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	lessonID := env.seedLesson(t, cycleID, "Kickoff")
	studentID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.workflow.SetAttendance(ctx, studentID, courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: lessonID,
		Present:  false,
		Reason:   strPtr("sick"),
	})
	require.NoError(t, err)

	_, err = env.workflow.SetAttendance(ctx, studentID, courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: lessonID,
		Present:  true,
	})
	require.NoError(t, err)

	view, err := env.workflow.Attendance(ctx, courseID, cycleID)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	require.Len(t, view.Rows[0].Cells, 1)
	assert.True(t, view.Rows[0].Cells[0].Present)
	assert.Nil(t, view.Rows[0].Cells[0].Reason)
}

func TestSetAttendanceGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	otherCycleID := env.seedCycle(t, courseID, "Cycle 2")
	foreignLessonID := env.seedLesson(t, otherCycleID, "Kickoff")
	lessonID := env.seedLesson(t, cycleID, "Kickoff")
	studentID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)
	canceledID, _ := env.seedEnrolled(t, "Beka P", "beka@example.com", courseID, cycleID, 8000, models.EnrollmentStatusCanceled, models.PaymentStatusUnpaid)

	_, err := env.workflow.SetAttendance(ctx, studentID, courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: foreignLessonID,
		Present:  true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = env.workflow.SetAttendance(ctx, canceledID, courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: lessonID,
		Present:  true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = env.workflow.SetAttendance(ctx, "missing", courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: lessonID,
		Present:  true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
