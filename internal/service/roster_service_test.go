package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

func TestIntakeCreatesStudentWithFirstEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentorID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1", mentorID)

	detail, err := env.roster.Intake(ctx, IntakeStudentRequest{
		FullName:   "Nino K",
		Email:      "nino@example.com",
		Phone:      "+995 555 123 456",
		CourseID:   courseID,
		CycleID:    cycleID,
		DealAmount: 10000,
		Occupation: strPtr("founder"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, detail.Status)
	require.Len(t, detail.Enrollments, 1)

	ledger := detail.Enrollments[0]
	assert.Equal(t, models.EnrollmentStatusActive, ledger.Status)
	assert.Equal(t, models.PaymentStatusUnpaid, ledger.PaymentStatus)
	assert.Equal(t, 10000.0, ledger.Balance, "nothing paid yet")
	require.NotNil(t, ledger.MentorID)
	assert.Equal(t, mentorID, *ledger.MentorID, "the cycle's first mentor becomes the default")
}

func TestIntakeRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.roster.Intake(ctx, IntakeStudentRequest{
		FullName: "Another Nino",
		Email:    "NINO@example.com",
		Phone:    "+995 555 123 456",
		CourseID: courseID,
		CycleID:  cycleID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestIntakeRejectsCycleOfAnotherCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	otherCourseID := env.seedCourse(t, "Marketing Pro")
	foreignCycleID := env.seedCycle(t, otherCourseID, "Cycle 1")

	_, err := env.roster.Intake(ctx, IntakeStudentRequest{
		FullName: "Nino K",
		Email:    "nino@example.com",
		Phone:    "+995 555 123 456",
		CourseID: courseID,
		CycleID:  foreignCycleID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdateAppliesPartialFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	student, err := env.roster.Update(ctx, studentID, UpdateStudentRequest{Phone: strPtr("+995 555 999 888")})
	require.NoError(t, err)
	assert.Equal(t, "+995 555 999 888", student.Phone)
	assert.Equal(t, "Nino K", student.FullName, "untouched fields keep their values")
	assert.Equal(t, "nino@example.com", student.Email)
}

func TestStudentUpdateRejectsTakenEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)
	env.seedEnrolled(t, "Beka P", "beka@example.com", courseID, cycleID, 8000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.roster.Update(ctx, studentID, UpdateStudentRequest{Email: strPtr("beka@example.com")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// Keeping your own email is not a conflict.
	student, err := env.roster.Update(ctx, studentID, UpdateStudentRequest{Email: strPtr("nino@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "nino@example.com", student.Email)
}

func TestRosterGetAggregatesLedgers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 2500},
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodCreditCard, Amount: 3500},
	})
	require.NoError(t, err)

	detail, err := env.roster.Get(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, detail.Enrollments, 1)
	assert.Equal(t, 6000.0, detail.Enrollments[0].PaidSoFar)
	assert.Equal(t, 4000.0, detail.Enrollments[0].Balance)

	_, err = env.roster.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterListFiltersByCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	otherCycleID := env.seedCycle(t, courseID, "Cycle 2")
	wantedID, _ := env.seedEnrolled(t, "Ana O", "ana@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)
	env.seedEnrolled(t, "Beka P", "beka@example.com", courseID, otherCycleID, 8000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	details, pagination, err := env.roster.List(ctx, models.StudentFilter{CycleID: cycleID})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, wantedID, details[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}
