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

func TestEnrollRejectsDuplicateActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.enrollment.Enroll(ctx, EnrollRequest{
		StudentID:  studentID,
		CourseID:   courseID,
		CycleID:    cycleID,
		DealAmount: 10000,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollReinstatesCanceledWithHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, enrollmentID := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 4000},
	})
	require.NoError(t, err)
	_, err = env.enrollment.ToggleStatus(ctx, studentID, courseID, cycleID)
	require.NoError(t, err)

	ledger, err := env.enrollment.Enroll(ctx, EnrollRequest{
		StudentID:  studentID,
		CourseID:   courseID,
		CycleID:    cycleID,
		DealAmount: 10000,
	})
	require.NoError(t, err)
	assert.Equal(t, enrollmentID, ledger.ID, "reinstatement reuses the canceled enrollment")
	assert.Equal(t, models.EnrollmentStatusActive, ledger.Status)
	assert.Equal(t, 4000.0, ledger.PaidSoFar, "payment history survives the cancel/reinstate round trip")
	assert.Equal(t, 6000.0, ledger.Balance)
}

func TestEnrollRejectsCycleOfAnotherCourse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	otherCourseID := env.seedCourse(t, "Marketing Pro")
	otherCycleID := env.seedCycle(t, otherCourseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", otherCourseID, otherCycleID, 5000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.enrollment.Enroll(ctx, EnrollRequest{
		StudentID:  studentID,
		CourseID:   courseID,
		CycleID:    otherCycleID,
		DealAmount: 5000,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollDefaultsMentorFromCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentorID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1", mentorID)
	otherCycleID := env.seedCycle(t, courseID, "Cycle 0")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, otherCycleID, 5000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	ledger, err := env.enrollment.Enroll(ctx, EnrollRequest{
		StudentID:  studentID,
		CourseID:   courseID,
		CycleID:    cycleID,
		DealAmount: 8000,
	})
	require.NoError(t, err)
	require.NotNil(t, ledger.MentorID)
	assert.Equal(t, mentorID, *ledger.MentorID)
	assert.Equal(t, models.PaymentStatusUnpaid, ledger.PaymentStatus)
}

func TestReplacePaymentsRecomputesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	ledger, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 2500},
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodCreditCard, Amount: 3500},
	})
	require.NoError(t, err)
	require.Len(t, ledger.Payments, 2)
	assert.Equal(t, 6000.0, ledger.PaidSoFar)
	assert.Equal(t, 4000.0, ledger.Balance)

	// The ledger is replaced whole, never appended to.
	ledger, err = env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 10000},
	})
	require.NoError(t, err)
	require.Len(t, ledger.Payments, 1)
	assert.Equal(t, 0.0, ledger.Balance)
}

func TestReplacePaymentsRejectsUnknownMethod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: "CASH", Amount: 100},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateDetailsRejectsFullyPaidWithOutstandingBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 6000},
	})
	require.NoError(t, err)

	fullyPaid := models.PaymentStatusFullyPaid
	_, err = env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{PaymentStatus: &fullyPaid})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 10000},
	})
	require.NoError(t, err)

	ledger, err := env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{PaymentStatus: &fullyPaid})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFullyPaid, ledger.PaymentStatus)
	assert.Equal(t, 0.0, ledger.Balance)
}

func TestUpdateDetailsRejectsUnpaidWithRecordedPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 2500},
	})
	require.NoError(t, err)

	unpaid := models.PaymentStatusUnpaid
	_, err = env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{PaymentStatus: &unpaid})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateDetailsValidatesAssignments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	salesID := env.seedMember(t, "Tamar S", models.DepartmentSales, true)
	retiredMentorID := env.seedMember(t, "Levan R", models.DepartmentMentoring, false)
	mentorID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{MentorID: &salesID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{MentorID: &retiredMentorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	ledger, err := env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{
		MentorID:      &mentorID,
		SalespersonID: &salesID,
	})
	require.NoError(t, err)
	require.NotNil(t, ledger.MentorID)
	assert.Equal(t, mentorID, *ledger.MentorID)
	require.NotNil(t, ledger.SalespersonID)
	assert.Equal(t, salesID, *ledger.SalespersonID)

	// An empty string clears the nullable reference.
	ledger, err = env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{MentorID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, ledger.MentorID)
}

func TestTransferCycleMovesOnlyTheCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentorID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1", mentorID)
	targetCycleID := env.seedCycle(t, courseID, "Cycle 2")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	_, err := env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{MentorID: &mentorID})
	require.NoError(t, err)
	_, err = env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 6000},
	})
	require.NoError(t, err)

	ledger, err := env.enrollment.TransferCycle(ctx, studentID, courseID, cycleID, TransferCycleRequest{TargetCycleID: targetCycleID})
	require.NoError(t, err)
	assert.Equal(t, targetCycleID, ledger.CycleID)
	require.NotNil(t, ledger.MentorID)
	assert.Equal(t, mentorID, *ledger.MentorID, "mentor travels with the enrollment")
	assert.Equal(t, 6000.0, ledger.PaidSoFar, "payments travel with the enrollment")
	assert.Equal(t, models.EnrollmentStatusActive, ledger.Status)

	// The old key no longer resolves.
	_, err = env.enrollment.GetLedger(ctx, studentID, courseID, cycleID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTransferCycleGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	otherCourseID := env.seedCourse(t, "Marketing Pro")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	busyCycleID := env.seedCycle(t, courseID, "Cycle 2")
	foreignCycleID := env.seedCycle(t, otherCourseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	// Same cycle as the current one.
	_, err := env.enrollment.TransferCycle(ctx, studentID, courseID, cycleID, TransferCycleRequest{TargetCycleID: cycleID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// Cycle of another course.
	_, err = env.enrollment.TransferCycle(ctx, studentID, courseID, cycleID, TransferCycleRequest{TargetCycleID: foreignCycleID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// Target cycle already holds an active enrollment of the student.
	require.NoError(t, env.store.Enrollments().Create(ctx, &models.Enrollment{
		StudentID:     studentID,
		CourseID:      courseID,
		CycleID:       busyCycleID,
		Status:        models.EnrollmentStatusActive,
		PaymentStatus: models.PaymentStatusUnpaid,
	}))
	_, err = env.enrollment.TransferCycle(ctx, studentID, courseID, cycleID, TransferCycleRequest{TargetCycleID: busyCycleID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestToggleStatusRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusDepositPaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodPaymentz, Amount: 3000},
	})
	require.NoError(t, err)

	ledger, err := env.enrollment.ToggleStatus(ctx, studentID, courseID, cycleID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCanceled, ledger.Status)

	ledger, err = env.enrollment.ToggleStatus(ctx, studentID, courseID, cycleID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, ledger.Status)
	assert.Equal(t, models.PaymentStatusDepositPaid, ledger.PaymentStatus)
	assert.Equal(t, 3000.0, ledger.PaidSoFar, "two toggles restore the exact previous state")
}
