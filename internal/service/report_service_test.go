package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/storage"
)

func newReportService(t *testing.T, env *testEnv) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("report-test-secret", time.Hour)
	return NewReportService(env.workflow, env.store.Workflows(), env.store.Enrollments(), env.store.Payments(), store, signer, ReportConfig{WorkerConcurrency: 1}, nil, nil)
}

func waitForDone(t *testing.T, reports *ReportService, id string) *dto.ReportJob {
	t.Helper()
	require.Eventually(t, func() bool {
		current, err := reports.Get(context.Background(), id)
		return err == nil && current.Status == dto.ReportStatusDone
	}, 5*time.Second, 10*time.Millisecond)
	current, err := reports.Get(context.Background(), id)
	require.NoError(t, err)
	return current
}

func TestPaymentLedgerReportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusPartiallyPaid)

	_, err := env.enrollment.ReplacePayments(ctx, studentID, courseID, cycleID, []PaymentInput{
		{PaidAt: time.Now().UTC(), Method: models.PaymentMethodBankTransfer, Amount: 6000},
	})
	require.NoError(t, err)

	reports := newReportService(t, env)
	reports.Start(ctx)
	defer reports.Stop()

	job, err := reports.Request(ctx, dto.RequestReportInput{
		Type:     dto.ReportTypePaymentLedger,
		Format:   dto.ReportFormatCSV,
		CourseID: courseID,
		CycleID:  cycleID,
	})
	require.NoError(t, err)

	done := waitForDone(t, reports, job.ID)
	require.NotEmpty(t, done.DownloadURL)
	require.NotNil(t, done.CompletedAt)

	token := strings.TrimPrefix(done.DownloadURL, "/api/v1/reports/download/")
	report, file, err := reports.Download(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, dto.ReportStatusDone, report.Status)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Nino K")
	assert.Contains(t, content, "6000.00")
	assert.Contains(t, content, "4000.00")
	assert.Contains(t, content, string(models.PaymentStatusPartiallyPaid))
}

func TestAttendanceSheetReportMarksAbsentees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	lessonID := env.seedLesson(t, cycleID, "Kickoff")
	env.seedLesson(t, cycleID, "Unit Economics")
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.workflow.SetAttendance(ctx, studentID, courseID, cycleID, dto.SetAttendanceRequest{
		LessonID: lessonID,
		Present:  true,
	})
	require.NoError(t, err)

	reports := newReportService(t, env)
	reports.Start(ctx)
	defer reports.Stop()

	job, err := reports.Request(ctx, dto.RequestReportInput{
		Type:     dto.ReportTypeAttendanceSheet,
		Format:   dto.ReportFormatCSV,
		CourseID: courseID,
		CycleID:  cycleID,
	})
	require.NoError(t, err)

	done := waitForDone(t, reports, job.ID)
	token := strings.TrimPrefix(done.DownloadURL, "/api/v1/reports/download/")
	_, file, err := reports.Download(token)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Kickoff")
	assert.Contains(t, content, "present")
	assert.Contains(t, content, "absent", "unmarked lessons export as absent")
}

func TestReportRequestGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1")
	reports := newReportService(t, env)

	_, err := reports.Request(ctx, dto.RequestReportInput{
		Type:     "grades",
		Format:   dto.ReportFormatCSV,
		CourseID: courseID,
		CycleID:  cycleID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = reports.Request(ctx, dto.RequestReportInput{
		Type:     dto.ReportTypePaymentLedger,
		Format:   "xlsx",
		CourseID: courseID,
		CycleID:  cycleID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = reports.Request(ctx, dto.RequestReportInput{
		Type:     dto.ReportTypePaymentLedger,
		Format:   dto.ReportFormatCSV,
		CourseID: courseID,
		CycleID:  "missing",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportDownloadRejectsForgedToken(t *testing.T) {
	env := newTestEnv(t)
	reports := newReportService(t, env)

	_, _, err := reports.Download("not-a-real-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = reports.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
