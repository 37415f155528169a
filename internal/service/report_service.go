package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bizex-academy/portal-api/internal/dto"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/export"
	"github.com/bizex-academy/portal-api/pkg/jobs"
	"github.com/bizex-academy/portal-api/pkg/storage"
)

// ReportConfig tunes the background report pipeline.
type ReportConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
}

// ReportService generates attendance sheets and payment ledgers as CSV or PDF
// files through a background worker queue. Finished files are fetched with a
// signed, expiring download token.
type ReportService struct {
	workflow    *WorkflowService
	workflows   workflowRepository
	enrollments enrollmentRepository
	payments    paymentLedgerRepository

	queue   *jobs.Queue
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner

	mu      sync.RWMutex
	reports map[string]*dto.ReportJob

	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the report service and its worker queue.
func NewReportService(workflow *WorkflowService, workflows workflowRepository, enrollments enrollmentRepository, payments paymentLedgerRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ReportConfig, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		workflow:    workflow,
		workflows:   workflows,
		enrollments: enrollments,
		payments:    payments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		storage:     store,
		signer:      signer,
		reports:     make(map[string]*dto.ReportJob),
		validator:   validate,
		logger:      logger,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Request queues a report generation job and returns its descriptor.
func (s *ReportService) Request(ctx context.Context, req dto.RequestReportInput) (*dto.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	if err := s.workflow.checkCycle(ctx, req.CourseID, req.CycleID); err != nil {
		return nil, err
	}

	report := &dto.ReportJob{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Format:      req.Format,
		CourseID:    req.CourseID,
		CycleID:     req.CycleID,
		Status:      dto.ReportStatusQueued,
		RequestedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.reports[report.ID] = report
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: report.ID, Type: string(req.Type), Payload: req}); err != nil {
		s.setFailed(report.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}
	return s.snapshot(report.ID), nil
}

// Get returns the current state of a report job.
func (s *ReportService) Get(ctx context.Context, id string) (*dto.ReportJob, error) {
	report := s.snapshot(id)
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return report, nil
}

// Download validates a signed token and opens the finished report file.
func (s *ReportService) Download(token string) (*dto.ReportJob, *os.File, error) {
	reportID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	report := s.snapshot(reportID)
	if report == nil || report.Status != dto.ReportStatusDone {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	return report, file, nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.RequestReportInput)
	if !ok {
		s.setFailed(job.ID, fmt.Errorf("unexpected payload type %T", job.Payload))
		return nil
	}
	s.setStatus(job.ID, dto.ReportStatusProcessing)

	dataset, title, err := s.buildDataset(ctx, req)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	var payload []byte
	switch req.Format {
	case dto.ReportFormatCSV:
		payload, err = s.csv.Render(*dataset)
	case dto.ReportFormatPDF:
		payload, err = s.pdf.Render(*dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	filename := fmt.Sprintf("%s/%s.%s", req.Type, job.ID, req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}
	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.setFailed(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if report, ok := s.reports[job.ID]; ok {
		report.Status = dto.ReportStatusDone
		report.FilePath = relPath
		report.DownloadURL = "/api/v1/reports/download/" + token
		report.CompletedAt = &now
	}
	s.mu.Unlock()
	return nil
}

func (s *ReportService) buildDataset(ctx context.Context, req dto.RequestReportInput) (*export.Dataset, string, error) {
	switch req.Type {
	case dto.ReportTypeAttendanceSheet:
		return s.attendanceDataset(ctx, req)
	case dto.ReportTypePaymentLedger:
		return s.paymentDataset(ctx, req)
	default:
		return nil, "", fmt.Errorf("unsupported report type %s", req.Type)
	}
}

func (s *ReportService) attendanceDataset(ctx context.Context, req dto.RequestReportInput) (*export.Dataset, string, error) {
	view, err := s.workflow.Attendance(ctx, req.CourseID, req.CycleID)
	if err != nil {
		return nil, "", err
	}
	headers := make([]string, 0, len(view.Lessons)+1)
	headers = append(headers, "Student")
	for _, lesson := range view.Lessons {
		headers = append(headers, lesson.Title)
	}
	rows := make([]map[string]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		record := map[string]string{"Student": row.StudentName}
		for i, cell := range row.Cells {
			value := "absent"
			if cell.Present {
				value = "present"
			} else if cell.Reason != nil && *cell.Reason != "" {
				value = "absent (" + *cell.Reason + ")"
			}
			record[view.Lessons[i].Title] = value
		}
		rows = append(rows, record)
	}
	return &export.Dataset{Headers: headers, Rows: rows}, "Attendance Sheet", nil
}

func (s *ReportService) paymentDataset(ctx context.Context, req dto.RequestReportInput) (*export.Dataset, string, error) {
	entries, err := s.workflows.ActiveRoster(ctx, req.CourseID, req.CycleID)
	if err != nil {
		return nil, "", err
	}
	headers := []string{"Student", "Deal Amount", "Paid", "Balance", "Payment Status"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		enrollment, err := s.enrollments.FindByID(ctx, entry.EnrollmentID)
		if err != nil {
			return nil, "", err
		}
		payments, err := s.payments.ListByEnrollment(ctx, entry.EnrollmentID)
		if err != nil {
			return nil, "", err
		}
		var paid float64
		for _, p := range payments {
			paid += p.Amount
		}
		rows = append(rows, map[string]string{
			"Student":        entry.StudentName,
			"Deal Amount":    strconv.FormatFloat(enrollment.DealAmount, 'f', 2, 64),
			"Paid":           strconv.FormatFloat(paid, 'f', 2, 64),
			"Balance":        strconv.FormatFloat(enrollment.DealAmount-paid, 'f', 2, 64),
			"Payment Status": string(enrollment.PaymentStatus),
		})
	}
	return &export.Dataset{Headers: headers, Rows: rows}, "Payment Ledger", nil
}

func (s *ReportService) snapshot(id string) *dto.ReportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil
	}
	copied := *report
	return &copied
}

func (s *ReportService) setStatus(id string, status dto.ReportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.reports[id]; ok {
		report.Status = status
	}
}

func (s *ReportService) setFailed(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.reports[id]; ok {
		report.Status = dto.ReportStatusFailed
		report.Error = err.Error()
	}
	s.logger.Error("report generation failed", zap.String("report_id", id), zap.Error(err))
}
