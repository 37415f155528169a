package dto

import "time"

// ReportType enumerates the supported report kinds.
type ReportType string

const (
	ReportTypeAttendanceSheet ReportType = "attendance_sheet"
	ReportTypePaymentLedger   ReportType = "payment_ledger"
)

// Valid returns true when the type is supported.
func (t ReportType) Valid() bool {
	return t == ReportTypeAttendanceSheet || t == ReportTypePaymentLedger
}

// ReportFormat enumerates output encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid returns true when the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportStatus tracks a report job through its lifecycle.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "queued"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusDone       ReportStatus = "done"
	ReportStatusFailed     ReportStatus = "failed"
)

// RequestReportInput is the payload for requesting a report.
type RequestReportInput struct {
	Type     ReportType   `json:"type" validate:"required"`
	Format   ReportFormat `json:"format" validate:"required"`
	CourseID string       `json:"course_id" validate:"required"`
	CycleID  string       `json:"cycle_id" validate:"required"`
}

// ReportJob describes a queued or completed report.
type ReportJob struct {
	ID          string       `json:"id"`
	Type        ReportType   `json:"type"`
	Format      ReportFormat `json:"format"`
	CourseID    string       `json:"course_id"`
	CycleID     string       `json:"cycle_id"`
	Status      ReportStatus `json:"status"`
	FilePath    string       `json:"-"`
	DownloadURL string       `json:"download_url,omitempty"`
	Error       string       `json:"error,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
