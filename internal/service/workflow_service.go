package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

type workflowRepository interface {
	Onboarding(ctx context.Context, courseID, cycleID string) ([]dto.OnboardingRow, error)
	Strategy(ctx context.Context, courseID, cycleID string) ([]dto.StrategyRow, error)
	Hotlist(ctx context.Context, courseID, cycleID string) ([]dto.HotlistRow, error)
	ActiveRoster(ctx context.Context, courseID, cycleID string) ([]dto.RosterEntry, error)
}

type attendanceRepository interface {
	ListByCycle(ctx context.Context, cycleID string) ([]models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
}

// WorkflowService serves the operational views over active enrollments:
// onboarding, strategy, attendance and the payments hotlist.
type WorkflowService struct {
	workflows   workflowRepository
	attendance  attendanceRepository
	lessons     lessonRepository
	cycles      cycleRepository
	enrollments enrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewWorkflowService constructs the workflow service.
func NewWorkflowService(workflows workflowRepository, attendance attendanceRepository, lessons lessonRepository, cycles cycleRepository, enrollments enrollmentRepository, validate *validator.Validate, logger *zap.Logger) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		workflows:   workflows,
		attendance:  attendance,
		lessons:     lessons,
		cycles:      cycles,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
	}
}

// Onboarding returns the onboarding view of one course+cycle.
func (s *WorkflowService) Onboarding(ctx context.Context, courseID, cycleID string) ([]dto.OnboardingRow, error) {
	if err := s.checkCycle(ctx, courseID, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.workflows.Onboarding(ctx, courseID, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load onboarding view")
	}
	return rows, nil
}

// Strategy returns the strategy-meeting view of one course+cycle.
func (s *WorkflowService) Strategy(ctx context.Context, courseID, cycleID string) ([]dto.StrategyRow, error) {
	if err := s.checkCycle(ctx, courseID, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.workflows.Strategy(ctx, courseID, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load strategy view")
	}
	return rows, nil
}

// Hotlist returns the active enrollments of one course+cycle that still owe
// money: everything whose payment status is not FULLY_PAID, no more, no less.
func (s *WorkflowService) Hotlist(ctx context.Context, courseID, cycleID string) ([]dto.HotlistRow, error) {
	if err := s.checkCycle(ctx, courseID, cycleID); err != nil {
		return nil, err
	}
	rows, err := s.workflows.Hotlist(ctx, courseID, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hotlist")
	}
	return rows, nil
}

// Attendance returns the attendance grid of one course+cycle. A missing
// record reads as absent.
func (s *WorkflowService) Attendance(ctx context.Context, courseID, cycleID string) (*dto.AttendanceView, error) {
	if err := s.checkCycle(ctx, courseID, cycleID); err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	roster, err := s.workflows.ActiveRoster(ctx, courseID, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	records, err := s.attendance.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	type cellKey struct{ enrollmentID, lessonID string }
	marks := make(map[cellKey]models.AttendanceRecord, len(records))
	for _, record := range records {
		marks[cellKey{record.EnrollmentID, record.LessonID}] = record
	}

	view := &dto.AttendanceView{
		Lessons: make([]dto.LessonColumn, 0, len(lessons)),
		Rows:    make([]dto.AttendanceRow, 0, len(roster)),
	}
	for _, lesson := range lessons {
		view.Lessons = append(view.Lessons, dto.LessonColumn{LessonID: lesson.ID, Title: lesson.Title})
	}
	for _, entry := range roster {
		row := dto.AttendanceRow{
			StudentID:   entry.StudentID,
			StudentName: entry.StudentName,
			Cells:       make([]dto.AttendanceCell, 0, len(lessons)),
		}
		for _, lesson := range lessons {
			cell := dto.AttendanceCell{LessonID: lesson.ID}
			if record, ok := marks[cellKey{entry.EnrollmentID, lesson.ID}]; ok {
				cell.Present = record.Present
				cell.Reason = record.Reason
			}
			row.Cells = append(row.Cells, cell)
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

// SetAttendance upserts one attendance cell for the enrollment identified by
// the natural key and returns the stored record.
func (s *WorkflowService) SetAttendance(ctx context.Context, studentID, courseID, cycleID string, req dto.SetAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	enrollment, err := s.enrollments.FindByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot mark attendance on a canceled enrollment")
	}
	lesson, err := s.lessons.FindByID(ctx, req.LessonID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.CycleID != enrollment.CycleID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson does not belong to the enrollment's cycle")
	}

	record := &models.AttendanceRecord{
		EnrollmentID: enrollment.ID,
		LessonID:     req.LessonID,
		Present:      req.Present,
		Reason:       req.Reason,
	}
	if err := s.attendance.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}
	return record, nil
}

func (s *WorkflowService) checkCycle(ctx context.Context, courseID, cycleID string) error {
	cycle, err := s.cycles.FindByID(ctx, cycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cycle")
	}
	if cycle.CourseID != courseID {
		return appErrors.Clone(appErrors.ErrNotFound, "cycle not found in course")
	}
	return nil
}
