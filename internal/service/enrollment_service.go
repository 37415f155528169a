package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByKey(ctx context.Context, studentID, courseID, cycleID string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, courseID, cycleID, excludeID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateDetails(ctx context.Context, enrollment *models.Enrollment) error
	UpdateCycle(ctx context.Context, id, cycleID string) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type paymentLedgerRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
	ReplaceForEnrollment(ctx context.Context, enrollmentID string, payments []models.Payment) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// EnrollRequest links an existing student to a course+cycle.
type EnrollRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	CourseID   string  `json:"course_id" validate:"required"`
	CycleID    string  `json:"cycle_id" validate:"required"`
	DealAmount float64 `json:"deal_amount" validate:"gte=0"`
}

// UpdateEnrollmentDetailsRequest is a partial update of one enrollment. Nil
// fields are left untouched; an empty string on a nullable reference clears it.
type UpdateEnrollmentDetailsRequest struct {
	MentorID      *string  `json:"mentor_id,omitempty"`
	SalespersonID *string  `json:"salesperson_id,omitempty"`
	DealAmount    *float64 `json:"deal_amount,omitempty" validate:"omitempty,gte=0"`

	PaymentStatus *models.PaymentStatus `json:"payment_status,omitempty"`

	Occupation            *string    `json:"occupation,omitempty"`
	WelcomeMessageSent    *bool      `json:"welcome_message_sent,omitempty"`
	IntroMeetingScheduled *bool      `json:"intro_meeting_scheduled,omitempty"`
	OnboardingMeetingDate *time.Time `json:"onboarding_meeting_date,omitempty"`
	MeetingSummary        *string    `json:"meeting_summary,omitempty"`
	Goals                 *string    `json:"goals,omitempty"`
	ImportantInfo         *string    `json:"important_info,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	SummaryForMentor      *string    `json:"summary_for_mentor,omitempty"`

	StrategyConsultant     *models.StrategyConsultant    `json:"strategy_consultant,omitempty"`
	StrategyMeetingUrgency *models.StrategyUrgency       `json:"strategy_meeting_urgency,omitempty"`
	StrategyMeetingDate    *time.Time                    `json:"strategy_meeting_date,omitempty"`
	StrategyMeetingStatus  *models.StrategyMeetingStatus `json:"strategy_meeting_status,omitempty"`
}

// PaymentInput is one ledger row in a payments replacement.
type PaymentInput struct {
	PaidAt time.Time            `json:"paid_at" validate:"required"`
	Method models.PaymentMethod `json:"method" validate:"required"`
	Amount float64              `json:"amount" validate:"gte=0"`
}

// TransferCycleRequest moves an enrollment to another cycle of its course.
type TransferCycleRequest struct {
	TargetCycleID string `json:"target_cycle_id" validate:"required"`
}

// EnrollmentService handles the enrollment ledger use-cases.
type EnrollmentService struct {
	enrollments enrollmentRepository
	payments    paymentLedgerRepository
	students    studentReader
	courses     courseRepository
	cycles      cycleRepository
	team        mentorReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(enrollments enrollmentRepository, payments paymentLedgerRepository, students studentReader, courses courseRepository, cycles cycleRepository, team mentorReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		payments:    payments,
		students:    students,
		courses:     courses,
		cycles:      cycles,
		team:        team,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll links a student to a course+cycle. Enrolling a student whose previous
// enrollment in the same course+cycle was canceled reinstates that enrollment
// with its payment history intact.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	cycle, err := s.cycles.FindByID(ctx, req.CycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cycle")
	}
	if cycle.CourseID != req.CourseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cycle does not belong to course")
	}

	existing, err := s.enrollments.FindByKey(ctx, req.StudentID, req.CourseID, req.CycleID)
	switch {
	case err == nil && existing.Status == models.EnrollmentStatusActive:
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this cycle")
	case err == nil:
		if err := s.enrollments.UpdateStatus(ctx, existing.ID, models.EnrollmentStatusActive); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reinstate enrollment")
		}
		s.invalidate(ctx)
		return s.ledgerByKey(ctx, req.StudentID, req.CourseID, req.CycleID)
	case err != sql.ErrNoRows:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	enrollment := &models.Enrollment{
		StudentID:     req.StudentID,
		CourseID:      req.CourseID,
		CycleID:       req.CycleID,
		Status:        models.EnrollmentStatusActive,
		DealAmount:    req.DealAmount,
		PaymentStatus: models.PaymentStatusUnpaid,
	}
	if len(cycle.MentorIDs) > 0 {
		mentorID := cycle.MentorIDs[0]
		enrollment.MentorID = &mentorID
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	s.invalidate(ctx)
	return s.buildLedger(ctx, enrollment)
}

// GetLedger returns the enrollment ledger for the natural key.
func (s *EnrollmentService) GetLedger(ctx context.Context, studentID, courseID, cycleID string) (*models.EnrollmentLedger, error) {
	return s.ledgerByKey(ctx, studentID, courseID, cycleID)
}

// UpdateDetails applies a partial update to the enrollment and returns the
// refreshed ledger.
func (s *EnrollmentService) UpdateDetails(ctx context.Context, studentID, courseID, cycleID string, req UpdateEnrollmentDetailsRequest) (*models.EnrollmentLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	enrollment, err := s.findByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		return nil, err
	}

	if req.MentorID != nil {
		if *req.MentorID == "" {
			enrollment.MentorID = nil
		} else {
			if err := s.checkAssignable(ctx, *req.MentorID, models.DepartmentMentoring, "mentor"); err != nil {
				return nil, err
			}
			enrollment.MentorID = req.MentorID
		}
	}
	if req.SalespersonID != nil {
		if *req.SalespersonID == "" {
			enrollment.SalespersonID = nil
		} else {
			if err := s.checkAssignable(ctx, *req.SalespersonID, models.DepartmentSales, "salesperson"); err != nil {
				return nil, err
			}
			enrollment.SalespersonID = req.SalespersonID
		}
	}
	if req.DealAmount != nil {
		enrollment.DealAmount = *req.DealAmount
	}
	if req.PaymentStatus != nil {
		if !req.PaymentStatus.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid payment status")
		}
		enrollment.PaymentStatus = *req.PaymentStatus
	}
	if req.Occupation != nil {
		enrollment.Occupation = req.Occupation
	}
	if req.WelcomeMessageSent != nil {
		enrollment.WelcomeMessageSent = *req.WelcomeMessageSent
	}
	if req.IntroMeetingScheduled != nil {
		enrollment.IntroMeetingScheduled = *req.IntroMeetingScheduled
	}
	if req.OnboardingMeetingDate != nil {
		enrollment.OnboardingMeetingDate = req.OnboardingMeetingDate
	}
	if req.MeetingSummary != nil {
		enrollment.MeetingSummary = req.MeetingSummary
	}
	if req.Goals != nil {
		enrollment.Goals = req.Goals
	}
	if req.ImportantInfo != nil {
		enrollment.ImportantInfo = req.ImportantInfo
	}
	if req.Notes != nil {
		enrollment.Notes = req.Notes
	}
	if req.SummaryForMentor != nil {
		enrollment.SummaryForMentor = req.SummaryForMentor
	}
	if req.StrategyConsultant != nil {
		if !req.StrategyConsultant.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid strategy consultant")
		}
		enrollment.StrategyConsultant = *req.StrategyConsultant
	}
	if req.StrategyMeetingUrgency != nil {
		if !req.StrategyMeetingUrgency.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid strategy urgency")
		}
		enrollment.StrategyMeetingUrgency = *req.StrategyMeetingUrgency
	}
	if req.StrategyMeetingDate != nil {
		enrollment.StrategyMeetingDate = req.StrategyMeetingDate
	}
	if req.StrategyMeetingStatus != nil {
		if !req.StrategyMeetingStatus.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid strategy meeting status")
		}
		enrollment.StrategyMeetingStatus = *req.StrategyMeetingStatus
	}

	// The payment status is set manually but must not contradict the
	// ledger: FULLY_PAID requires a zero balance, UNPAID requires no
	// recorded payments.
	unpaidRequested := req.PaymentStatus != nil && *req.PaymentStatus == models.PaymentStatusUnpaid
	if enrollment.PaymentStatus == models.PaymentStatusFullyPaid || unpaidRequested {
		payments, err := s.payments.ListByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
		}
		var paid float64
		for _, p := range payments {
			paid += p.Amount
		}
		if enrollment.PaymentStatus == models.PaymentStatusFullyPaid && enrollment.DealAmount-paid != 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot mark fully paid while balance is outstanding")
		}
		if unpaidRequested && paid > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot mark unpaid while payments are recorded")
		}
	}

	if err := s.enrollments.UpdateDetails(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	s.invalidate(ctx)
	return s.buildLedger(ctx, enrollment)
}

// ReplacePayments swaps the full payment ledger of the enrollment and returns
// the refreshed ledger with its recomputed balance.
func (s *EnrollmentService) ReplacePayments(ctx context.Context, studentID, courseID, cycleID string, inputs []PaymentInput) (*models.EnrollmentLedger, error) {
	for _, input := range inputs {
		if err := s.validator.Struct(input); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
		}
		if !input.Method.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid payment method")
		}
	}
	enrollment, err := s.findByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		return nil, err
	}
	payments := make([]models.Payment, 0, len(inputs))
	for _, input := range inputs {
		payments = append(payments, models.Payment{
			PaidAt: input.PaidAt,
			Method: input.Method,
			Amount: input.Amount,
		})
	}
	if err := s.payments.ReplaceForEnrollment(ctx, enrollment.ID, payments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace payments")
	}
	s.invalidate(ctx)
	return s.buildLedger(ctx, enrollment)
}

// TransferCycle moves the enrollment to another cycle of the same course.
// Only the cycle reference changes: mentor, payments and workflow state
// travel with the enrollment.
func (s *EnrollmentService) TransferCycle(ctx context.Context, studentID, courseID, cycleID string, req TransferCycleRequest) (*models.EnrollmentLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	enrollment, err := s.findByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		return nil, err
	}
	if req.TargetCycleID == enrollment.CycleID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment is already in the target cycle")
	}
	target, err := s.cycles.FindByID(ctx, req.TargetCycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target cycle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target cycle")
	}
	if target.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target cycle does not belong to course")
	}
	exists, err := s.enrollments.ExistsActive(ctx, studentID, courseID, req.TargetCycleID, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check target cycle")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in target cycle")
	}
	if err := s.enrollments.UpdateCycle(ctx, enrollment.ID, req.TargetCycleID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transfer enrollment")
	}
	s.invalidate(ctx)
	enrollment.CycleID = req.TargetCycleID
	return s.buildLedger(ctx, enrollment)
}

// ToggleStatus flips the enrollment between ACTIVE and CANCELED. Two toggles
// restore the exact previous state; no history is lost either way.
func (s *EnrollmentService) ToggleStatus(ctx context.Context, studentID, courseID, cycleID string) (*models.EnrollmentLedger, error) {
	enrollment, err := s.findByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		return nil, err
	}
	next := models.EnrollmentStatusCanceled
	if enrollment.Status == models.EnrollmentStatusCanceled {
		next = models.EnrollmentStatusActive
	}
	if err := s.enrollments.UpdateStatus(ctx, enrollment.ID, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle enrollment status")
	}
	s.invalidate(ctx)
	enrollment.Status = next
	return s.buildLedger(ctx, enrollment)
}

func (s *EnrollmentService) findByKey(ctx context.Context, studentID, courseID, cycleID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func (s *EnrollmentService) ledgerByKey(ctx context.Context, studentID, courseID, cycleID string) (*models.EnrollmentLedger, error) {
	enrollment, err := s.findByKey(ctx, studentID, courseID, cycleID)
	if err != nil {
		return nil, err
	}
	return s.buildLedger(ctx, enrollment)
}

func (s *EnrollmentService) buildLedger(ctx context.Context, enrollment *models.Enrollment) (*models.EnrollmentLedger, error) {
	payments, err := s.payments.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	ledger := &models.EnrollmentLedger{Enrollment: *enrollment, Payments: payments}
	ledger.Recompute()
	return ledger, nil
}

func (s *EnrollmentService) checkAssignable(ctx context.Context, memberID string, department models.Department, role string) error {
	member, err := s.team.FindByID(ctx, memberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, role+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+role)
	}
	if member.Department != department || !member.Active {
		return appErrors.Clone(appErrors.ErrValidation, role+" must be an active member of the "+string(department)+" department")
	}
	return nil
}

func (s *EnrollmentService) invalidate(ctx context.Context) {
	for _, pattern := range []string{cacheKeyRosterPrefix + "*", cacheKeyCatalogPrefix + "*"} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
