package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	CreateWithEnrollment(ctx context.Context, student *models.Student, enrollment *models.Enrollment) error
	Update(ctx context.Context, student *models.Student) error
}

type enrollmentLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type paymentLister interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
}

// IntakeStudentRequest creates a student together with their first enrollment.
// A student never exists without at least one enrollment at intake time.
type IntakeStudentRequest struct {
	FullName   string  `json:"full_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"required"`
	CourseID   string  `json:"course_id" validate:"required"`
	CycleID    string  `json:"cycle_id" validate:"required"`
	DealAmount float64 `json:"deal_amount" validate:"gte=0"`
	Occupation *string `json:"occupation,omitempty"`
	Company    *string `json:"company,omitempty"`
}

// UpdateStudentRequest holds a partial update of the student identity. Nil
// fields are left untouched.
type UpdateStudentRequest struct {
	FullName   *string               `json:"full_name,omitempty"`
	Email      *string               `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string               `json:"phone,omitempty"`
	Status     *models.StudentStatus `json:"status,omitempty"`
	AvatarURL  *string               `json:"avatar_url,omitempty"`
	Occupation *string               `json:"occupation,omitempty"`
	Company    *string               `json:"company,omitempty"`
	Bio        *string               `json:"bio,omitempty"`
}

// RosterService handles the student roster and its enrollment projections.
type RosterService struct {
	students    studentRepository
	enrollments enrollmentLister
	payments    paymentLister
	courses     courseRepository
	cycles      cycleRepository
	cache       *CacheService
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(students studentRepository, enrollments enrollmentLister, payments paymentLister, courses courseRepository, cycles cycleRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		students:    students,
		enrollments: enrollments,
		payments:    payments,
		courses:     courses,
		cycles:      cycles,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students with their enrollment ledgers and pagination metadata.
func (s *RosterService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	type cached struct {
		Students   []models.StudentDetail `json:"students"`
		Pagination models.Pagination      `json:"pagination"`
	}
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	key := fmt.Sprintf("%slist:%s:%s:%s:%s:%d:%d:%s:%s", cacheKeyRosterPrefix, filter.Search, filter.CourseID, filter.CycleID, status, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	var hit cached
	if ok, _ := s.cache.Get(ctx, key, &hit); ok {
		return hit.Students, &hit.Pagination, nil
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	details := make([]models.StudentDetail, 0, len(students))
	for _, student := range students {
		detail, err := s.buildDetail(ctx, student)
		if err != nil {
			return nil, nil, err
		}
		details = append(details, *detail)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	_ = s.cache.Set(ctx, key, cached{Students: details, Pagination: *pagination}, s.cacheTTL)
	return details, pagination, nil
}

// Get returns one student with their enrollment ledgers.
func (s *RosterService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return s.buildDetail(ctx, *student)
}

// Intake registers a new student together with their first enrollment. The
// two writes are atomic: a failure leaves neither behind.
func (s *RosterService) Intake(ctx context.Context, req IntakeStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intake payload")
	}
	exists, err := s.students.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
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

	student := &models.Student{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Status:     models.StudentStatusActive,
		JoinDate:   time.Now().UTC(),
		Occupation: req.Occupation,
		Company:    req.Company,
	}
	enrollment := &models.Enrollment{
		CourseID:      req.CourseID,
		CycleID:       req.CycleID,
		Status:        models.EnrollmentStatusActive,
		DealAmount:    req.DealAmount,
		PaymentStatus: models.PaymentStatusUnpaid,
		Occupation:    req.Occupation,
	}
	// The cycle's first assigned mentor becomes the default.
	if len(cycle.MentorIDs) > 0 {
		mentorID := cycle.MentorIDs[0]
		enrollment.MentorID = &mentorID
	}
	if err := s.students.CreateWithEnrollment(ctx, student, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidate(ctx)
	return s.buildDetail(ctx, *student)
}

// Update applies a partial update to the student identity and returns the
// updated entity.
func (s *RosterService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if req.Email != nil {
		exists, err := s.students.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
		student.Email = *req.Email
	}
	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student status")
		}
		student.Status = *req.Status
	}
	if req.AvatarURL != nil {
		student.AvatarURL = req.AvatarURL
	}
	if req.Occupation != nil {
		student.Occupation = req.Occupation
	}
	if req.Company != nil {
		student.Company = req.Company
	}
	if req.Bio != nil {
		student.Bio = req.Bio
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx)
	return student, nil
}

func (s *RosterService) buildDetail(ctx context.Context, student models.Student) (*models.StudentDetail, error) {
	enrollments, err := s.enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	detail := &models.StudentDetail{Student: student, Enrollments: make([]models.EnrollmentLedger, 0, len(enrollments))}
	for _, enrollment := range enrollments {
		payments, err := s.payments.ListByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
		}
		ledger := models.EnrollmentLedger{Enrollment: enrollment, Payments: payments}
		ledger.Recompute()
		detail.Enrollments = append(detail.Enrollments, ledger)
	}
	return detail, nil
}

// invalidate clears both projections: enrollment churn moves the student
// counters embedded in the catalog trees too.
func (s *RosterService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyRosterPrefix+"*"); err != nil {
		s.logger.Warn("roster cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, cacheKeyCatalogPrefix+"*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
