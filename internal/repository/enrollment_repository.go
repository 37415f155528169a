package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

const enrollmentColumns = `id, student_id, course_id, cycle_id, mentor_id, salesperson_id, status,
    deal_amount, payment_status, occupation, welcome_message_sent, intro_meeting_scheduled,
    onboarding_meeting_date, meeting_summary, goals, important_info, notes, summary_for_mentor,
    strategy_consultant, strategy_meeting_urgency, strategy_meeting_date, strategy_meeting_status,
    created_at, updated_at`

const enrollmentInsertQuery = `INSERT INTO enrollments (id, student_id, course_id, cycle_id, mentor_id,
    salesperson_id, status, deal_amount, payment_status, occupation, welcome_message_sent,
    intro_meeting_scheduled, onboarding_meeting_date, meeting_summary, goals, important_info, notes,
    summary_for_mentor, strategy_consultant, strategy_meeting_urgency, strategy_meeting_date,
    strategy_meeting_status, created_at, updated_at)
    VALUES (:id, :student_id, :course_id, :cycle_id, :mentor_id, :salesperson_id, :status,
    :deal_amount, :payment_status, :occupation, :welcome_message_sent, :intro_meeting_scheduled,
    :onboarding_meeting_date, :meeting_summary, :goals, :important_info, :notes, :summary_for_mentor,
    :strategy_consultant, :strategy_meeting_urgency, :strategy_meeting_date, :strategy_meeting_status,
    :created_at, :updated_at)`

// EnrollmentRepository manages persistence for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment row by ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE id = $1`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByKey returns the enrollment identified by the natural key, regardless
// of status. One row per (student, course, cycle) is enforced by a unique
// constraint.
func (r *EnrollmentRepository) FindByKey(ctx context.Context, studentID, courseID, cycleID string) (*models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments
        WHERE student_id = $1 AND course_id = $2 AND cycle_id = $3`, enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID, cycleID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ExistsActive reports whether the student already has an active enrollment
// in the course+cycle, excluding the given enrollment ID.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, courseID, cycleID, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments
        WHERE student_id = $1 AND course_id = $2 AND cycle_id = $3 AND status = 'ACTIVE' AND id <> $4)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, cycleID, excludeID); err != nil {
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return exists, nil
}

// ListByStudent returns all enrollments of a student, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 ORDER BY created_at DESC`, enrollmentColumns)
	enrollments := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// Create persists a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, enrollmentInsertQuery, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateDetails persists every mutable enrollment field except the natural key
// and the status flag, which have dedicated operations.
func (r *EnrollmentRepository) UpdateDetails(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET mentor_id = :mentor_id, salesperson_id = :salesperson_id,
        deal_amount = :deal_amount, payment_status = :payment_status, occupation = :occupation,
        welcome_message_sent = :welcome_message_sent, intro_meeting_scheduled = :intro_meeting_scheduled,
        onboarding_meeting_date = :onboarding_meeting_date, meeting_summary = :meeting_summary,
        goals = :goals, important_info = :important_info, notes = :notes,
        summary_for_mentor = :summary_for_mentor, strategy_consultant = :strategy_consultant,
        strategy_meeting_urgency = :strategy_meeting_urgency, strategy_meeting_date = :strategy_meeting_date,
        strategy_meeting_status = :strategy_meeting_status, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// UpdateCycle moves the enrollment to another cycle. Payments, mentor and
// workflow state travel with the row untouched.
func (r *EnrollmentRepository) UpdateCycle(ctx context.Context, id, cycleID string) error {
	const query = `UPDATE enrollments SET cycle_id = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, cycleID, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update enrollment cycle: %w", err)
	}
	return nil
}

// UpdateStatus flips the enrollment between ACTIVE and CANCELED.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}
