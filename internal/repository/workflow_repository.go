package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/models"
)

// WorkflowRepository serves the read-side projections over active enrollments:
// onboarding, strategy and hotlist. Canceled enrollments never appear here.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs a new workflow repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

type onboardingScan struct {
	StudentID             string                    `db:"student_id"`
	StudentName           string                    `db:"student_name"`
	Occupation            *string                   `db:"occupation"`
	WelcomeMessageSent    bool                      `db:"welcome_message_sent"`
	IntroMeetingScheduled bool                      `db:"intro_meeting_scheduled"`
	OnboardingMeetingDate *time.Time                `db:"onboarding_meeting_date"`
	MentorID              *string                   `db:"mentor_id"`
	MentorName            *string                   `db:"mentor_name"`
	MeetingSummary        *string                   `db:"meeting_summary"`
	Goals                 *string                   `db:"goals"`
	ImportantInfo         *string                   `db:"important_info"`
	Notes                 *string                   `db:"notes"`
	SummaryForMentor      *string                   `db:"summary_for_mentor"`
	StrategyConsultant    models.StrategyConsultant `db:"strategy_consultant"`
}

// Onboarding returns the onboarding rows of one course+cycle, ordered by
// student name.
func (r *WorkflowRepository) Onboarding(ctx context.Context, courseID, cycleID string) ([]dto.OnboardingRow, error) {
	const query = `SELECT s.id AS student_id, s.full_name AS student_name, e.occupation,
        e.welcome_message_sent, e.intro_meeting_scheduled, e.onboarding_meeting_date,
        e.mentor_id, t.full_name AS mentor_name, e.meeting_summary, e.goals,
        e.important_info, e.notes, e.summary_for_mentor, e.strategy_consultant
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        LEFT JOIN team_members t ON t.id = e.mentor_id
        WHERE e.course_id = $1 AND e.cycle_id = $2 AND e.status = 'ACTIVE'
        ORDER BY s.full_name ASC`

	var scans []onboardingScan
	if err := r.db.SelectContext(ctx, &scans, query, courseID, cycleID); err != nil {
		return nil, fmt.Errorf("onboarding rows: %w", err)
	}
	rows := make([]dto.OnboardingRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, dto.OnboardingRow(s))
	}
	return rows, nil
}

type strategyScan struct {
	StudentID          string                       `db:"student_id"`
	StudentName        string                       `db:"student_name"`
	Occupation         *string                      `db:"occupation"`
	MentorName         *string                      `db:"mentor_name"`
	StrategyConsultant models.StrategyConsultant    `db:"strategy_consultant"`
	Urgency            models.StrategyUrgency       `db:"strategy_meeting_urgency"`
	MeetingDate        *time.Time                   `db:"strategy_meeting_date"`
	MeetingStatus      models.StrategyMeetingStatus `db:"strategy_meeting_status"`
}

// Strategy returns the strategy-meeting rows of one course+cycle.
func (r *WorkflowRepository) Strategy(ctx context.Context, courseID, cycleID string) ([]dto.StrategyRow, error) {
	const query = `SELECT s.id AS student_id, s.full_name AS student_name, e.occupation,
        t.full_name AS mentor_name, e.strategy_consultant, e.strategy_meeting_urgency,
        e.strategy_meeting_date, e.strategy_meeting_status
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        LEFT JOIN team_members t ON t.id = e.mentor_id
        WHERE e.course_id = $1 AND e.cycle_id = $2 AND e.status = 'ACTIVE'
        ORDER BY s.full_name ASC`

	var scans []strategyScan
	if err := r.db.SelectContext(ctx, &scans, query, courseID, cycleID); err != nil {
		return nil, fmt.Errorf("strategy rows: %w", err)
	}
	rows := make([]dto.StrategyRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, dto.StrategyRow(s))
	}
	return rows, nil
}

type hotlistScan struct {
	StudentID     string               `db:"student_id"`
	StudentName   string               `db:"student_name"`
	Email         string               `db:"email"`
	Phone         string               `db:"phone"`
	PaymentStatus models.PaymentStatus `db:"payment_status"`
	DealAmount    float64              `db:"deal_amount"`
	PaidSoFar     float64              `db:"paid_so_far"`
}

// Hotlist returns the active enrollments of one course+cycle whose payment
// status is anything but FULLY_PAID, with the paid total aggregated in SQL.
func (r *WorkflowRepository) Hotlist(ctx context.Context, courseID, cycleID string) ([]dto.HotlistRow, error) {
	const query = `SELECT s.id AS student_id, s.full_name AS student_name, s.email, s.phone,
        e.payment_status, e.deal_amount,
        COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.enrollment_id = e.id), 0) AS paid_so_far
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.course_id = $1 AND e.cycle_id = $2 AND e.status = 'ACTIVE' AND e.payment_status <> 'FULLY_PAID'
        ORDER BY s.full_name ASC`

	var scans []hotlistScan
	if err := r.db.SelectContext(ctx, &scans, query, courseID, cycleID); err != nil {
		return nil, fmt.Errorf("hotlist rows: %w", err)
	}
	rows := make([]dto.HotlistRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, dto.HotlistRow{
			StudentID:     s.StudentID,
			StudentName:   s.StudentName,
			Email:         s.Email,
			Phone:         s.Phone,
			PaymentStatus: s.PaymentStatus,
			DealAmount:    s.DealAmount,
			PaidSoFar:     s.PaidSoFar,
			Balance:       s.DealAmount - s.PaidSoFar,
		})
	}
	return rows, nil
}

type statsScan struct {
	Count       int     `db:"count"`
	Outstanding float64 `db:"outstanding"`
}

// ActiveEnrollmentStats returns the number of active enrollments and the sum
// of their unpaid balances, feeding the domain gauges.
func (r *WorkflowRepository) ActiveEnrollmentStats(ctx context.Context) (int, float64, error) {
	const query = `SELECT COUNT(*) AS count,
        COALESCE(SUM(e.deal_amount - COALESCE(p.paid, 0)), 0) AS outstanding
        FROM enrollments e
        LEFT JOIN (SELECT enrollment_id, SUM(amount) AS paid FROM payments GROUP BY enrollment_id) p
        ON p.enrollment_id = e.id
        WHERE e.status = 'ACTIVE'`

	var stats statsScan
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return 0, 0, fmt.Errorf("active enrollment stats: %w", err)
	}
	return stats.Count, stats.Outstanding, nil
}

type rosterScan struct {
	EnrollmentID string `db:"enrollment_id"`
	StudentID    string `db:"student_id"`
	StudentName  string `db:"student_name"`
}

// ActiveRoster returns (enrollment, student) pairs for the active enrollments
// of one course+cycle, ordered by student name. The attendance grid hangs its
// rows off this list.
func (r *WorkflowRepository) ActiveRoster(ctx context.Context, courseID, cycleID string) ([]dto.RosterEntry, error) {
	const query = `SELECT e.id AS enrollment_id, s.id AS student_id, s.full_name AS student_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.course_id = $1 AND e.cycle_id = $2 AND e.status = 'ACTIVE'
        ORDER BY s.full_name ASC`

	var scans []rosterScan
	if err := r.db.SelectContext(ctx, &scans, query, courseID, cycleID); err != nil {
		return nil, fmt.Errorf("active roster: %w", err)
	}
	entries := make([]dto.RosterEntry, 0, len(scans))
	for _, s := range scans {
		entries = append(entries, dto.RosterEntry(s))
	}
	return entries, nil
}
