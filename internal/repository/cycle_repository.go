package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

// CycleRepository manages persistence for cycles and their mentor assignments.
type CycleRepository struct {
	db *sqlx.DB
}

// NewCycleRepository constructs a new cycle repository.
func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// ListByCourse returns the cycles of a course, ordered by start date, with
// mentor assignments and active student counts resolved.
func (r *CycleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CycleDetail, error) {
	const query = `SELECT cy.id, cy.course_id, cy.name, cy.start_date, cy.end_date, cy.status, cy.created_at, cy.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.cycle_id = cy.id AND e.status = 'ACTIVE') AS student_count
        FROM cycles cy WHERE cy.course_id = $1 ORDER BY cy.start_date ASC`

	var cycles []models.CycleDetail
	if err := r.db.SelectContext(ctx, &cycles, query, courseID); err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	for i := range cycles {
		mentorIDs, err := r.mentorIDs(ctx, cycles[i].ID)
		if err != nil {
			return nil, err
		}
		cycles[i].MentorIDs = mentorIDs
	}
	return cycles, nil
}

// FindByID returns a cycle row with its mentor assignment.
func (r *CycleRepository) FindByID(ctx context.Context, id string) (*models.CycleDetail, error) {
	const query = `SELECT cy.id, cy.course_id, cy.name, cy.start_date, cy.end_date, cy.status, cy.created_at, cy.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.cycle_id = cy.id AND e.status = 'ACTIVE') AS student_count
        FROM cycles cy WHERE cy.id = $1`

	var cycle models.CycleDetail
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		return nil, err
	}
	mentorIDs, err := r.mentorIDs(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	cycle.MentorIDs = mentorIDs
	return &cycle, nil
}

// Create persists a new cycle and its mentor assignment in one transaction.
func (r *CycleRepository) Create(ctx context.Context, cycle *models.Cycle, mentorIDs []string) error {
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO cycles (id, course_id, name, start_date, end_date, status, created_at, updated_at)
        VALUES (:id, :course_id, :name, :start_date, :end_date, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, cycle); err != nil {
		return fmt.Errorf("create cycle: %w", err)
	}
	if err := replaceMentorsTx(ctx, tx, cycle.ID, mentorIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Update persists cycle field changes and replaces the mentor assignment.
func (r *CycleRepository) Update(ctx context.Context, cycle *models.Cycle, mentorIDs []string) error {
	cycle.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const update = `UPDATE cycles SET name = :name, start_date = :start_date, end_date = :end_date,
        status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, cycle); err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	if err := replaceMentorsTx(ctx, tx, cycle.ID, mentorIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *CycleRepository) mentorIDs(ctx context.Context, cycleID string) ([]string, error) {
	const query = `SELECT team_member_id FROM cycle_mentors WHERE cycle_id = $1 ORDER BY position ASC`
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, cycleID); err != nil {
		return nil, fmt.Errorf("list cycle mentors: %w", err)
	}
	return ids, nil
}

func replaceMentorsTx(ctx context.Context, tx *sqlx.Tx, cycleID string, mentorIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cycle_mentors WHERE cycle_id = $1`, cycleID); err != nil {
		return fmt.Errorf("clear cycle mentors: %w", err)
	}
	for i, mentorID := range mentorIDs {
		const insert = `INSERT INTO cycle_mentors (cycle_id, team_member_id, position) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, insert, cycleID, mentorID, i); err != nil {
			return fmt.Errorf("assign cycle mentor: %w", err)
		}
	}
	return nil
}
