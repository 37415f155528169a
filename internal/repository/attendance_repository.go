package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

// AttendanceRepository manages attendance marks of enrollments at lessons.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByEnrollment returns all attendance records of one enrollment.
func (r *AttendanceRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, enrollment_id, lesson_id, present, reason, created_at, updated_at
        FROM attendance_records WHERE enrollment_id = $1`
	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListByCycle returns all attendance records of active enrollments in a cycle,
// feeding the attendance grid.
func (r *AttendanceRepository) ListByCycle(ctx context.Context, cycleID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.enrollment_id, a.lesson_id, a.present, a.reason, a.created_at, a.updated_at
        FROM attendance_records a
        JOIN enrollments e ON e.id = a.enrollment_id
        WHERE e.cycle_id = $1 AND e.status = 'ACTIVE'`
	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, cycleID); err != nil {
		return nil, fmt.Errorf("list cycle attendance: %w", err)
	}
	return records, nil
}

// Upsert writes one attendance cell, overwriting any previous mark for the
// same enrollment+lesson pair.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO attendance_records (id, enrollment_id, lesson_id, present, reason, created_at, updated_at)
        VALUES (:id, :enrollment_id, :lesson_id, :present, :reason, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, lesson_id) DO UPDATE
        SET present = EXCLUDED.present, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}
