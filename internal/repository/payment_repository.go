package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

// PaymentRepository manages the payment ledger rows of enrollments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a new payment repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ListByEnrollment returns the ledger rows of one enrollment in entry order.
func (r *PaymentRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	const query = `SELECT id, enrollment_id, paid_at, method, amount, position
        FROM payments WHERE enrollment_id = $1 ORDER BY position ASC`
	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ReplaceForEnrollment swaps the full ledger of an enrollment in one
// transaction. The ledger is edited whole, never row by row.
func (r *PaymentRepository) ReplaceForEnrollment(ctx context.Context, enrollmentID string, payments []models.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	for i := range payments {
		payments[i].ID = uuid.NewString()
		payments[i].EnrollmentID = enrollmentID
		payments[i].Position = i
		const insert = `INSERT INTO payments (id, enrollment_id, paid_at, method, amount, position)
            VALUES (:id, :enrollment_id, :paid_at, :method, :amount, :position)`
		if _, err := tx.NamedExecContext(ctx, insert, payments[i]); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SumByEnrollment returns the paid-so-far total of one enrollment.
func (r *PaymentRepository) SumByEnrollment(ctx context.Context, enrollmentID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE enrollment_id = $1`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, enrollmentID); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
