package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
)

func TestPaymentRepositoryReplaceForEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payments WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	payments := []models.Payment{
		{PaidAt: time.Now(), Method: models.PaymentMethodBankTransfer, Amount: 6000},
		{PaidAt: time.Now(), Method: models.PaymentMethodCreditCard, Amount: 1500},
	}
	err := repo.ReplaceForEnrollment(context.Background(), "enr-1", payments)
	require.NoError(t, err)
	require.Equal(t, 0, payments[0].Position)
	require.Equal(t, 1, payments[1].Position)
	require.Equal(t, "enr-1", payments[1].EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryReplaceForEnrollmentEmptyClearsLedger(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payments WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.ReplaceForEnrollment(context.Background(), "enr-1", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySumByEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM payments WHERE enrollment_id = $1")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7500.0))

	total, err := repo.SumByEnrollment(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Equal(t, 7500.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
