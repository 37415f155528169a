package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "cycle_id", "status", "deal_amount", "payment_status", "created_at", "updated_at"}).
		AddRow("enr-1", "stu-1", "course-1", "cycle-1", models.EnrollmentStatusActive, 10000.0, models.PaymentStatusPartiallyPaid, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND course_id = $2 AND cycle_id = $3")).
		WithArgs("stu-1", "course-1", "cycle-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByKey(context.Background(), "stu-1", "course-1", "cycle-1")
	require.NoError(t, err)
	require.Equal(t, "enr-1", enrollment.ID)
	require.Equal(t, models.PaymentStatusPartiallyPaid, enrollment.PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM enrollments")).
		WithArgs("stu-1", "course-1", "cycle-1", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsActive(context.Background(), "stu-1", "course-1", "cycle-1", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateCycleTouchesOnlyCycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET cycle_id = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("cycle-2", sqlmock.AnyArg(), "enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCycle(context.Background(), "enr-1", "cycle-2")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.EnrollmentStatusCanceled, sqlmock.AnyArg(), "enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusCanceled)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
