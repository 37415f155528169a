package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
)

func TestWorkflowRepositoryHotlistComputesBalance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "student_name", "email", "phone", "payment_status", "deal_amount", "paid_so_far"}).
		AddRow("stu-1", "Dana Levi", "dana@example.com", "050-1234567", models.PaymentStatusPartiallyPaid, 10000.0, 6000.0)
	mock.ExpectQuery(regexp.QuoteMeta("e.payment_status <> 'FULLY_PAID'")).
		WithArgs("course-1", "cycle-1").
		WillReturnRows(rows)

	hotlist, err := repo.Hotlist(context.Background(), "course-1", "cycle-1")
	require.NoError(t, err)
	require.Len(t, hotlist, 1)
	require.Equal(t, 4000.0, hotlist[0].Balance)
	require.Equal(t, models.PaymentStatusPartiallyPaid, hotlist[0].PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryOnboardingFiltersActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mentor := "Noa Mizrahi"
	rows := sqlmock.NewRows([]string{"student_id", "student_name", "welcome_message_sent", "intro_meeting_scheduled", "mentor_name", "strategy_consultant"}).
		AddRow("stu-1", "Dana Levi", true, false, mentor, models.StrategyConsultantA)
	mock.ExpectQuery(regexp.QuoteMeta("e.welcome_message_sent, e.intro_meeting_scheduled, e.onboarding_meeting_date")).
		WithArgs("course-1", "cycle-1").
		WillReturnRows(rows)

	onboarding, err := repo.Onboarding(context.Background(), "course-1", "cycle-1")
	require.NoError(t, err)
	require.Len(t, onboarding, 1)
	require.True(t, onboarding[0].WelcomeMessageSent)
	require.False(t, onboarding[0].IntroMeetingScheduled)
	require.Equal(t, mentor, *onboarding[0].MentorName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryActiveRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	rows := sqlmock.NewRows([]string{"enrollment_id", "student_id", "student_name"}).
		AddRow("enr-1", "stu-1", "Dana Levi").
		AddRow("enr-2", "stu-2", "Yossi Cohen")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id AS enrollment_id, s.id AS student_id, s.full_name AS student_name")).
		WithArgs("course-1", "cycle-1").
		WillReturnRows(rows)

	roster, err := repo.ActiveRoster(context.Background(), "course-1", "cycle-1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, "enr-2", roster[1].EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}
