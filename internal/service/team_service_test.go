package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

func TestTeamCreateDefaultsToActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	member, err := env.team.Create(ctx, TeamMemberRequest{
		FullName:   "Giorgi M",
		RoleTitle:  "Senior Mentor",
		Department: models.DepartmentMentoring,
	})
	require.NoError(t, err)
	assert.True(t, member.Active)
	assert.NotEmpty(t, member.ID)
}

func TestTeamCreateRejectsUnknownDepartment(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.team.Create(context.Background(), TeamMemberRequest{
		FullName:   "Giorgi M",
		RoleTitle:  "Senior Mentor",
		Department: "FINANCE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeamDeactivationKeepsEnrollmentReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mentorID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)
	courseID := env.seedCourse(t, "Business Express")
	cycleID := env.seedCycle(t, courseID, "Cycle 1", mentorID)
	studentID, _ := env.seedEnrolled(t, "Nino K", "nino@example.com", courseID, cycleID, 10000, models.EnrollmentStatusActive, models.PaymentStatusUnpaid)

	_, err := env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{MentorID: &mentorID})
	require.NoError(t, err)

	inactive := false
	member, err := env.team.Update(ctx, mentorID, TeamMemberRequest{
		FullName:   "Giorgi M",
		RoleTitle:  "Senior Mentor",
		Department: models.DepartmentMentoring,
		Active:     &inactive,
	})
	require.NoError(t, err)
	assert.False(t, member.Active)

	ledger, err := env.enrollment.GetLedger(ctx, studentID, courseID, cycleID)
	require.NoError(t, err)
	require.NotNil(t, ledger.MentorID)
	assert.Equal(t, mentorID, *ledger.MentorID, "existing assignments survive deactivation")

	// But the deactivated member can no longer be assigned.
	_, err = env.enrollment.UpdateDetails(ctx, studentID, courseID, cycleID, UpdateEnrollmentDetailsRequest{MentorID: &mentorID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeamDeactivateMarksInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	memberID := env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)

	require.NoError(t, env.team.Deactivate(ctx, memberID))

	member, err := env.team.Get(ctx, memberID)
	require.NoError(t, err)
	assert.False(t, member.Active)

	// Idempotent on an already inactive member.
	require.NoError(t, env.team.Deactivate(ctx, memberID))

	err = env.team.Deactivate(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeamListFiltersByDepartment(t *testing.T) {
	env := newTestEnv(t)
	env.seedMember(t, "Giorgi M", models.DepartmentMentoring, true)
	env.seedMember(t, "Tamar S", models.DepartmentSales, true)

	members, pagination, err := env.team.List(context.Background(), models.TeamMemberFilter{Department: models.DepartmentSales})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Tamar S", members[0].FullName)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, err = env.team.List(context.Background(), models.TeamMemberFilter{Department: "FINANCE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
