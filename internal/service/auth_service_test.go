package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	auditActions  []string
	revokedAll    []string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	user := m.users[id]
	user.LastLogin = &ts
	m.users[id] = user
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	user := m.users[id]
	user.PasswordHash = passwordHash
	user.UpdatedAt = updatedAt
	m.users[id] = user
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	for key, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
			m.refreshTokens[key] = token
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		return &stored, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for key, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			m.refreshTokens[key] = token
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditActions = append(m.auditActions, log.Action)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "portal-api",
	}
}

func seedUser(repo *mockAuthRepo, password string, active bool) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := models.User{
		ID:           "user-1",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestLoginIssuesValidatableToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "correct-horse", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Contains(t, repo.auditActions, models.AuditActionLogin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "correct-horse", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "correct-horse", false)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "correct-horse", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedUser(repo, "correct-horse", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand-new-password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "brand-new-password",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, user.ID)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "brand-new-password"})
	require.NoError(t, err)
}

func TestValidateTokenRejectsForgedToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "correct-horse", true)
	svc := NewAuthService(repo, nil, nil, testAuthConfig())
	otherSvc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: 15 * time.Minute,
	})

	resp, err := otherSvc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
