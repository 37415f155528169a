package memory

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizex-academy/portal-api/internal/models"
)

// UserStore implements the user, refresh token and audit log repository
// interfaces in memory.
type UserStore struct {
	store *Store
}

// FindByEmail returns a user by email, case-insensitively.
func (u *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	for _, user := range u.store.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

// FindByID returns a user by ID.
func (u *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	user, ok := u.store.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

// Create stores a new user.
func (u *UserStore) Create(ctx context.Context, user *models.User) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	u.store.users[user.ID] = *user
	return nil
}

// UpdateLastLogin records the login timestamp.
func (u *UserStore) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	user, ok := u.store.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.LastLogin = &ts
	u.store.users[id] = user
	return nil
}

// UpdatePassword replaces the stored password hash.
func (u *UserStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	user, ok := u.store.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = updatedAt
	u.store.users[id] = user
	return nil
}

// RevokeUserRefreshTokens revokes every live refresh token of a user.
func (u *UserStore) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	now := time.Now().UTC()
	for key, token := range u.store.refreshTokens {
		if token.UserID == userID && !token.Revoked {
			token.Revoked = true
			token.RevokedAt = &now
			u.store.refreshTokens[key] = token
		}
	}
	return nil
}

// CreateRefreshToken stores a refresh token keyed by its opaque value.
func (u *UserStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	u.store.refreshTokens[token.Token] = *token
	return nil
}

// FindRefreshToken returns a refresh token by its opaque value.
func (u *UserStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	record, ok := u.store.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

// RevokeRefreshToken marks one refresh token revoked.
func (u *UserStore) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for key, token := range u.store.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
			u.store.refreshTokens[key] = token
			return nil
		}
	}
	return sql.ErrNoRows
}

// CreateAuditLog appends an audit trail record.
func (u *UserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	u.store.auditLogs = append(u.store.auditLogs, *log)
	return nil
}
