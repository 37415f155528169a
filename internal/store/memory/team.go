package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bizex-academy/portal-api/internal/models"
)

// TeamMemberStore implements the team member repository interface in memory.
type TeamMemberStore struct {
	store *Store
}

// List returns team members matching the filter with the total count.
func (t *TeamMemberStore) List(ctx context.Context, filter models.TeamMemberFilter) ([]models.TeamMember, int, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var members []models.TeamMember
	for _, member := range t.store.teamMembers {
		if filter.Department != "" && member.Department != filter.Department {
			continue
		}
		if filter.Active != nil && member.Active != *filter.Active {
			continue
		}
		if filter.Search != "" && !containsFold(member.FullName, filter.Search) {
			continue
		}
		members = append(members, member)
	}
	sortByName(members, func(m models.TeamMember) string { return m.FullName }, false)

	total := len(members)
	page, _, _ := paginate(members, filter.Page, filter.PageSize, 50)
	return page, total, nil
}

// FindByID returns a team member by ID.
func (t *TeamMemberStore) FindByID(ctx context.Context, id string) (*models.TeamMember, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	member, ok := t.store.teamMembers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &member, nil
}

// Create stores a new team member.
func (t *TeamMemberStore) Create(ctx context.Context, member *models.TeamMember) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	t.store.teamMembers[member.ID] = *member
	return nil
}

// Update stores team member field changes, including the active flag.
func (t *TeamMemberStore) Update(ctx context.Context, member *models.TeamMember) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, ok := t.store.teamMembers[member.ID]; !ok {
		return sql.ErrNoRows
	}
	member.UpdatedAt = time.Now().UTC()
	t.store.teamMembers[member.ID] = *member
	return nil
}
