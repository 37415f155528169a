package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

// TeamMemberRepository manages persistence for team members.
type TeamMemberRepository struct {
	db *sqlx.DB
}

// NewTeamMemberRepository constructs a new team member repository.
func NewTeamMemberRepository(db *sqlx.DB) *TeamMemberRepository {
	return &TeamMemberRepository{db: db}
}

// List returns team members matching the filter with the total count.
func (r *TeamMemberRepository) List(ctx context.Context, filter models.TeamMemberFilter) ([]models.TeamMember, int, error) {
	base := "FROM team_members t WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("t.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("t.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(t.full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.full_name, t.role_title, t.department, t.active, t.created_at, t.updated_at
        %s ORDER BY t.full_name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var members []models.TeamMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list team members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count team members: %w", err)
	}
	return members, total, nil
}

// FindByID returns a team member row by ID.
func (r *TeamMemberRepository) FindByID(ctx context.Context, id string) (*models.TeamMember, error) {
	const query = `SELECT id, full_name, role_title, department, active, created_at, updated_at
        FROM team_members WHERE id = $1`
	var member models.TeamMember
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// Create persists a new team member.
func (r *TeamMemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	const query = `INSERT INTO team_members (id, full_name, role_title, department, active, created_at, updated_at)
        VALUES (:id, :full_name, :role_title, :department, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create team member: %w", err)
	}
	return nil
}

// Update persists team member field changes, including the active flag.
func (r *TeamMemberRepository) Update(ctx context.Context, member *models.TeamMember) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE team_members SET full_name = :full_name, role_title = :role_title,
        department = :department, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update team member: %w", err)
	}
	return nil
}
