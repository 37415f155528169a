package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

type teamMemberRepository interface {
	List(ctx context.Context, filter models.TeamMemberFilter) ([]models.TeamMember, int, error)
	FindByID(ctx context.Context, id string) (*models.TeamMember, error)
	Create(ctx context.Context, member *models.TeamMember) error
	Update(ctx context.Context, member *models.TeamMember) error
}

// TeamMemberRequest holds payload for creating or updating team members.
type TeamMemberRequest struct {
	FullName   string            `json:"full_name" validate:"required"`
	RoleTitle  string            `json:"role_title" validate:"required"`
	Department models.Department `json:"department" validate:"required"`
	Active     *bool             `json:"active,omitempty"`
}

// TeamService handles staff directory use-cases.
type TeamService struct {
	repo      teamMemberRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeamService constructs the team service.
func NewTeamService(repo teamMemberRepository, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{repo: repo, validator: validate, logger: logger}
}

// List returns team members and pagination metadata.
func (s *TeamService) List(ctx context.Context, filter models.TeamMemberFilter) ([]models.TeamMember, *models.Pagination, error) {
	if filter.Department != "" && !filter.Department.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid department")
	}
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list team members")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return members, pagination, nil
}

// Get returns one team member.
func (s *TeamService) Get(ctx context.Context, id string) (*models.TeamMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team member")
	}
	return member, nil
}

// Create registers a new team member and returns the created entity.
func (s *TeamService) Create(ctx context.Context, req TeamMemberRequest) (*models.TeamMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team member payload")
	}
	if !req.Department.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid department")
	}
	member := &models.TeamMember{
		FullName:   req.FullName,
		RoleTitle:  req.RoleTitle,
		Department: req.Department,
		Active:     true,
	}
	if req.Active != nil {
		member.Active = *req.Active
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team member")
	}
	return member, nil
}

// Update modifies a team member and returns the updated entity. Deactivating
// a member leaves existing enrollment references intact; the member only
// stops being assignable.
func (s *TeamService) Update(ctx context.Context, id string, req TeamMemberRequest) (*models.TeamMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team member payload")
	}
	if !req.Department.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid department")
	}
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team member")
	}
	member.FullName = req.FullName
	member.RoleTitle = req.RoleTitle
	member.Department = req.Department
	if req.Active != nil {
		member.Active = *req.Active
	}
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team member")
	}
	return member, nil
}

// Deactivate marks a team member inactive. The record and any enrollment
// references to it are kept.
func (s *TeamService) Deactivate(ctx context.Context, id string) error {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "team member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team member")
	}
	if !member.Active {
		return nil
	}
	member.Active = false
	if err := s.repo.Update(ctx, member); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate team member")
	}
	return nil
}
