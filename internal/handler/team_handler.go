package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/service"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/response"
)

// TeamHandler exposes the staff directory endpoints.
type TeamHandler struct {
	team *service.TeamService
}

// NewTeamHandler constructs TeamHandler.
func NewTeamHandler(team *service.TeamService) *TeamHandler {
	return &TeamHandler{team: team}
}

// List godoc
// @Summary List team members
// @Tags Team
// @Produce json
// @Param department query string false "Filter by department"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /team [get]
func (h *TeamHandler) List(c *gin.Context) {
	var filter models.TeamMemberFilter
	filter.Department = models.Department(strings.ToUpper(c.Query("department")))
	filter.Search = c.Query("search")
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	members, pagination, err := h.team.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// Get godoc
// @Summary Get one team member
// @Tags Team
// @Produce json
// @Param id path string true "Team member ID"
// @Success 200 {object} response.Envelope
// @Router /team/{id} [get]
func (h *TeamHandler) Get(c *gin.Context) {
	member, err := h.team.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Create team member
// @Tags Team
// @Accept json
// @Produce json
// @Param payload body service.TeamMemberRequest true "Team member payload"
// @Success 201 {object} response.Envelope
// @Router /team [post]
func (h *TeamHandler) Create(c *gin.Context) {
	var req service.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.team.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Deactivate godoc
// @Summary Deactivate team member
// @Tags Team
// @Produce json
// @Param id path string true "Team member ID"
// @Success 204 {object} response.Envelope
// @Router /team/{id} [delete]
func (h *TeamHandler) Deactivate(c *gin.Context) {
	if err := h.team.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Update godoc
// @Summary Update team member
// @Tags Team
// @Accept json
// @Produce json
// @Param id path string true "Team member ID"
// @Param payload body service.TeamMemberRequest true "Team member payload"
// @Success 200 {object} response.Envelope
// @Router /team/{id} [put]
func (h *TeamHandler) Update(c *gin.Context) {
	var req service.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.team.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}
