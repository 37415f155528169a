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

// RosterHandler exposes student roster endpoints.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// List godoc
// @Summary List students with their enrollment ledgers
// @Tags Roster
// @Produce json
// @Param search query string false "Search by name or email"
// @Param courseId query string false "Filter by course"
// @Param cycleId query string false "Filter by cycle"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *RosterHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = c.Query("search")
	filter.CourseID = c.Query("courseId")
	filter.CycleID = c.Query("cycleId")
	if raw := c.Query("status"); raw != "" {
		status := models.StudentStatus(strings.ToUpper(raw))
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student status"))
			return
		}
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	students, pagination, err := h.roster.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get one student with their enrollment ledgers
// @Tags Roster
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *RosterHandler) Get(c *gin.Context) {
	detail, err := h.roster.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Intake godoc
// @Summary Register a student together with their first enrollment
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body service.IntakeStudentRequest true "Intake payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *RosterHandler) Intake(c *gin.Context) {
	var req service.IntakeStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.roster.Intake(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update student identity fields
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [patch]
func (h *RosterHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.roster.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
