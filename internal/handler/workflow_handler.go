package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/service"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/response"
)

// WorkflowHandler exposes the per-cycle operational views.
type WorkflowHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowHandler constructs WorkflowHandler.
func NewWorkflowHandler(workflow *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

// Onboarding godoc
// @Summary Onboarding view of a cycle's active students
// @Tags Workflow
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/onboarding [get]
func (h *WorkflowHandler) Onboarding(c *gin.Context) {
	rows, err := h.workflow.Onboarding(c.Request.Context(), c.Param("id"), c.Param("cycleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Strategy godoc
// @Summary Strategy view of a cycle's active students
// @Tags Workflow
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/strategy [get]
func (h *WorkflowHandler) Strategy(c *gin.Context) {
	rows, err := h.workflow.Strategy(c.Request.Context(), c.Param("id"), c.Param("cycleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Hotlist godoc
// @Summary Active students with an outstanding balance
// @Tags Workflow
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/hotlist [get]
func (h *WorkflowHandler) Hotlist(c *gin.Context) {
	rows, err := h.workflow.Hotlist(c.Request.Context(), c.Param("id"), c.Param("cycleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Attendance godoc
// @Summary Attendance grid: active students by lessons
// @Tags Workflow
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/attendance [get]
func (h *WorkflowHandler) Attendance(c *gin.Context) {
	view, err := h.workflow.Attendance(c.Request.Context(), c.Param("id"), c.Param("cycleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SetAttendance godoc
// @Summary Record a student's attendance for a lesson
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.SetAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/attendance/{studentId} [put]
func (h *WorkflowHandler) SetAttendance(c *gin.Context) {
	var req dto.SetAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.workflow.SetAttendance(c.Request.Context(), c.Param("studentId"), c.Param("id"), c.Param("cycleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
