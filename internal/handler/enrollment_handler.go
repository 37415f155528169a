package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizex-academy/portal-api/internal/service"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment ledger endpoints. An enrollment is
// addressed by its natural key: student + course + cycle.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

func enrollmentKey(c *gin.Context) (studentID, courseID, cycleID string) {
	return c.Param("id"), c.Param("courseId"), c.Param("cycleId")
}

// Enroll godoc
// @Summary Enroll an existing student into a course cycle
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ledger, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ledger)
}

// GetLedger godoc
// @Summary Get the enrollment ledger for a student in a course cycle
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/{courseId}/{cycleId} [get]
func (h *EnrollmentHandler) GetLedger(c *gin.Context) {
	studentID, courseID, cycleID := enrollmentKey(c)
	ledger, err := h.enrollments.GetLedger(c.Request.Context(), studentID, courseID, cycleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}

// UpdateDetails godoc
// @Summary Partially update an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param payload body service.UpdateEnrollmentDetailsRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/{courseId}/{cycleId} [patch]
func (h *EnrollmentHandler) UpdateDetails(c *gin.Context) {
	var req service.UpdateEnrollmentDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, courseID, cycleID := enrollmentKey(c)
	ledger, err := h.enrollments.UpdateDetails(c.Request.Context(), studentID, courseID, cycleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}

// ReplacePayments godoc
// @Summary Replace the full payment ledger of an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param payload body []service.PaymentInput true "Payment rows"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/{courseId}/{cycleId}/payments [put]
func (h *EnrollmentHandler) ReplacePayments(c *gin.Context) {
	var inputs []service.PaymentInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, courseID, cycleID := enrollmentKey(c)
	ledger, err := h.enrollments.ReplacePayments(c.Request.Context(), studentID, courseID, cycleID, inputs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}

// Transfer godoc
// @Summary Move an enrollment to another cycle of the same course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param payload body service.TransferCycleRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/{courseId}/{cycleId}/transfer [put]
func (h *EnrollmentHandler) Transfer(c *gin.Context) {
	var req service.TransferCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, courseID, cycleID := enrollmentKey(c)
	ledger, err := h.enrollments.TransferCycle(c.Request.Context(), studentID, courseID, cycleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}

// ToggleStatus godoc
// @Summary Flip an enrollment between ACTIVE and CANCELED
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments/{courseId}/{cycleId}/toggle [put]
func (h *EnrollmentHandler) ToggleStatus(c *gin.Context) {
	studentID, courseID, cycleID := enrollmentKey(c)
	ledger, err := h.enrollments.ToggleStatus(c.Request.Context(), studentID, courseID, cycleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ledger, nil)
}
