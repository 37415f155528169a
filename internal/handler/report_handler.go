package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/service"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/response"
)

// ReportHandler exposes async report generation and download endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Request godoc
// @Summary Queue a report for generation
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.RequestReportInput true "Report request"
// @Success 202 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Request(c *gin.Context) {
	var req dto.RequestReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.reports.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Get godoc
// @Summary Get report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	job, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished report with a signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	job, file, err := h.reports.Download(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat report file"))
		return
	}

	contentType := "text/csv"
	if job.Format == dto.ReportFormatPDF {
		contentType = "application/pdf"
	}
	filename := fmt.Sprintf("%s-%s.%s", job.Type, job.ID, job.Format)
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}
