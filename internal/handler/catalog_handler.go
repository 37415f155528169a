package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/service"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
	"github.com/bizex-academy/portal-api/pkg/response"
)

// CatalogHandler exposes the course -> cycle -> lesson hierarchy endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCourses godoc
// @Summary List courses with their cycle and lesson trees
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	trees, pagination, err := h.catalog.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trees, pagination)
}

// GetCourse godoc
// @Summary Get one course tree
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	tree, err := h.catalog.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree, nil)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalog.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// AddCycle godoc
// @Summary Add a cycle to a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CycleRequest true "Cycle payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/cycles [post]
func (h *CatalogHandler) AddCycle(c *gin.Context) {
	var req service.CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cycle, err := h.catalog.AddCycle(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cycle)
}

// UpdateCycle godoc
// @Summary Update a cycle of a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param payload body service.CycleRequest true "Cycle payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId} [put]
func (h *CatalogHandler) UpdateCycle(c *gin.Context) {
	var req service.CycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cycle, err := h.catalog.UpdateCycle(c.Request.Context(), c.Param("id"), c.Param("cycleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cycle, nil)
}

// AddLesson godoc
// @Summary Append a lesson to a cycle
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param payload body service.AddLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/lessons [post]
func (h *CatalogHandler) AddLesson(c *gin.Context) {
	var req service.AddLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.catalog.AddLesson(c.Request.Context(), c.Param("id"), c.Param("cycleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// UpdateLesson godoc
// @Summary Replace a lesson's video, task and materials
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.UpdateLessonContentRequest true "Lesson content payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/lessons/{lessonId} [put]
func (h *CatalogHandler) UpdateLesson(c *gin.Context) {
	var req service.UpdateLessonContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.catalog.UpdateLesson(c.Request.Context(), c.Param("id"), c.Param("cycleId"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// RenameLesson godoc
// @Summary Rename a lesson
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.RenameLessonRequest true "Rename payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/lessons/{lessonId}/rename [put]
func (h *CatalogHandler) RenameLesson(c *gin.Context) {
	var req service.RenameLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.catalog.RenameLesson(c.Request.Context(), c.Param("id"), c.Param("cycleId"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Param cycleId path string true "Cycle ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204 {object} response.Envelope
// @Router /courses/{id}/cycles/{cycleId}/lessons/{lessonId} [delete]
func (h *CatalogHandler) DeleteLesson(c *gin.Context) {
	if err := h.catalog.DeleteLesson(c.Request.Context(), c.Param("id"), c.Param("cycleId"), c.Param("lessonId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
