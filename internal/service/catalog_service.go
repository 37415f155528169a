package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bizex-academy/portal-api/internal/models"
	appErrors "github.com/bizex-academy/portal-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
}

type cycleRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.CycleDetail, error)
	FindByID(ctx context.Context, id string) (*models.CycleDetail, error)
	Create(ctx context.Context, cycle *models.Cycle, mentorIDs []string) error
	Update(ctx context.Context, cycle *models.Cycle, mentorIDs []string) error
}

type lessonRepository interface {
	ListByCycle(ctx context.Context, cycleID string) ([]models.LessonDetail, error)
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	UpdateContent(ctx context.Context, lesson *models.Lesson, materials []models.Material) error
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type mentorReader interface {
	FindByID(ctx context.Context, id string) (*models.TeamMember, error)
}

// CourseRequest holds payload for creating or updating courses.
type CourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CycleRequest holds payload for creating or updating cycles.
type CycleRequest struct {
	Name      string             `json:"name" validate:"required"`
	StartDate time.Time          `json:"start_date" validate:"required"`
	EndDate   time.Time          `json:"end_date" validate:"required"`
	Status    models.CycleStatus `json:"status" validate:"required"`
	MentorIDs []string           `json:"mentor_ids"`
}

// AddLessonRequest holds payload for appending a lesson to a cycle.
type AddLessonRequest struct {
	Title string `json:"title" validate:"required"`
}

// MaterialInput is one material row in a lesson content update.
type MaterialInput struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
}

// UpdateLessonContentRequest replaces the lesson's video, task and materials.
type UpdateLessonContentRequest struct {
	VideoURL  string          `json:"video_url"`
	Task      string          `json:"task"`
	Materials []MaterialInput `json:"materials"`
}

// RenameLessonRequest holds payload for renaming a lesson.
type RenameLessonRequest struct {
	Title string `json:"title" validate:"required"`
}

// CatalogService handles the course -> cycle -> lesson hierarchy.
type CatalogService struct {
	courses   courseRepository
	cycles    cycleRepository
	lessons   lessonRepository
	team      mentorReader
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(courses courseRepository, cycles cycleRepository, lessons lessonRepository, team mentorReader, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		courses:   courses,
		cycles:    cycles,
		lessons:   lessons,
		team:      team,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// ListCourses returns the full catalog trees with pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseTree, *models.Pagination, error) {
	type cached struct {
		Trees      []models.CourseTree `json:"trees"`
		Pagination models.Pagination   `json:"pagination"`
	}
	key := fmt.Sprintf("%slist:%s:%d:%d:%s:%s", cacheKeyCatalogPrefix, filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	var hit cached
	if ok, _ := s.cache.Get(ctx, key, &hit); ok {
		return hit.Trees, &hit.Pagination, nil
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	trees := make([]models.CourseTree, 0, len(courses))
	for _, course := range courses {
		tree, err := s.buildTree(ctx, course)
		if err != nil {
			return nil, nil, err
		}
		trees = append(trees, *tree)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	_ = s.cache.Set(ctx, key, cached{Trees: trees, Pagination: *pagination}, s.cacheTTL)
	return trees, pagination, nil
}

// GetCourse returns one course tree.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.CourseTree, error) {
	key := fmt.Sprintf("%scourse:%s", cacheKeyCatalogPrefix, id)
	var hit models.CourseTree
	if ok, _ := s.cache.Get(ctx, key, &hit); ok {
		return &hit, nil
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	tree, err := s.buildTree(ctx, models.CourseDetail{Course: *course})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, tree, s.cacheTTL)
	return tree, nil
}

// CreateCourse registers a new course and returns the created entity.
func (s *CatalogService) CreateCourse(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// UpdateCourse modifies a course and returns the updated entity.
func (s *CatalogService) UpdateCourse(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course.Name = req.Name
	course.Description = req.Description
	course.Color = req.Color
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// AddCycle appends a cycle to a course and returns the created entity.
func (s *CatalogService) AddCycle(ctx context.Context, courseID string, req CycleRequest) (*models.CycleDetail, error) {
	if err := s.validateCycleRequest(ctx, req); err != nil {
		return nil, err
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	cycle := &models.Cycle{
		CourseID:  courseID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    req.Status,
	}
	if err := s.cycles.Create(ctx, cycle, req.MentorIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cycle")
	}
	s.invalidate(ctx)
	detail, err := s.cycles.FindByID(ctx, cycle.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cycle")
	}
	return detail, nil
}

// UpdateCycle modifies a cycle of a course and returns the updated entity.
func (s *CatalogService) UpdateCycle(ctx context.Context, courseID, cycleID string, req CycleRequest) (*models.CycleDetail, error) {
	if err := s.validateCycleRequest(ctx, req); err != nil {
		return nil, err
	}
	detail, err := s.cycleOfCourse(ctx, courseID, cycleID)
	if err != nil {
		return nil, err
	}
	cycle := detail.Cycle
	cycle.Name = req.Name
	cycle.StartDate = req.StartDate
	cycle.EndDate = req.EndDate
	cycle.Status = req.Status
	if err := s.cycles.Update(ctx, &cycle, req.MentorIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update cycle")
	}
	s.invalidate(ctx)
	updated, err := s.cycles.FindByID(ctx, cycleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cycle")
	}
	return updated, nil
}

// AddLesson appends a lesson to a cycle and returns the created entity.
func (s *CatalogService) AddLesson(ctx context.Context, courseID, cycleID string, req AddLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if _, err := s.cycleOfCourse(ctx, courseID, cycleID); err != nil {
		return nil, err
	}
	lesson := &models.Lesson{CycleID: cycleID, Title: req.Title}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	s.invalidate(ctx)
	return lesson, nil
}

// UpdateLesson replaces the lesson's content and returns the updated entity.
func (s *CatalogService) UpdateLesson(ctx context.Context, courseID, cycleID, lessonID string, req UpdateLessonContentRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson, err := s.lessonOfCycle(ctx, courseID, cycleID, lessonID)
	if err != nil {
		return nil, err
	}
	updated := lesson.Lesson
	updated.VideoURL = req.VideoURL
	updated.Task = req.Task
	materials := make([]models.Material, 0, len(req.Materials))
	for _, m := range req.Materials {
		materials = append(materials, models.Material{Name: m.Name, URL: m.URL})
	}
	if err := s.lessons.UpdateContent(ctx, &updated, materials); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	s.invalidate(ctx)
	detail, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return detail, nil
}

// RenameLesson updates only the lesson title and returns the updated entity.
func (s *CatalogService) RenameLesson(ctx context.Context, courseID, cycleID, lessonID string, req RenameLessonRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if _, err := s.lessonOfCycle(ctx, courseID, cycleID, lessonID); err != nil {
		return nil, err
	}
	if err := s.lessons.Rename(ctx, lessonID, req.Title); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename lesson")
	}
	s.invalidate(ctx)
	detail, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return detail, nil
}

// DeleteLesson removes a lesson from a cycle. Attendance records of the
// deleted lesson are pruned; other lessons keep theirs.
func (s *CatalogService) DeleteLesson(ctx context.Context, courseID, cycleID, lessonID string) error {
	if _, err := s.lessonOfCycle(ctx, courseID, cycleID, lessonID); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) buildTree(ctx context.Context, course models.CourseDetail) (*models.CourseTree, error) {
	cycles, err := s.cycles.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cycles")
	}
	tree := &models.CourseTree{CourseDetail: course, Cycles: make([]models.CycleTree, 0, len(cycles))}
	for _, cycle := range cycles {
		lessons, err := s.lessons.ListByCycle(ctx, cycle.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
		}
		tree.Cycles = append(tree.Cycles, models.CycleTree{CycleDetail: cycle, Lessons: lessons})
	}
	return tree, nil
}

func (s *CatalogService) validateCycleRequest(ctx context.Context, req CycleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cycle payload")
	}
	if !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid cycle status")
	}
	if !req.EndDate.After(req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "cycle end date must be after start date")
	}
	for _, mentorID := range req.MentorIDs {
		mentor, err := s.team.FindByID(ctx, mentorID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrValidation, "mentor not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor")
		}
		if mentor.Department != models.DepartmentMentoring || !mentor.Active {
			return appErrors.Clone(appErrors.ErrValidation, "mentor must be an active member of the mentoring department")
		}
	}
	return nil
}

func (s *CatalogService) cycleOfCourse(ctx context.Context, courseID, cycleID string) (*models.CycleDetail, error) {
	cycle, err := s.cycles.FindByID(ctx, cycleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cycle")
	}
	if cycle.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "cycle not found in course")
	}
	return cycle, nil
}

func (s *CatalogService) lessonOfCycle(ctx context.Context, courseID, cycleID, lessonID string) (*models.LessonDetail, error) {
	if _, err := s.cycleOfCourse(ctx, courseID, cycleID); err != nil {
		return nil, err
	}
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.CycleID != cycleID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found in cycle")
	}
	return lesson, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyCatalogPrefix+"*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
