package memory

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bizex-academy/portal-api/internal/models"
)

// CourseStore implements the course repository interface in memory.
type CourseStore struct {
	store *Store
}

// List returns courses with derived counters, filtered and paginated.
func (c *CourseStore) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	var courses []models.CourseDetail
	for _, course := range c.store.courses {
		if filter.Search != "" && !containsFold(course.Name, filter.Search) {
			continue
		}
		detail := models.CourseDetail{Course: course}
		for _, cycle := range c.store.cycles {
			if cycle.CourseID == course.ID {
				detail.CycleCount++
			}
		}
		for _, e := range c.store.enrollments {
			if e.CourseID == course.ID && e.Status == models.EnrollmentStatusActive {
				detail.StudentCount++
			}
		}
		courses = append(courses, detail)
	}

	desc := filter.SortOrder != "asc" && filter.SortOrder != "ASC"
	if filter.SortBy == "name" {
		sortByName(courses, func(d models.CourseDetail) string { return d.Name }, desc)
	} else {
		sortByTime(courses, func(d models.CourseDetail) time.Time { return d.CreatedAt }, desc)
	}

	total := len(courses)
	page, _, _ := paginate(courses, filter.Page, filter.PageSize, 20)
	return page, total, nil
}

// FindByID returns a course by ID.
func (c *CourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	course, ok := c.store.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

// Create stores a new course.
func (c *CourseStore) Create(ctx context.Context, course *models.Course) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	c.store.courses[course.ID] = *course
	return nil
}

// Update stores course field changes.
func (c *CourseStore) Update(ctx context.Context, course *models.Course) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, ok := c.store.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	course.UpdatedAt = time.Now().UTC()
	c.store.courses[course.ID] = *course
	return nil
}

// CycleStore implements the cycle repository interface in memory.
type CycleStore struct {
	store *Store
}

// ListByCourse returns cycles of a course ordered by start date.
func (c *CycleStore) ListByCourse(ctx context.Context, courseID string) ([]models.CycleDetail, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	details := []models.CycleDetail{}
	for _, cycle := range c.store.cycles {
		if cycle.CourseID != courseID {
			continue
		}
		details = append(details, c.detailLocked(cycle))
	}
	sortByTime(details, func(d models.CycleDetail) time.Time { return d.StartDate }, false)
	return details, nil
}

// FindByID returns a cycle with its mentor assignment.
func (c *CycleStore) FindByID(ctx context.Context, id string) (*models.CycleDetail, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	cycle, ok := c.store.cycles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := c.detailLocked(cycle)
	return &detail, nil
}

// Create stores a new cycle with its mentor assignment.
func (c *CycleStore) Create(ctx context.Context, cycle *models.Cycle, mentorIDs []string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	c.store.cycles[cycle.ID] = *cycle
	c.store.cycleMentors[cycle.ID] = append([]string(nil), mentorIDs...)
	return nil
}

// Update stores cycle field changes and replaces the mentor assignment.
func (c *CycleStore) Update(ctx context.Context, cycle *models.Cycle, mentorIDs []string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, ok := c.store.cycles[cycle.ID]; !ok {
		return sql.ErrNoRows
	}
	cycle.UpdatedAt = time.Now().UTC()
	c.store.cycles[cycle.ID] = *cycle
	c.store.cycleMentors[cycle.ID] = append([]string(nil), mentorIDs...)
	return nil
}

func (c *CycleStore) detailLocked(cycle models.Cycle) models.CycleDetail {
	detail := models.CycleDetail{
		Cycle:     cycle,
		MentorIDs: append([]string(nil), c.store.cycleMentors[cycle.ID]...),
	}
	if detail.MentorIDs == nil {
		detail.MentorIDs = []string{}
	}
	for _, e := range c.store.enrollments {
		if e.CycleID == cycle.ID && e.Status == models.EnrollmentStatusActive {
			detail.StudentCount++
		}
	}
	return detail
}

// LessonStore implements the lesson repository interface in memory.
type LessonStore struct {
	store *Store
}

// ListByCycle returns lessons of a cycle in position order with materials.
func (l *LessonStore) ListByCycle(ctx context.Context, cycleID string) ([]models.LessonDetail, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	details := []models.LessonDetail{}
	for _, lesson := range l.store.lessons {
		if lesson.CycleID != cycleID {
			continue
		}
		details = append(details, models.LessonDetail{
			Lesson:    lesson,
			Materials: append([]models.Material{}, l.store.materials[lesson.ID]...),
		})
	}
	sortByPosition(details)
	return details, nil
}

// FindByID returns a lesson with its materials.
func (l *LessonStore) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	lesson, ok := l.store.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.LessonDetail{
		Lesson:    lesson,
		Materials: append([]models.Material{}, l.store.materials[id]...),
	}, nil
}

// Create appends a lesson at the end of the cycle's list.
func (l *LessonStore) Create(ctx context.Context, lesson *models.Lesson) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	lesson.Position = 0
	for _, other := range l.store.lessons {
		if other.CycleID == lesson.CycleID && other.Position >= lesson.Position {
			lesson.Position = other.Position + 1
		}
	}
	l.store.lessons[lesson.ID] = *lesson
	return nil
}

// UpdateContent replaces the lesson's video, task and materials.
func (l *LessonStore) UpdateContent(ctx context.Context, lesson *models.Lesson, materials []models.Material) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	stored, ok := l.store.lessons[lesson.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.VideoURL = lesson.VideoURL
	stored.Task = lesson.Task
	stored.UpdatedAt = time.Now().UTC()
	l.store.lessons[lesson.ID] = stored

	replaced := make([]models.Material, 0, len(materials))
	for i, m := range materials {
		m.ID = uuid.NewString()
		m.LessonID = lesson.ID
		m.Position = i
		replaced = append(replaced, m)
	}
	l.store.materials[lesson.ID] = replaced
	return nil
}

// Rename updates only the lesson title.
func (l *LessonStore) Rename(ctx context.Context, id, title string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	lesson, ok := l.store.lessons[id]
	if !ok {
		return sql.ErrNoRows
	}
	lesson.Title = title
	lesson.UpdatedAt = time.Now().UTC()
	l.store.lessons[id] = lesson
	return nil
}

// Delete removes a lesson with its materials and attendance records.
func (l *LessonStore) Delete(ctx context.Context, id string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if _, ok := l.store.lessons[id]; !ok {
		return sql.ErrNoRows
	}
	delete(l.store.lessons, id)
	delete(l.store.materials, id)
	for key, record := range l.store.attendance {
		if record.LessonID == id {
			delete(l.store.attendance, key)
		}
	}
	return nil
}

func sortByPosition(details []models.LessonDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Position < details[j].Position
	})
}
