package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

// LessonRepository manages persistence for lessons and their materials.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListByCycle returns the lessons of a cycle in position order, each with its
// ordered material list.
func (r *LessonRepository) ListByCycle(ctx context.Context, cycleID string) ([]models.LessonDetail, error) {
	const query = `SELECT id, cycle_id, title, video_url, task, position, created_at, updated_at
        FROM lessons WHERE cycle_id = $1 ORDER BY position ASC`

	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, cycleID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	for i := range lessons {
		materials, err := r.materials(ctx, lessons[i].ID)
		if err != nil {
			return nil, err
		}
		lessons[i].Materials = materials
	}
	return lessons, nil
}

// FindByID returns a lesson with its materials.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	const query = `SELECT id, cycle_id, title, video_url, task, position, created_at, updated_at
        FROM lessons WHERE id = $1`

	var lesson models.LessonDetail
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	materials, err := r.materials(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	lesson.Materials = materials
	return &lesson, nil
}

// Create appends a new lesson at the end of the cycle's lesson list.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	const position = `SELECT COALESCE(MAX(position), -1) + 1 FROM lessons WHERE cycle_id = $1`
	if err := r.db.GetContext(ctx, &lesson.Position, position, lesson.CycleID); err != nil {
		return fmt.Errorf("next lesson position: %w", err)
	}

	const insert = `INSERT INTO lessons (id, cycle_id, title, video_url, task, position, created_at, updated_at)
        VALUES (:id, :cycle_id, :title, :video_url, :task, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, insert, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// UpdateContent replaces the lesson's video, task and material list.
func (r *LessonRepository) UpdateContent(ctx context.Context, lesson *models.Lesson, materials []models.Material) error {
	lesson.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const update = `UPDATE lessons SET video_url = :video_url, task = :task, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE lesson_id = $1`, lesson.ID); err != nil {
		return fmt.Errorf("clear materials: %w", err)
	}
	for i := range materials {
		materials[i].ID = uuid.NewString()
		materials[i].LessonID = lesson.ID
		materials[i].Position = i
		const insert = `INSERT INTO materials (id, lesson_id, name, url, position)
            VALUES (:id, :lesson_id, :name, :url, :position)`
		if _, err := tx.NamedExecContext(ctx, insert, materials[i]); err != nil {
			return fmt.Errorf("create material: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rename updates only the lesson title.
func (r *LessonRepository) Rename(ctx context.Context, id, title string) error {
	const query = `UPDATE lessons SET title = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, title, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("rename lesson: %w", err)
	}
	return nil
}

// Delete removes a lesson together with its materials and attendance records.
// Attendance of other lessons is untouched.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE lesson_id = $1`, id); err != nil {
		return fmt.Errorf("prune attendance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE lesson_id = $1`, id); err != nil {
		return fmt.Errorf("delete materials: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *LessonRepository) materials(ctx context.Context, lessonID string) ([]models.Material, error) {
	const query = `SELECT id, lesson_id, name, url, position FROM materials WHERE lesson_id = $1 ORDER BY position ASC`
	materials := []models.Material{}
	if err := r.db.SelectContext(ctx, &materials, query, lessonID); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}
