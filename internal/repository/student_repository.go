package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bizex-academy/portal-api/internal/models"
)

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the filter with the total count for
// pagination. Course and cycle filters match through active enrollments.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.course_id = $%d AND e.status = 'ACTIVE')", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.CycleID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.cycle_id = $%d AND e.status = 'ACTIVE')", len(args)+1))
		args = append(args, filter.CycleID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"email":      true,
		"join_date":  true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "join_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.full_name, s.email, s.phone, s.status, s.join_date,
        s.avatar_url, s.occupation, s.company, s.bio, s.created_at, s.updated_at
        %s ORDER BY s.%s %s LIMIT %d OFFSET %d`, base, sortBy, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student row by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, phone, status, join_date, avatar_url, occupation,
        company, bio, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByEmail reports whether another student already holds the email.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check student email: %w", err)
	}
	return exists, nil
}

// CreateWithEnrollment persists a new student together with their first
// enrollment in one transaction, so intake never produces an orphan identity.
func (r *StudentRepository) CreateWithEnrollment(ctx context.Context, student *models.Student, enrollment *models.Enrollment) error {
	now := time.Now().UTC()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.CreatedAt = now
	student.UpdatedAt = now
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.StudentID = student.ID
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const insertStudent = `INSERT INTO students (id, full_name, email, phone, status, join_date,
        avatar_url, occupation, company, bio, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :status, :join_date,
        :avatar_url, :occupation, :company, :bio, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStudent, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, enrollmentInsertQuery, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Update persists student field changes.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, email = :email, phone = :phone,
        status = :status, join_date = :join_date, avatar_url = :avatar_url, occupation = :occupation,
        company = :company, bio = :bio, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}
