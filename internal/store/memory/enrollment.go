package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bizex-academy/portal-api/internal/models"
)

// EnrollmentStore implements the enrollment repository interface in memory.
type EnrollmentStore struct {
	store *Store
}

// FindByID returns an enrollment by ID.
func (e *EnrollmentStore) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	enrollment, ok := e.store.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &enrollment, nil
}

// FindByKey returns the enrollment identified by the natural key, regardless
// of status.
func (e *EnrollmentStore) FindByKey(ctx context.Context, studentID, courseID, cycleID string) (*models.Enrollment, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	for _, enrollment := range e.store.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID && enrollment.CycleID == cycleID {
			return &enrollment, nil
		}
	}
	return nil, sql.ErrNoRows
}

// ExistsActive reports whether an active enrollment exists for the key,
// excluding the given ID.
func (e *EnrollmentStore) ExistsActive(ctx context.Context, studentID, courseID, cycleID, excludeID string) (bool, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	for _, enrollment := range e.store.enrollments {
		if enrollment.ID == excludeID || enrollment.Status != models.EnrollmentStatusActive {
			continue
		}
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID && enrollment.CycleID == cycleID {
			return true, nil
		}
	}
	return false, nil
}

// ListByStudent returns all enrollments of a student, newest first.
func (e *EnrollmentStore) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	enrollments := []models.Enrollment{}
	for _, enrollment := range e.store.enrollments {
		if enrollment.StudentID == studentID {
			enrollments = append(enrollments, enrollment)
		}
	}
	sortByTime(enrollments, func(en models.Enrollment) time.Time { return en.CreatedAt }, true)
	return enrollments, nil
}

// Create stores a new enrollment.
func (e *EnrollmentStore) Create(ctx context.Context, enrollment *models.Enrollment) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	e.store.enrollments[enrollment.ID] = *enrollment
	return nil
}

// UpdateDetails stores every mutable field except the natural key and status.
func (e *EnrollmentStore) UpdateDetails(ctx context.Context, enrollment *models.Enrollment) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	stored, ok := e.store.enrollments[enrollment.ID]
	if !ok {
		return sql.ErrNoRows
	}
	enrollment.StudentID = stored.StudentID
	enrollment.CourseID = stored.CourseID
	enrollment.CycleID = stored.CycleID
	enrollment.Status = stored.Status
	enrollment.CreatedAt = stored.CreatedAt
	enrollment.UpdatedAt = time.Now().UTC()
	e.store.enrollments[enrollment.ID] = *enrollment
	return nil
}

// UpdateCycle moves the enrollment to another cycle.
func (e *EnrollmentStore) UpdateCycle(ctx context.Context, id, cycleID string) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	enrollment, ok := e.store.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	enrollment.CycleID = cycleID
	enrollment.UpdatedAt = time.Now().UTC()
	e.store.enrollments[id] = enrollment
	return nil
}

// UpdateStatus flips the enrollment between ACTIVE and CANCELED.
func (e *EnrollmentStore) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()

	enrollment, ok := e.store.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	enrollment.Status = status
	enrollment.UpdatedAt = time.Now().UTC()
	e.store.enrollments[id] = enrollment
	return nil
}

// PaymentStore implements the payment repository interface in memory.
type PaymentStore struct {
	store *Store
}

// ListByEnrollment returns the ledger rows of one enrollment in entry order.
func (p *PaymentStore) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	return append([]models.Payment{}, p.store.payments[enrollmentID]...), nil
}

// ReplaceForEnrollment swaps the full ledger of an enrollment.
func (p *PaymentStore) ReplaceForEnrollment(ctx context.Context, enrollmentID string, payments []models.Payment) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	replaced := make([]models.Payment, 0, len(payments))
	for i := range payments {
		payments[i].ID = uuid.NewString()
		payments[i].EnrollmentID = enrollmentID
		payments[i].Position = i
		replaced = append(replaced, payments[i])
	}
	p.store.payments[enrollmentID] = replaced
	return nil
}

// SumByEnrollment returns the paid-so-far total of one enrollment.
func (p *PaymentStore) SumByEnrollment(ctx context.Context, enrollmentID string) (float64, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	var total float64
	for _, payment := range p.store.payments[enrollmentID] {
		total += payment.Amount
	}
	return total, nil
}

// AttendanceStore implements the attendance repository interface in memory.
type AttendanceStore struct {
	store *Store
}

// ListByEnrollment returns all attendance records of one enrollment.
func (a *AttendanceStore) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.AttendanceRecord, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	records := []models.AttendanceRecord{}
	for _, record := range a.store.attendance {
		if record.EnrollmentID == enrollmentID {
			records = append(records, record)
		}
	}
	return records, nil
}

// ListByCycle returns attendance records of active enrollments in a cycle.
func (a *AttendanceStore) ListByCycle(ctx context.Context, cycleID string) ([]models.AttendanceRecord, error) {
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()

	records := []models.AttendanceRecord{}
	for _, record := range a.store.attendance {
		enrollment, ok := a.store.enrollments[record.EnrollmentID]
		if !ok || enrollment.CycleID != cycleID || enrollment.Status != models.EnrollmentStatusActive {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Upsert writes one attendance cell, overwriting any previous mark.
func (a *AttendanceStore) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	key := attendanceKey(record.EnrollmentID, record.LessonID)
	now := time.Now().UTC()
	if existing, ok := a.store.attendance[key]; ok {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		record.ID = uuid.NewString()
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	a.store.attendance[key] = *record
	return nil
}
