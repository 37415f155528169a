package models

import "time"

// AttendanceRecord marks presence of one enrollment at one lesson. One entry
// is expected per lesson in the enrollment's cycle; a missing record reads as
// absent.
type AttendanceRecord struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	LessonID     string    `db:"lesson_id" json:"lesson_id"`
	Present      bool      `db:"present" json:"present"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
