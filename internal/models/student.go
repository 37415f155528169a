package models

import "time"

// StudentStatus represents the activity state of a student identity.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusInactive StudentStatus = "INACTIVE"
)

// Valid returns true when the status is a supported value.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive:
		return true
	default:
		return false
	}
}

// Student is the global learner identity, independent of any course.
type Student struct {
	ID         string        `db:"id" json:"id"`
	FullName   string        `db:"full_name" json:"full_name"`
	Email      string        `db:"email" json:"email"`
	Phone      string        `db:"phone" json:"phone"`
	Status     StudentStatus `db:"status" json:"status"`
	JoinDate   time.Time     `db:"join_date" json:"join_date"`
	AvatarURL  *string       `db:"avatar_url" json:"avatar_url,omitempty"`
	Occupation *string       `db:"occupation" json:"occupation,omitempty"`
	Company    *string       `db:"company" json:"company,omitempty"`
	Bio        *string       `db:"bio" json:"bio,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentDetail embeds the student's enrollment ledgers. This is the roster
// projection consumed by the administration console.
type StudentDetail struct {
	Student
	Enrollments []EnrollmentLedger `json:"enrollments"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	CourseID  string
	CycleID   string
	Status    *StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
