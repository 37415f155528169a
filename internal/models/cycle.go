package models

import "time"

// CycleStatus represents the lifecycle of a cycle (one cohort run of a course).
type CycleStatus string

// Possible cycle statuses.
const (
	CycleStatusPlanned CycleStatus = "PLANNED"
	CycleStatusActive  CycleStatus = "ACTIVE"
	CycleStatusEnded   CycleStatus = "ENDED"
)

// Valid returns true when the status is a supported value.
func (s CycleStatus) Valid() bool {
	switch s {
	case CycleStatusPlanned, CycleStatusActive, CycleStatusEnded:
		return true
	default:
		return false
	}
}

// Cycle is one time-boxed run of a course.
type Cycle struct {
	ID        string      `db:"id" json:"id"`
	CourseID  string      `db:"course_id" json:"course_id"`
	Name      string      `db:"name" json:"name"`
	StartDate time.Time   `db:"start_date" json:"start_date"`
	EndDate   time.Time   `db:"end_date" json:"end_date"`
	Status    CycleStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// CycleDetail carries the ordered mentor assignment alongside the cycle row.
type CycleDetail struct {
	Cycle
	MentorIDs    []string `json:"mentor_ids"`
	StudentCount int      `db:"student_count" json:"student_count"`
}

// CycleTree embeds the cycle's lessons for the catalog projection.
type CycleTree struct {
	CycleDetail
	Lessons []LessonDetail `json:"lessons"`
}
