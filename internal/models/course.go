package models

import "time"

// Course represents a program offering containing one or more cycles.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Color       string    `db:"color" json:"color"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with derived counters.
type CourseDetail struct {
	Course
	CycleCount   int `db:"cycle_count" json:"cycle_count"`
	StudentCount int `db:"student_count" json:"student_count"`
}

// CourseTree is the fully embedded catalog projection (cycles with their
// lessons and materials). It is a cached read model, never the write shape.
type CourseTree struct {
	CourseDetail
	Cycles []CycleTree `json:"cycles"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
