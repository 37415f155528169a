package models

import "time"

// Lesson is one content unit within a cycle.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	CycleID   string    `db:"cycle_id" json:"cycle_id"`
	Title     string    `db:"title" json:"title"`
	VideoURL  string    `db:"video_url" json:"video_url"`
	Task      string    `db:"task" json:"task"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Material is a downloadable resource attached to a lesson.
type Material struct {
	ID       string `db:"id" json:"id"`
	LessonID string `db:"lesson_id" json:"lesson_id"`
	Name     string `db:"name" json:"name"`
	URL      string `db:"url" json:"url"`
	Position int    `db:"position" json:"position"`
}

// LessonDetail embeds the ordered material list.
type LessonDetail struct {
	Lesson
	Materials []Material `json:"materials"`
}
