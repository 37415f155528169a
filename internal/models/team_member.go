package models

import "time"

// Department groups team members by function. Mentor assignment is restricted
// to MENTORING, salesperson assignment to SALES.
type Department string

const (
	DepartmentSales     Department = "SALES"
	DepartmentMentoring Department = "MENTORING"
	DepartmentAdmin     Department = "ADMIN"
)

// Valid returns true when the department is a supported value.
func (d Department) Valid() bool {
	switch d {
	case DepartmentSales, DepartmentMentoring, DepartmentAdmin:
		return true
	default:
		return false
	}
}

// TeamMember represents a staff member referenced by enrollments.
type TeamMember struct {
	ID         string     `db:"id" json:"id"`
	FullName   string     `db:"full_name" json:"full_name"`
	RoleTitle  string     `db:"role_title" json:"role_title"`
	Department Department `db:"department" json:"department"`
	Active     bool       `db:"active" json:"active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// TeamMemberFilter captures filtering options for listing team members.
type TeamMemberFilter struct {
	Department Department
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
