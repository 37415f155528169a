package dto

import (
	"time"

	"github.com/bizex-academy/portal-api/internal/models"
)

// OnboardingRow is one active enrollment in the onboarding view of a cycle.
type OnboardingRow struct {
	StudentID             string                    `json:"student_id"`
	StudentName           string                    `json:"student_name"`
	Occupation            *string                   `json:"occupation,omitempty"`
	WelcomeMessageSent    bool                      `json:"welcome_message_sent"`
	IntroMeetingScheduled bool                      `json:"intro_meeting_scheduled"`
	OnboardingMeetingDate *time.Time                `json:"onboarding_meeting_date,omitempty"`
	MentorID              *string                   `json:"mentor_id,omitempty"`
	MentorName            *string                   `json:"mentor_name,omitempty"`
	MeetingSummary        *string                   `json:"meeting_summary,omitempty"`
	Goals                 *string                   `json:"goals,omitempty"`
	ImportantInfo         *string                   `json:"important_info,omitempty"`
	Notes                 *string                   `json:"notes,omitempty"`
	SummaryForMentor      *string                   `json:"summary_for_mentor,omitempty"`
	StrategyConsultant    models.StrategyConsultant `json:"strategy_consultant"`
}

// StrategyRow is one active enrollment in the strategy-meeting view.
type StrategyRow struct {
	StudentID          string                       `json:"student_id"`
	StudentName        string                       `json:"student_name"`
	Occupation         *string                      `json:"occupation,omitempty"`
	MentorName         *string                      `json:"mentor_name,omitempty"`
	StrategyConsultant models.StrategyConsultant    `json:"strategy_consultant"`
	Urgency            models.StrategyUrgency       `json:"urgency"`
	MeetingDate        *time.Time                   `json:"meeting_date,omitempty"`
	MeetingStatus      models.StrategyMeetingStatus `json:"meeting_status"`
}

// AttendanceCell holds one student/lesson intersection.
type AttendanceCell struct {
	LessonID string  `json:"lesson_id"`
	Present  bool    `json:"present"`
	Reason   *string `json:"reason,omitempty"`
}

// AttendanceRow is one student row across all lessons of the cycle.
type AttendanceRow struct {
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name"`
	Cells       []AttendanceCell `json:"cells"`
}

// LessonColumn identifies one lesson column of the attendance grid.
type LessonColumn struct {
	LessonID string `json:"lesson_id"`
	Title    string `json:"title"`
}

// AttendanceView is the full attendance grid for a course+cycle.
type AttendanceView struct {
	Lessons []LessonColumn  `json:"lessons"`
	Rows    []AttendanceRow `json:"rows"`
}

// HotlistRow surfaces an active enrollment that still owes money.
type HotlistRow struct {
	StudentID     string               `json:"student_id"`
	StudentName   string               `json:"student_name"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	DealAmount    float64              `json:"deal_amount"`
	PaidSoFar     float64              `json:"paid_so_far"`
	Balance       float64              `json:"balance"`
}

// RosterEntry pairs an active enrollment with its student for grid views.
type RosterEntry struct {
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
}

// SetAttendanceRequest upserts one attendance cell.
type SetAttendanceRequest struct {
	LessonID string  `json:"lesson_id" validate:"required"`
	Present  bool    `json:"present"`
	Reason   *string `json:"reason,omitempty"`
}
