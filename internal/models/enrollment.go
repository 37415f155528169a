package models

import "time"

// EnrollmentStatus is a soft-delete flag: canceled enrollments are excluded
// from workflow projections but retain full history and can be reinstated.
type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCanceled EnrollmentStatus = "CANCELED"
)

// PaymentStatus is the manually maintained payment stage of an enrollment.
// It is stored independently from the computed balance; writes are validated
// against the ledger to keep the two from drifting apart.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusDepositPaid   PaymentStatus = "DEPOSIT_PAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusFullyPaid     PaymentStatus = "FULLY_PAID"
)

// Valid returns true when the status is a supported value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusDepositPaid, PaymentStatusPartiallyPaid, PaymentStatusFullyPaid:
		return true
	default:
		return false
	}
}

// StrategyConsultant selects which consultant runs the strategy meeting.
type StrategyConsultant string

const (
	StrategyConsultantA    StrategyConsultant = "CONSULTANT_A"
	StrategyConsultantB    StrategyConsultant = "CONSULTANT_B"
	StrategyConsultantNone StrategyConsultant = ""
)

// Valid returns true when the consultant is a supported value.
func (c StrategyConsultant) Valid() bool {
	switch c {
	case StrategyConsultantA, StrategyConsultantB, StrategyConsultantNone:
		return true
	default:
		return false
	}
}

// StrategyUrgency ranks how soon the strategy meeting must happen.
type StrategyUrgency string

const (
	StrategyUrgencyVeryUrgent     StrategyUrgency = "VERY_URGENT"
	StrategyUrgencySecondPriority StrategyUrgency = "SECOND_PRIORITY"
	StrategyUrgencyNotUrgent      StrategyUrgency = "NOT_URGENT"
	StrategyUrgencyNone           StrategyUrgency = ""
)

// Valid returns true when the urgency is a supported value.
func (u StrategyUrgency) Valid() bool {
	switch u {
	case StrategyUrgencyVeryUrgent, StrategyUrgencySecondPriority, StrategyUrgencyNotUrgent, StrategyUrgencyNone:
		return true
	default:
		return false
	}
}

// StrategyMeetingStatus tracks the scheduling state of the strategy meeting.
type StrategyMeetingStatus string

const (
	StrategyMeetingNotScheduled StrategyMeetingStatus = "NOT_SCHEDULED"
	StrategyMeetingScheduled    StrategyMeetingStatus = "SCHEDULED"
	StrategyMeetingAwaiting     StrategyMeetingStatus = "AWAITING_CONFIRMATION"
	StrategyMeetingPostponed    StrategyMeetingStatus = "TO_BE_POSTPONED"
	StrategyMeetingNone         StrategyMeetingStatus = ""
)

// Valid returns true when the meeting status is a supported value.
func (s StrategyMeetingStatus) Valid() bool {
	switch s {
	case StrategyMeetingNotScheduled, StrategyMeetingScheduled, StrategyMeetingAwaiting, StrategyMeetingPostponed, StrategyMeetingNone:
		return true
	default:
		return false
	}
}

// Enrollment is the join entity linking one student to one course+cycle,
// carrying mentor assignment, financial bookkeeping and workflow state.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	CourseID      string           `db:"course_id" json:"course_id"`
	CycleID       string           `db:"cycle_id" json:"cycle_id"`
	MentorID      *string          `db:"mentor_id" json:"mentor_id,omitempty"`
	SalespersonID *string          `db:"salesperson_id" json:"salesperson_id,omitempty"`
	Status        EnrollmentStatus `db:"status" json:"status"`

	DealAmount    float64       `db:"deal_amount" json:"deal_amount"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`

	Occupation            *string    `db:"occupation" json:"occupation,omitempty"`
	WelcomeMessageSent    bool       `db:"welcome_message_sent" json:"welcome_message_sent"`
	IntroMeetingScheduled bool       `db:"intro_meeting_scheduled" json:"intro_meeting_scheduled"`
	OnboardingMeetingDate *time.Time `db:"onboarding_meeting_date" json:"onboarding_meeting_date,omitempty"`
	MeetingSummary        *string    `db:"meeting_summary" json:"meeting_summary,omitempty"`
	Goals                 *string    `db:"goals" json:"goals,omitempty"`
	ImportantInfo         *string    `db:"important_info" json:"important_info,omitempty"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	SummaryForMentor      *string    `db:"summary_for_mentor" json:"summary_for_mentor,omitempty"`

	StrategyConsultant     StrategyConsultant    `db:"strategy_consultant" json:"strategy_consultant"`
	StrategyMeetingUrgency StrategyUrgency       `db:"strategy_meeting_urgency" json:"strategy_meeting_urgency"`
	StrategyMeetingDate    *time.Time            `db:"strategy_meeting_date" json:"strategy_meeting_date,omitempty"`
	StrategyMeetingStatus  StrategyMeetingStatus `db:"strategy_meeting_status" json:"strategy_meeting_status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EnrollmentLedger is the enrollment with its payment history and the derived
// financial fields. Balance is always computed, never stored.
type EnrollmentLedger struct {
	Enrollment
	Payments  []Payment `json:"payments"`
	PaidSoFar float64   `json:"paid_so_far"`
	Balance   float64   `json:"balance"`
}

// Recompute refreshes PaidSoFar and Balance from the payment rows.
func (l *EnrollmentLedger) Recompute() {
	var paid float64
	for _, p := range l.Payments {
		paid += p.Amount
	}
	l.PaidSoFar = paid
	l.Balance = l.DealAmount - paid
}

// EnrollmentDetail enriches an enrollment with resolved reference names.
type EnrollmentDetail struct {
	Enrollment
	StudentName string  `db:"student_name" json:"student_name"`
	CourseName  string  `db:"course_name" json:"course_name"`
	CycleName   string  `db:"cycle_name" json:"cycle_name"`
	MentorName  *string `db:"mentor_name" json:"mentor_name,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	CycleID   string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
