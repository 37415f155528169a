package memory

import (
	"context"

	"github.com/bizex-academy/portal-api/internal/dto"
	"github.com/bizex-academy/portal-api/internal/models"
)

// WorkflowStore implements the workflow projection interface in memory.
type WorkflowStore struct {
	store *Store
}

// Onboarding returns the onboarding rows of one course+cycle.
func (w *WorkflowStore) Onboarding(ctx context.Context, courseID, cycleID string) ([]dto.OnboardingRow, error) {
	w.store.mu.RLock()
	defer w.store.mu.RUnlock()

	rows := []dto.OnboardingRow{}
	for _, e := range w.activeLocked(courseID, cycleID) {
		student := w.store.students[e.StudentID]
		row := dto.OnboardingRow{
			StudentID:             student.ID,
			StudentName:           student.FullName,
			Occupation:            e.Occupation,
			WelcomeMessageSent:    e.WelcomeMessageSent,
			IntroMeetingScheduled: e.IntroMeetingScheduled,
			OnboardingMeetingDate: e.OnboardingMeetingDate,
			MentorID:              e.MentorID,
			MeetingSummary:        e.MeetingSummary,
			Goals:                 e.Goals,
			ImportantInfo:         e.ImportantInfo,
			Notes:                 e.Notes,
			SummaryForMentor:      e.SummaryForMentor,
			StrategyConsultant:    e.StrategyConsultant,
		}
		if e.MentorID != nil {
			if mentor, ok := w.store.teamMembers[*e.MentorID]; ok {
				name := mentor.FullName
				row.MentorName = &name
			}
		}
		rows = append(rows, row)
	}
	sortByName(rows, func(r dto.OnboardingRow) string { return r.StudentName }, false)
	return rows, nil
}

// Strategy returns the strategy-meeting rows of one course+cycle.
func (w *WorkflowStore) Strategy(ctx context.Context, courseID, cycleID string) ([]dto.StrategyRow, error) {
	w.store.mu.RLock()
	defer w.store.mu.RUnlock()

	rows := []dto.StrategyRow{}
	for _, e := range w.activeLocked(courseID, cycleID) {
		student := w.store.students[e.StudentID]
		row := dto.StrategyRow{
			StudentID:          student.ID,
			StudentName:        student.FullName,
			Occupation:         e.Occupation,
			StrategyConsultant: e.StrategyConsultant,
			Urgency:            e.StrategyMeetingUrgency,
			MeetingDate:        e.StrategyMeetingDate,
			MeetingStatus:      e.StrategyMeetingStatus,
		}
		if e.MentorID != nil {
			if mentor, ok := w.store.teamMembers[*e.MentorID]; ok {
				name := mentor.FullName
				row.MentorName = &name
			}
		}
		rows = append(rows, row)
	}
	sortByName(rows, func(r dto.StrategyRow) string { return r.StudentName }, false)
	return rows, nil
}

// Hotlist returns active enrollments whose payment status is not FULLY_PAID.
func (w *WorkflowStore) Hotlist(ctx context.Context, courseID, cycleID string) ([]dto.HotlistRow, error) {
	w.store.mu.RLock()
	defer w.store.mu.RUnlock()

	rows := []dto.HotlistRow{}
	for _, e := range w.activeLocked(courseID, cycleID) {
		if e.PaymentStatus == models.PaymentStatusFullyPaid {
			continue
		}
		student := w.store.students[e.StudentID]
		var paid float64
		for _, payment := range w.store.payments[e.ID] {
			paid += payment.Amount
		}
		rows = append(rows, dto.HotlistRow{
			StudentID:     student.ID,
			StudentName:   student.FullName,
			Email:         student.Email,
			Phone:         student.Phone,
			PaymentStatus: e.PaymentStatus,
			DealAmount:    e.DealAmount,
			PaidSoFar:     paid,
			Balance:       e.DealAmount - paid,
		})
	}
	sortByName(rows, func(r dto.HotlistRow) string { return r.StudentName }, false)
	return rows, nil
}

// ActiveRoster returns (enrollment, student) pairs for active enrollments of
// one course+cycle.
func (w *WorkflowStore) ActiveRoster(ctx context.Context, courseID, cycleID string) ([]dto.RosterEntry, error) {
	w.store.mu.RLock()
	defer w.store.mu.RUnlock()

	entries := []dto.RosterEntry{}
	for _, e := range w.activeLocked(courseID, cycleID) {
		student := w.store.students[e.StudentID]
		entries = append(entries, dto.RosterEntry{
			EnrollmentID: e.ID,
			StudentID:    student.ID,
			StudentName:  student.FullName,
		})
	}
	sortByName(entries, func(r dto.RosterEntry) string { return r.StudentName }, false)
	return entries, nil
}

// ActiveEnrollmentStats returns the number of active enrollments and the sum
// of their unpaid balances.
func (w *WorkflowStore) ActiveEnrollmentStats(ctx context.Context) (int, float64, error) {
	w.store.mu.RLock()
	defer w.store.mu.RUnlock()

	var count int
	var outstanding float64
	for _, e := range w.store.enrollments {
		if e.Status != models.EnrollmentStatusActive {
			continue
		}
		count++
		var paid float64
		for _, payment := range w.store.payments[e.ID] {
			paid += payment.Amount
		}
		outstanding += e.DealAmount - paid
	}
	return count, outstanding, nil
}

func (w *WorkflowStore) activeLocked(courseID, cycleID string) []models.Enrollment {
	var active []models.Enrollment
	for _, e := range w.store.enrollments {
		if e.CourseID == courseID && e.CycleID == cycleID && e.Status == models.EnrollmentStatusActive {
			active = append(active, e)
		}
	}
	return active
}
