// Package agenda builds the visible appointment set for a date range:
// non-canceled single bookings merged with the instances generated from
// recurring rules.
package agenda

import (
	"sort"
	"strconv"
	"time"

	"clinbook/internal/models"
	"clinbook/internal/recurrence"
)

// Entry is one row of the agenda view. Exactly one of BookingID or
// RecurringRuleID is meaningful: generated instances route interactions to
// rule-level or instance-level actions instead of direct mutation.
type Entry struct {
	ID                  string    `json:"id"`
	BookingID           int64     `json:"booking_id,omitempty"`
	RecurringRuleID     int64     `json:"recurring_rule_id,omitempty"`
	UserID              int64     `json:"user_id"`
	ServiceID           int64     `json:"service_id"`
	ProfessionalID      int64     `json:"professional_id"`
	StartTime           time.Time `json:"start_time"`
	DurationMinutes     int       `json:"duration_minutes"`
	Status              string    `json:"status"`
	IsRecurringInstance bool      `json:"is_recurring_instance"`
}

// Build merges single bookings with expanded recurring instances for
// [rangeStart, rangeEnd], sorted by start time. Canceled bookings and
// suppression markers never appear; the same canceled rows feed the
// expander's exception set.
func Build(bookings []models.Booking, rules []models.RecurrenceRule, rangeStart, rangeEnd time.Time) []Entry {
	var entries []Entry

	for i := range bookings {
		b := &bookings[i]
		if b.Status == models.StatusCanceled {
			continue
		}
		if b.RecurringRuleID != 0 {
			// Rule-linked live rows are not rendered directly; the rule's
			// expansion owns their dates.
			continue
		}
		entries = append(entries, Entry{
			ID:              strconv.FormatInt(b.ID, 10),
			BookingID:       b.ID,
			UserID:          b.UserID,
			ServiceID:       b.ServiceID,
			ProfessionalID:  b.ProfessionalID,
			StartTime:       b.StartTime,
			DurationMinutes: b.DurationMinutes,
			Status:          b.Status,
		})
	}

	for _, inst := range recurrence.ExpandRecurringBookings(rules, bookings, rangeStart, rangeEnd) {
		entries = append(entries, Entry{
			ID:                  inst.ID,
			RecurringRuleID:     inst.RecurringRuleID,
			UserID:              inst.UserID,
			ServiceID:           inst.ServiceID,
			ProfessionalID:      inst.ProfessionalID,
			StartTime:           inst.StartTime,
			DurationMinutes:     inst.DurationMinutes,
			Status:              models.StatusConfirmed,
			IsRecurringInstance: true,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartTime.Equal(entries[j].StartTime) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].StartTime.Before(entries[j].StartTime)
	})

	return entries
}
