// Package recurrence expands recurring-booking rules into concrete calendar
// instances for a view range, honoring per-instance cancellations. Like the
// availability resolver it is pure: inputs are immutable snapshots fetched
// by the caller.
package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinbook/internal/models"
	"clinbook/internal/schedule"
)

// instanceNamespace seeds the deterministic instance IDs. Stable IDs keep
// repeated expansions of the same range byte-identical for UI diffing.
var instanceNamespace = uuid.MustParse("8f1c2a54-9d3e-4b7a-b1f0-6c5d4e3f2a19")

// InstanceID derives the synthetic booking ID for one occurrence of a rule.
func InstanceID(ruleID int64, start time.Time) string {
	name := fmt.Sprintf("%d|%s", ruleID, start.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(instanceNamespace, []byte(name)).String()
}

// exceptionKey identifies one individually canceled instance.
type exceptionKey struct {
	ruleID  int64
	date    string // YYYY-MM-DD
	minutes schedule.TimeOfDay
}

func keyFor(ruleID int64, ts time.Time) exceptionKey {
	return exceptionKey{
		ruleID:  ruleID,
		date:    ts.Format("2006-01-02"),
		minutes: schedule.FromTime(ts),
	}
}

// ExceptionSet collects the (rule, date, time) triples whose instances are
// suppressed. In storage these are canceled booking rows tagged with the
// rule ID; here they are just a set.
type ExceptionSet map[exceptionKey]struct{}

// BuildExceptionSet extracts suppression markers from existing bookings.
func BuildExceptionSet(bookings []models.Booking) ExceptionSet {
	set := make(ExceptionSet)
	for i := range bookings {
		if bookings[i].IsSuppressionMarker() {
			set[keyFor(bookings[i].RecurringRuleID, bookings[i].StartTime)] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the instance at start for ruleID is suppressed.
func (s ExceptionSet) Contains(ruleID int64, start time.Time) bool {
	_, ok := s[keyFor(ruleID, start)]
	return ok
}

// ExpandRecurringBookings generates the concrete instances of all active
// rules that fall inside [rangeStart, rangeEnd]. One malformed rule
// generates nothing for itself without affecting the others.
func ExpandRecurringBookings(rules []models.RecurrenceRule, existing []models.Booking, rangeStart, rangeEnd time.Time) []models.GeneratedInstance {
	exceptions := BuildExceptionSet(existing)

	var instances []models.GeneratedInstance
	for i := range rules {
		instances = append(instances, expandRule(&rules[i], exceptions, rangeStart, rangeEnd)...)
	}
	return instances
}

func expandRule(rule *models.RecurrenceRule, exceptions ExceptionSet, rangeStart, rangeEnd time.Time) []models.GeneratedInstance {
	if rule.Status != models.RuleStatusActive {
		return nil
	}
	// Missing until date or duration marks the rule non-expandable, not an error.
	if rule.UntilDate.IsZero() || rule.StartDate.IsZero() || rule.DurationMinutes <= 0 {
		return nil
	}

	windowStart := schedule.DateOnly(rangeStart)
	if ruleStart := schedule.DateOnly(rule.StartDate); ruleStart.After(windowStart) {
		windowStart = ruleStart
	}
	windowEnd := schedule.DateOnly(rangeEnd)
	if ruleEnd := schedule.DateOnly(rule.UntilDate); ruleEnd.Before(windowEnd) {
		windowEnd = ruleEnd
	}
	if windowStart.After(windowEnd) {
		return nil
	}

	var dates []time.Time
	switch rule.Frequency {
	case models.FrequencyWeekly:
		dates = weeklyDates(rule.StartDate.Weekday(), windowStart, windowEnd)
	case models.FrequencyMonthly:
		dates = monthlyDates(rule.StartDate.Day(), windowStart, windowEnd)
	default:
		return nil
	}

	var instances []models.GeneratedInstance
	for _, date := range dates {
		start := rule.StartTime.OnDate(date)
		if exceptions.Contains(rule.ID, start) {
			continue
		}
		instances = append(instances, models.GeneratedInstance{
			ID:                  InstanceID(rule.ID, start),
			RecurringRuleID:     rule.ID,
			UserID:              rule.UserID,
			ServiceID:           rule.ServiceID,
			ProfessionalID:      rule.ProfessionalID,
			StartTime:           start,
			DurationMinutes:     rule.DurationMinutes,
			IsRecurringInstance: true,
		})
	}
	return instances
}

// weeklyDates returns every date in [start, end] on the given weekday,
// stepping seven days from the first match.
func weeklyDates(day time.Weekday, start, end time.Time) []time.Time {
	first := start
	for first.Weekday() != day {
		first = first.AddDate(0, 0, 1)
	}

	var dates []time.Time
	for d := first; !d.After(end); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// monthlyDates returns every date in [start, end] whose day-of-month equals
// the anchor. Months shorter than the anchor day are skipped entirely: an
// anchor-31 rule produces nothing in April rather than sliding to May 1 or
// clamping to April 30.
func monthlyDates(anchorDay int, start, end time.Time) []time.Time {
	var dates []time.Time

	year, month := start.Year(), start.Month()
	for {
		candidate := time.Date(year, month, anchorDay, 0, 0, 0, 0, start.Location())
		// time.Date normalizes day overflow into the next month, which is
		// how a too-short month is detected.
		if candidate.Day() == anchorDay && candidate.Month() == month {
			if candidate.After(end) {
				break
			}
			if !candidate.Before(start) {
				dates = append(dates, candidate)
			}
		} else if time.Date(year, month, 1, 0, 0, 0, 0, start.Location()).After(end) {
			break
		}

		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return dates
}
