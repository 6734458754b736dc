// Package schedule defines the clinic operating-hours model: per-day hours
// with an optional lunch break, the weekly template, and per-date holiday
// overrides.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}

	return TimeOfDay(hour*60 + minute), nil
}

// MustParseTimeOfDay is ParseTimeOfDay that panics on error. Intended for
// constants and tests.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String formats the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// OnDate anchors the time of day on a calendar date in the date's location.
func (t TimeOfDay) OnDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

// FromTime extracts the time of day from a timestamp.
func FromTime(ts time.Time) TimeOfDay {
	return TimeOfDay(ts.Hour()*60 + ts.Minute())
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// DaySchedule is the operating policy for one weekday or one holiday
// override. Zero lunch values mean no lunch break is configured.
type DaySchedule struct {
	IsOpen     bool      `json:"is_open"`
	Start      TimeOfDay `json:"start"`
	End        TimeOfDay `json:"end"`
	LunchStart TimeOfDay `json:"lunch_start,omitempty"`
	LunchEnd   TimeOfDay `json:"lunch_end,omitempty"`
}

// HasLunch reports whether a usable lunch window is configured. An
// incomplete pair (one bound set, the other missing) counts as no lunch;
// schedule data arrives from an external editor and the read path degrades
// rather than fails.
func (d DaySchedule) HasLunch() bool {
	return d.LunchStart > 0 && d.LunchEnd > 0 && d.LunchStart < d.LunchEnd
}

// Validate checks the invariants enforced at the settings write boundary:
// an open day needs start < end, and a lunch window must be fully inside
// working hours with both bounds present.
func (d DaySchedule) Validate() error {
	if !d.IsOpen {
		return nil
	}
	if d.Start >= d.End {
		return fmt.Errorf("start %s must be before end %s", d.Start, d.End)
	}
	if d.LunchStart == 0 && d.LunchEnd == 0 {
		return nil
	}
	if d.LunchStart == 0 || d.LunchEnd == 0 {
		return fmt.Errorf("lunch window requires both bounds")
	}
	if d.LunchStart >= d.LunchEnd {
		return fmt.Errorf("lunch start %s must be before lunch end %s", d.LunchStart, d.LunchEnd)
	}
	if d.LunchStart < d.Start || d.LunchEnd > d.End {
		return fmt.Errorf("lunch window %s-%s outside working hours %s-%s",
			d.LunchStart, d.LunchEnd, d.Start, d.End)
	}
	return nil
}

// Weekly maps a weekday (time.Weekday, Sunday = 0) to its DaySchedule.
// Treated as an immutable snapshot per computation; days without an entry
// are closed.
type Weekly map[time.Weekday]DaySchedule

// Validate checks every configured day.
func (w Weekly) Validate() error {
	for day, d := range w {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	return nil
}

// HolidayException overrides the weekly template for one exact date.
// At most one exception may exist per date.
type HolidayException struct {
	Date time.Time   `json:"date"`
	Name string      `json:"name"`
	Day  DaySchedule `json:"day"`
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOnly truncates a timestamp to midnight in its location.
func DateOnly(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}

// EffectiveDay resolves the schedule for a date: an exception matching the
// exact date wins, otherwise the weekly template for that weekday applies.
func EffectiveDay(date time.Time, week Weekly, exceptions []HolidayException) DaySchedule {
	for _, ex := range exceptions {
		if SameDate(ex.Date, date) {
			return ex.Day
		}
	}
	return week[date.Weekday()]
}
