// Package availability computes bookable start times for one professional
// on one date. The resolver is a pure function over immutable snapshots of
// the clinic schedule and the day's existing bookings; all I/O belongs to
// the caller.
package availability

import (
	"time"

	"clinbook/internal/schedule"
)

// SlotGranularityMinutes is the fixed spacing between candidate start times.
const SlotGranularityMinutes = 30

// OccupiedSlot is the interval consumed by one already-scheduled booking on
// the resolved date, derived from persisted bookings.
type OccupiedSlot struct {
	BookingID       int64
	ProfessionalID  int64
	Start           schedule.TimeOfDay
	DurationMinutes int
}

// End returns the exclusive end of the occupied interval.
func (o OccupiedSlot) End() schedule.TimeOfDay {
	return o.Start.Add(o.DurationMinutes)
}

// Input bundles one resolver call. Date carries the calendar day being
// queried; IgnoreBookingID (zero when unset) exempts one booking from the
// occupancy check so a reschedule does not collide with itself.
type Input struct {
	Date            time.Time
	ProfessionalID  int64
	DurationMinutes int
	Week            schedule.Weekly
	Exceptions      []schedule.HolidayException
	Occupied        []OccupiedSlot
	IgnoreBookingID int64
}

// ComputeAvailableSlots returns the ordered bookable start times for the
// input. Closed days, unknown professionals and schedules without hours all
// yield an empty list; malformed data degrades, it never errors.
func ComputeAvailableSlots(in Input) []schedule.TimeOfDay {
	if in.ProfessionalID == 0 {
		return nil
	}

	day := schedule.EffectiveDay(in.Date, in.Week, in.Exceptions)
	if !day.IsOpen || day.Start >= day.End {
		return nil
	}

	hasLunch := day.HasLunch()

	var slots []schedule.TimeOfDay
	for cursor := day.Start; cursor < day.End; cursor = cursor.Add(SlotGranularityMinutes) {
		end := cursor.Add(in.DurationMinutes)

		// The appointment must fit entirely within working hours.
		if end > day.End {
			continue
		}

		if hasLunch && schedule.Overlaps(cursor, end, day.LunchStart, day.LunchEnd) {
			continue
		}

		if isOccupied(cursor, end, in) {
			continue
		}

		slots = append(slots, cursor)
	}

	return slots
}

func isOccupied(start, end schedule.TimeOfDay, in Input) bool {
	for _, occ := range in.Occupied {
		if occ.ProfessionalID != in.ProfessionalID {
			continue
		}
		if in.IgnoreBookingID != 0 && occ.BookingID == in.IgnoreBookingID {
			continue
		}
		if schedule.Overlaps(start, end, occ.Start, occ.End()) {
			return true
		}
	}
	return false
}
