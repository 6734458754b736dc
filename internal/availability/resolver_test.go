package availability

import (
	"testing"
	"time"

	"clinbook/internal/schedule"
)

func mustTime(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	tod, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tod
}

func openDay(start, end, lunchStart, lunchEnd string) schedule.DaySchedule {
	d := schedule.DaySchedule{
		IsOpen: true,
		Start:  schedule.MustParseTimeOfDay(start),
		End:    schedule.MustParseTimeOfDay(end),
	}
	if lunchStart != "" {
		d.LunchStart = schedule.MustParseTimeOfDay(lunchStart)
		d.LunchEnd = schedule.MustParseTimeOfDay(lunchEnd)
	}
	return d
}

func weekAllDays(d schedule.DaySchedule) schedule.Weekly {
	week := make(schedule.Weekly, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		week[day] = d
	}
	return week
}

// 2024-07-01 is a Monday.
var testDate = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func TestComputeAvailableSlots(t *testing.T) {
	tests := []struct {
		name     string
		in       Input
		expected []string
	}{
		{
			name: "closed day yields nothing",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            weekAllDays(schedule.DaySchedule{IsOpen: false}),
			},
			expected: nil,
		},
		{
			name: "no professional yields nothing",
			in: Input{
				Date:            testDate,
				DurationMinutes: 30,
				Week:            weekAllDays(openDay("08:00", "12:00", "", "")),
			},
			expected: nil,
		},
		{
			name: "plain morning, 30 min service",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            weekAllDays(openDay("08:00", "10:00", "", "")),
			},
			expected: []string{"08:00", "08:30", "09:00", "09:30"},
		},
		{
			name: "appointment must fit before close",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 60,
				Week:            weekAllDays(openDay("08:00", "10:00", "", "")),
			},
			expected: []string{"08:00", "08:30", "09:00"},
		},
		{
			name: "lunch window blocks overlapping starts",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            weekAllDays(openDay("11:00", "14:00", "12:00", "13:00")),
			},
			expected: []string{"11:00", "11:30", "13:00", "13:30"},
		},
		{
			name: "incomplete lunch pair is ignored",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week: weekAllDays(schedule.DaySchedule{
					IsOpen:     true,
					Start:      schedule.MustParseTimeOfDay("11:00"),
					End:        schedule.MustParseTimeOfDay("13:00"),
					LunchStart: schedule.MustParseTimeOfDay("12:00"),
				}),
			},
			expected: []string{"11:00", "11:30", "12:00", "12:30"},
		},
		{
			name: "occupied slot removed for same professional",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            weekAllDays(openDay("14:00", "16:00", "", "")),
				Occupied: []OccupiedSlot{
					{BookingID: 7, ProfessionalID: 1, Start: schedule.MustParseTimeOfDay("14:00"), DurationMinutes: 30},
				},
			},
			expected: []string{"14:30", "15:00", "15:30"},
		},
		{
			name: "other professional's booking does not block",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            weekAllDays(openDay("14:00", "15:00", "", "")),
				Occupied: []OccupiedSlot{
					{BookingID: 7, ProfessionalID: 2, Start: schedule.MustParseTimeOfDay("14:00"), DurationMinutes: 30},
				},
			},
			expected: []string{"14:00", "14:30"},
		},
		{
			name: "ignored booking frees its own slot for reschedule",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            weekAllDays(openDay("14:00", "15:00", "", "")),
				Occupied: []OccupiedSlot{
					{BookingID: 7, ProfessionalID: 1, Start: schedule.MustParseTimeOfDay("14:00"), DurationMinutes: 30},
				},
				IgnoreBookingID: 7,
			},
			expected: []string{"14:00", "14:30"},
		},
		{
			name: "long service straddling an occupied interval",
			in: Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 60,
				Week:            weekAllDays(openDay("14:00", "17:00", "", "")),
				Occupied: []OccupiedSlot{
					{BookingID: 9, ProfessionalID: 1, Start: schedule.MustParseTimeOfDay("15:00"), DurationMinutes: 30},
				},
			},
			// 14:00-15:00 hits 15:00? no, half-open. 14:30-15:30 and
			// 15:00-16:00 overlap the booking.
			expected: []string{"14:00", "15:30", "16:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := ComputeAvailableSlots(tt.in)

			if len(slots) != len(tt.expected) {
				t.Fatalf("expected %d slots, got %d: %v", len(tt.expected), len(slots), slots)
			}
			for i, want := range tt.expected {
				if slots[i].String() != want {
					t.Errorf("slot %d: expected %s, got %s", i, want, slots[i])
				}
			}
		})
	}
}

func TestComputeAvailableSlots_FullDayWithLunch(t *testing.T) {
	// Clinic open 08:00-20:00 with lunch 12:00-13:00, 90 minute service.
	in := Input{
		Date:            testDate,
		ProfessionalID:  1,
		DurationMinutes: 90,
		Week:            weekAllDays(openDay("08:00", "20:00", "12:00", "13:00")),
	}

	slots := ComputeAvailableSlots(in)
	set := make(map[string]bool, len(slots))
	for _, s := range slots {
		set[s.String()] = true
	}

	// 10:30 ends exactly at lunch start, allowed.
	if !set["10:30"] {
		t.Error("10:30 should be available (ends 12:00, touching lunch start)")
	}
	// 11:00 ends 12:30, inside lunch.
	if set["11:00"] {
		t.Error("11:00 should be excluded (ends 12:30, overlaps lunch)")
	}
	if !set["13:00"] {
		t.Error("13:00 should be available (ends 14:30)")
	}
	// 19:30 ends 21:00, past close.
	if set["19:30"] {
		t.Error("19:30 should be excluded (ends past closing time)")
	}

	for _, s := range slots {
		end := s.Add(90)
		if s < schedule.MustParseTimeOfDay("08:00") || end > schedule.MustParseTimeOfDay("20:00") {
			t.Errorf("slot %s overhangs working hours", s)
		}
	}
}

func TestComputeAvailableSlots_HolidayOverride(t *testing.T) {
	week := weekAllDays(openDay("08:00", "18:00", "", ""))

	tests := []struct {
		name      string
		exception schedule.HolidayException
		expected  int
	}{
		{
			name: "closed holiday overrides open weekday",
			exception: schedule.HolidayException{
				Date: testDate,
				Name: "clinic holiday",
				Day:  schedule.DaySchedule{IsOpen: false},
			},
			expected: 0,
		},
		{
			name: "reduced hours holiday",
			exception: schedule.HolidayException{
				Date: testDate,
				Name: "half day",
				Day:  openDay("08:00", "12:00", "", ""),
			},
			expected: 8,
		},
		{
			name: "exception on another date has no effect",
			exception: schedule.HolidayException{
				Date: testDate.AddDate(0, 0, 1),
				Name: "tomorrow",
				Day:  schedule.DaySchedule{IsOpen: false},
			},
			expected: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := ComputeAvailableSlots(Input{
				Date:            testDate,
				ProfessionalID:  1,
				DurationMinutes: 30,
				Week:            week,
				Exceptions:      []schedule.HolidayException{tt.exception},
			})
			if len(slots) != tt.expected {
				t.Errorf("expected %d slots, got %d", tt.expected, len(slots))
			}
		})
	}
}

func TestComputeAvailableSlots_Idempotent(t *testing.T) {
	in := Input{
		Date:            testDate,
		ProfessionalID:  3,
		DurationMinutes: 45,
		Week:            weekAllDays(openDay("09:00", "18:00", "12:30", "13:30")),
		Occupied: []OccupiedSlot{
			{BookingID: 1, ProfessionalID: 3, Start: mustTime(t, "10:00"), DurationMinutes: 45},
			{BookingID: 2, ProfessionalID: 3, Start: mustTime(t, "15:30"), DurationMinutes: 30},
		},
	}

	first := ComputeAvailableSlots(in)
	second := ComputeAvailableSlots(in)

	if len(first) != len(second) {
		t.Fatalf("expected identical results, got %d and %d slots", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs between runs: %s vs %s", i, first[i], second[i])
		}
	}

	for i := 1; i < len(first); i++ {
		if first[i] <= first[i-1] {
			t.Errorf("slots not in ascending order at %d: %s after %s", i, first[i], first[i-1])
		}
	}

	for _, s := range first {
		for _, occ := range in.Occupied {
			if schedule.Overlaps(s, s.Add(45), occ.Start, occ.End()) {
				t.Errorf("slot %s overlaps occupied interval at %s", s, occ.Start)
			}
		}
	}
}
