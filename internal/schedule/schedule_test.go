package schedule

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{input: "09:00", expected: "09:00"},
		{input: "9:05", expected: "09:05"},
		{input: "23:59", expected: "23:59"},
		{input: "00:00", expected: "00:00"},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "12", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tod, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %s", tt.input, tod)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tod.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tod)
			}
		})
	}
}

func TestTimeOfDay_OnDate(t *testing.T) {
	d := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	ts := MustParseTimeOfDay("14:30").OnDate(d)

	if ts.Hour() != 14 || ts.Minute() != 30 {
		t.Errorf("unexpected time: %s", ts)
	}
	if !SameDate(ts, d) {
		t.Errorf("OnDate changed the date: %s", ts)
	}
	if got := FromTime(ts); got != MustParseTimeOfDay("14:30") {
		t.Errorf("FromTime round trip failed: %s", got)
	}
}

func TestOverlaps(t *testing.T) {
	h := func(s string) TimeOfDay { return MustParseTimeOfDay(s) }

	tests := []struct {
		name     string
		aStart   string
		aEnd     string
		bStart   string
		bEnd     string
		expected bool
	}{
		{"disjoint", "09:00", "10:00", "11:00", "12:00", false},
		{"touching boundaries do not overlap", "09:00", "10:00", "10:00", "11:00", false},
		{"partial overlap", "09:00", "10:30", "10:00", "11:00", true},
		{"containment", "09:00", "12:00", "10:00", "11:00", true},
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(h(tt.aStart), h(tt.aEnd), h(tt.bStart), h(tt.bEnd))
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			// Overlap is symmetric.
			if rev := Overlaps(h(tt.bStart), h(tt.bEnd), h(tt.aStart), h(tt.aEnd)); rev != got {
				t.Errorf("overlap not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestDaySchedule_Validate(t *testing.T) {
	h := MustParseTimeOfDay

	tests := []struct {
		name    string
		day     DaySchedule
		wantErr bool
	}{
		{"closed day always valid", DaySchedule{IsOpen: false}, false},
		{"open day with hours", DaySchedule{IsOpen: true, Start: h("08:00"), End: h("18:00")}, false},
		{"start after end", DaySchedule{IsOpen: true, Start: h("18:00"), End: h("08:00")}, true},
		{"open without hours", DaySchedule{IsOpen: true}, true},
		{
			"valid lunch",
			DaySchedule{IsOpen: true, Start: h("08:00"), End: h("18:00"), LunchStart: h("12:00"), LunchEnd: h("13:00")},
			false,
		},
		{
			"lunch start only",
			DaySchedule{IsOpen: true, Start: h("08:00"), End: h("18:00"), LunchStart: h("12:00")},
			true,
		},
		{
			"inverted lunch",
			DaySchedule{IsOpen: true, Start: h("08:00"), End: h("18:00"), LunchStart: h("13:00"), LunchEnd: h("12:00")},
			true,
		},
		{
			"lunch outside hours",
			DaySchedule{IsOpen: true, Start: h("08:00"), End: h("12:00"), LunchStart: h("12:00"), LunchEnd: h("13:00")},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.day.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDaySchedule_HasLunch(t *testing.T) {
	h := MustParseTimeOfDay

	if (DaySchedule{LunchStart: h("12:00"), LunchEnd: h("13:00")}).HasLunch() != true {
		t.Error("complete lunch pair should count")
	}
	if (DaySchedule{LunchStart: h("12:00")}).HasLunch() {
		t.Error("incomplete lunch pair must be ignored")
	}
	if (DaySchedule{LunchStart: h("13:00"), LunchEnd: h("12:00")}).HasLunch() {
		t.Error("inverted lunch pair must be ignored")
	}
	if (DaySchedule{}).HasLunch() {
		t.Error("no lunch configured")
	}
}

func TestEffectiveDay(t *testing.T) {
	monday := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	weekdayHours := DaySchedule{IsOpen: true, Start: MustParseTimeOfDay("08:00"), End: MustParseTimeOfDay("18:00")}
	week := Weekly{time.Monday: weekdayHours}

	t.Run("falls back to weekly template", func(t *testing.T) {
		day := EffectiveDay(monday, week, nil)
		if !day.IsOpen || day.Start != weekdayHours.Start {
			t.Errorf("expected weekday template, got %+v", day)
		}
	})

	t.Run("exception wins on exact date", func(t *testing.T) {
		ex := HolidayException{Date: monday, Name: "holiday", Day: DaySchedule{IsOpen: false}}
		day := EffectiveDay(monday, week, []HolidayException{ex})
		if day.IsOpen {
			t.Error("holiday exception should close the day")
		}
	})

	t.Run("unconfigured weekday is closed", func(t *testing.T) {
		sunday := monday.AddDate(0, 0, -1)
		day := EffectiveDay(sunday, week, nil)
		if day.IsOpen {
			t.Error("missing weekday entry should be closed")
		}
	})
}
