package recurrence

import (
	"fmt"
	"strings"
	"time"

	"clinbook/internal/models"
)

// Encoding of a rule's repetition as persisted and transmitted:
// "FREQ=WEEKLY;BYDAY=MO;UNTIL=20240722" or "FREQ=MONTHLY;UNTIL=20241231".
// The expander itself never touches this form; parsing stays at the
// persistence boundary.

const untilLayout = "20060102"

var weekdayCodes = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

var codeWeekdays = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, len(weekdayCodes))
	for d, c := range weekdayCodes {
		m[c] = d
	}
	return m
}()

// Pattern is the structured form of an encoded rule string.
type Pattern struct {
	Frequency string
	ByDay     time.Weekday // weekly only; captured at rule creation
	HasByDay  bool
	Until     time.Time // zero means the rule is not expandable
}

// EncodeRule renders the persisted rule string for a rule.
func EncodeRule(rule models.RecurrenceRule) string {
	var b strings.Builder
	switch rule.Frequency {
	case models.FrequencyWeekly:
		b.WriteString("FREQ=WEEKLY")
		b.WriteString(";BYDAY=")
		b.WriteString(weekdayCodes[rule.StartDate.Weekday()])
	case models.FrequencyMonthly:
		b.WriteString("FREQ=MONTHLY")
	default:
		return ""
	}
	if !rule.UntilDate.IsZero() {
		b.WriteString(";UNTIL=")
		b.WriteString(rule.UntilDate.Format(untilLayout))
	}
	return b.String()
}

// ParsePattern parses an encoded rule string. Unknown fields are ignored,
// BYDAY is optional (monthly rules carry none), and a missing or malformed
// UNTIL leaves Until zero so the expander treats the rule as non-expandable.
func ParsePattern(s string) (Pattern, error) {
	var p Pattern
	for _, field := range strings.Split(s, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Pattern{}, fmt.Errorf("malformed rule field: %s", field)
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			switch strings.ToUpper(value) {
			case "WEEKLY":
				p.Frequency = models.FrequencyWeekly
			case "MONTHLY":
				p.Frequency = models.FrequencyMonthly
			default:
				return Pattern{}, fmt.Errorf("unknown frequency: %s", value)
			}
		case "BYDAY":
			day, ok := codeWeekdays[strings.ToUpper(value)]
			if !ok {
				return Pattern{}, fmt.Errorf("unknown weekday code: %s", value)
			}
			p.ByDay = day
			p.HasByDay = true
		case "UNTIL":
			until, err := time.Parse(untilLayout, value)
			if err != nil {
				continue
			}
			p.Until = until
		}
	}
	if p.Frequency == "" {
		return Pattern{}, fmt.Errorf("rule string missing FREQ: %s", s)
	}
	return p, nil
}
