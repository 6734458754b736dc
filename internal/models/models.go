// Package models holds the persistent domain records shared across layers.
package models

import (
	"time"

	"clinbook/internal/schedule"
)

// Booking statuses. A canceled row that carries a RecurringRuleID is a
// suppression marker for one generated instance and is never rendered.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

// Recurrence rule statuses. Suspended and Completed are terminal: a rule
// never transitions back to active, reactivation means a new rule.
const (
	RuleStatusActive    = "active"
	RuleStatusSuspended = "suspended"
	RuleStatusCompleted = "completed"
)

// Recurrence frequencies.
const (
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Booking is a scheduled appointment. RecurringRuleID is zero for plain
// bookings; non-zero links the row to the rule that produced or suppresses it.
type Booking struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ProfessionalID  int64     `json:"professional_id"`
	ServiceID       int64     `json:"service_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	RecurringRuleID int64     `json:"recurring_rule_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EndTime returns the exclusive end of the occupied interval.
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsSuppressionMarker reports whether this row exists only to cancel a
// single instance of a recurring rule.
func (b *Booking) IsSuppressionMarker() bool {
	return b.Status == StatusCanceled && b.RecurringRuleID != 0
}

// RecurrenceRule is a template that generates repeating appointment
// instances until UntilDate. Mutated only by cancellation.
type RecurrenceRule struct {
	ID              int64              `json:"id"`
	UserID          int64              `json:"user_id"`
	ServiceID       int64              `json:"service_id"`
	ProfessionalID  int64              `json:"professional_id"`
	StartDate       time.Time          `json:"start_date"`
	StartTime       schedule.TimeOfDay `json:"start_time"`
	DurationMinutes int                `json:"duration_minutes"`
	Frequency       string             `json:"frequency"`
	UntilDate       time.Time          `json:"until_date"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// GeneratedInstance is a synthetic, non-persisted booking produced by
// expanding a recurrence rule. The ID is deterministic for a given
// (rule, timestamp) pair so repeated expansions are stable.
type GeneratedInstance struct {
	ID                  string    `json:"id"`
	RecurringRuleID     int64     `json:"recurring_rule_id"`
	UserID              int64     `json:"user_id"`
	ServiceID           int64     `json:"service_id"`
	ProfessionalID      int64     `json:"professional_id"`
	StartTime           time.Time `json:"start_time"`
	DurationMinutes     int       `json:"duration_minutes"`
	IsRecurringInstance bool      `json:"is_recurring_instance"`
}

// Professional is a clinic staff member appointments are attributed to.
type Professional struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is a bookable procedure with a fixed duration.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
