// Package service orchestrates the booking workflows: availability queries,
// booking writes with the authoritative slot re-check, recurring rule
// management and agenda assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"clinbook/internal/agenda"
	"clinbook/internal/availability"
	"clinbook/internal/cache"
	"clinbook/internal/db"
	"clinbook/internal/events"
	"clinbook/internal/metrics"
	"clinbook/internal/models"
	"clinbook/internal/schedule"
)

// ErrInvalid marks caller contract violations (bad duration, missing
// professional, inverted dates). The API boundary maps it to 400.
var ErrInvalid = errors.New("invalid input")

// Repository is the persistence surface the service needs.
type Repository interface {
	WeeklySchedule(ctx context.Context) (schedule.Weekly, error)
	HolidayExceptions(ctx context.Context, from, to time.Time) ([]schedule.HolidayException, error)
	OccupiedSlots(ctx context.Context, professionalID int64, date time.Time) ([]availability.OccupiedSlot, error)

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	BookingsInRange(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	CreateBookingChecked(ctx context.Context, b *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, status string) error

	GetRule(ctx context.Context, id int64) (*models.RecurrenceRule, error)
	ListRules(ctx context.Context) ([]models.RecurrenceRule, error)
	CreateRule(ctx context.Context, rule *models.RecurrenceRule) error
	CancelRule(ctx context.Context, id int64) error
	InsertSuppressionMarker(ctx context.Context, rule *models.RecurrenceRule, start time.Time) error

	ListProfessionals(ctx context.Context) ([]models.Professional, error)
	ListServices(ctx context.Context) ([]models.Service, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SlotCache caches computed day availability.
type SlotCache interface {
	GetSlots(ctx context.Context, professionalID int64, date time.Time, durationMinutes int) ([]schedule.TimeOfDay, error)
	SetSlots(ctx context.Context, professionalID int64, date time.Time, durationMinutes int, slots []schedule.TimeOfDay)
	InvalidateDay(ctx context.Context, professionalID int64, date time.Time)
}

// Rules bounds how far ahead bookings may be placed.
type Rules struct {
	MinAdvance time.Duration
	MaxAdvance time.Duration
}

// BookingService is the write-side and query-side orchestrator.
type BookingService struct {
	repo   Repository
	cache  SlotCache
	bus    EventPublisher
	rules  Rules
	logger *zerolog.Logger
	now    func() time.Time
}

// New creates a BookingService.
func New(repo Repository, slotCache SlotCache, bus EventPublisher, rules Rules, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:   repo,
		cache:  slotCache,
		bus:    bus,
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// AvailableSlots computes the bookable start times for a professional, date
// and service duration. ignoreBookingID (zero when unset) supports the
// reschedule flow. Upstream fetch failures propagate as errors so callers
// can distinguish "closed" from "could not load".
func (s *BookingService) AvailableSlots(ctx context.Context, professionalID int64, date time.Time, durationMinutes int, ignoreBookingID int64) ([]schedule.TimeOfDay, error) {
	if professionalID == 0 {
		return nil, fmt.Errorf("%w: professional is required", ErrInvalid)
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}

	// Reschedule queries bypass the cache: their slot list depends on the
	// ignored booking, not just the day.
	cacheable := ignoreBookingID == 0 && s.cache != nil
	if cacheable {
		if slots, err := s.cache.GetSlots(ctx, professionalID, date, durationMinutes); err == nil {
			metrics.IncAvailability("cache")
			return slots, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Msg("availability cache lookup failed")
		}
	}

	week, err := s.repo.WeeklySchedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load weekly schedule: %w", err)
	}
	exceptions, err := s.repo.HolidayExceptions(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("load holiday exceptions: %w", err)
	}
	occupied, err := s.repo.OccupiedSlots(ctx, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("load occupied slots: %w", err)
	}

	slots := availability.ComputeAvailableSlots(availability.Input{
		Date:            date,
		ProfessionalID:  professionalID,
		DurationMinutes: durationMinutes,
		Week:            week,
		Exceptions:      exceptions,
		Occupied:        occupied,
		IgnoreBookingID: ignoreBookingID,
	})
	metrics.IncAvailability("computed")

	if cacheable {
		s.cache.SetSlots(ctx, professionalID, date, durationMinutes, slots)
	}
	return slots, nil
}

// ValidateBookingTime checks the advance-booking window.
func (s *BookingService) ValidateBookingTime(start time.Time) error {
	now := s.now()
	if s.rules.MinAdvance > 0 && start.Before(now.Add(s.rules.MinAdvance)) {
		return fmt.Errorf("%w: booking must be at least %s ahead", ErrInvalid, s.rules.MinAdvance)
	}
	if s.rules.MaxAdvance > 0 && start.After(now.Add(s.rules.MaxAdvance)) {
		return fmt.Errorf("%w: booking too far ahead (max %s)", ErrInvalid, s.rules.MaxAdvance)
	}
	return nil
}

// CreateBooking validates and persists a booking. The write re-checks the
// slot against the live occupied set; db.ErrSlotTaken propagates unchanged
// so callers can surface the retryable conflict.
func (s *BookingService) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.ProfessionalID == 0 {
		return fmt.Errorf("%w: professional is required", ErrInvalid)
	}
	if b.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if err := s.ValidateBookingTime(b.StartTime); err != nil {
		return err
	}
	if b.Status == "" {
		b.Status = models.StatusPending
	}

	if err := s.repo.CreateBookingChecked(ctx, b); err != nil {
		if errors.Is(err, db.ErrSlotTaken) {
			metrics.IncBookingConflict()
		}
		return err
	}

	metrics.IncBookingCreated(b.Status)
	if s.cache != nil {
		s.cache.InvalidateDay(ctx, b.ProfessionalID, b.StartTime)
	}
	if err := s.bus.PublishJSON(events.TypeBookingCreated, b); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("publish booking created")
	}

	s.logger.Info().
		Int64("booking_id", b.ID).
		Int64("professional_id", b.ProfessionalID).
		Time("start", b.StartTime).
		Msg("booking created")
	return nil
}

// CancelBooking cancels a single booking.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) error {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == models.StatusCanceled {
		return nil
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, models.StatusCanceled); err != nil {
		return err
	}

	metrics.IncBookingCanceled()
	if s.cache != nil {
		s.cache.InvalidateDay(ctx, b.ProfessionalID, b.StartTime)
	}
	if err := s.bus.PublishJSON(events.TypeBookingCanceled, b); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", id).Msg("publish booking canceled")
	}
	return nil
}

// CreateRecurring validates and persists a recurrence rule.
func (s *BookingService) CreateRecurring(ctx context.Context, rule *models.RecurrenceRule) error {
	if rule.ProfessionalID == 0 {
		return fmt.Errorf("%w: professional is required", ErrInvalid)
	}
	if rule.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if rule.Frequency != models.FrequencyWeekly && rule.Frequency != models.FrequencyMonthly {
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalid, rule.Frequency)
	}
	if rule.StartDate.IsZero() || rule.UntilDate.IsZero() {
		return fmt.Errorf("%w: start and until dates are required", ErrInvalid)
	}
	if rule.UntilDate.Before(rule.StartDate) {
		return fmt.Errorf("%w: until date before start date", ErrInvalid)
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return err
	}

	metrics.IncRuleAction("created")
	if err := s.bus.PublishJSON(events.TypeRuleCreated, rule); err != nil {
		s.logger.Warn().Err(err).Int64("rule_id", rule.ID).Msg("publish rule created")
	}
	return nil
}

// CancelRecurring transitions a whole rule out of the active state. The
// transition is terminal; generated instances disappear from future
// expansions while individually canceled dates stay recorded.
func (s *BookingService) CancelRecurring(ctx context.Context, id int64) error {
	if err := s.repo.CancelRule(ctx, id); err != nil {
		return err
	}

	metrics.IncRuleAction("canceled")
	if err := s.bus.PublishJSON(events.TypeRuleCanceled, map[string]int64{"rule_id": id}); err != nil {
		s.logger.Warn().Err(err).Int64("rule_id", id).Msg("publish rule canceled")
	}
	return nil
}

// CancelRuleInstance suppresses one generated instance without touching the
// parent rule, by appending a cancellation exception.
func (s *BookingService) CancelRuleInstance(ctx context.Context, ruleID int64, start time.Time) error {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}

	if err := s.repo.InsertSuppressionMarker(ctx, rule, start); err != nil {
		return err
	}

	metrics.IncRuleAction("instance_canceled")
	if s.cache != nil {
		s.cache.InvalidateDay(ctx, rule.ProfessionalID, start)
	}
	if err := s.bus.PublishJSON(events.TypeInstanceSkipped, map[string]interface{}{
		"rule_id": ruleID,
		"start":   start,
	}); err != nil {
		s.logger.Warn().Err(err).Int64("rule_id", ruleID).Msg("publish instance canceled")
	}
	return nil
}

// Agenda returns the visible appointment set for [from, to]. The range end
// is an inclusive date: bookings and suppression markers anywhere on that
// day must load, since the expander generates instances through it.
func (s *BookingService) Agenda(ctx context.Context, from, to time.Time) ([]agenda.Entry, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrInvalid)
	}

	fetchEnd := schedule.DateOnly(to).AddDate(0, 0, 1)
	bookings, err := s.repo.BookingsInRange(ctx, from, fetchEnd)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	return agenda.Build(bookings, rules, from, to), nil
}

// ExportAgenda writes the agenda range as an xlsx workbook.
func (s *BookingService) ExportAgenda(ctx context.Context, from, to time.Time, w io.Writer) error {
	entries, err := s.Agenda(ctx, from, to)
	if err != nil {
		return err
	}

	professionals, err := s.repo.ListProfessionals(ctx)
	if err != nil {
		return fmt.Errorf("load professionals: %w", err)
	}
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	professionalNames := make(map[int64]string, len(professionals))
	for _, p := range professionals {
		professionalNames[p.ID] = p.Name
	}
	serviceNames := make(map[int64]string, len(services))
	for _, svc := range services {
		serviceNames[svc.ID] = svc.Name
	}

	return agenda.ExportExcel(w, entries, professionalNames, serviceNames)
}
