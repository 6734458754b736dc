package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinbook/internal/availability"
	"clinbook/internal/models"
	"clinbook/internal/schedule"
)

const bookingColumns = `id, user_id, professional_id, service_id, start_time,
	duration_minutes, status, recurring_rule_id, notes, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var notes sql.NullString
	err := row.Scan(
		&b.ID, &b.UserID, &b.ProfessionalID, &b.ServiceID, &b.StartTime,
		&b.DurationMinutes, &b.Status, &b.RecurringRuleID, &notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Notes = notes.String
	return &b, nil
}

// GetBooking returns one booking by id.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// BookingsInRange returns every booking whose start falls in [from, to),
// including canceled rows; callers that build the agenda need the
// suppression markers too.
func (db *DB) BookingsInRange(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// OccupiedSlots derives the occupied intervals for one professional on one
// date from live bookings. IgnoreBookingID filtering stays in the resolver.
func (db *DB) OccupiedSlots(ctx context.Context, professionalID int64, date time.Time) ([]availability.OccupiedSlot, error) {
	startOfDay := schedule.DateOnly(date)
	endOfDay := startOfDay.AddDate(0, 0, 1)

	rows, err := db.QueryContext(ctx, `
		SELECT id, professional_id, start_time, duration_minutes
		FROM bookings
		WHERE professional_id = ?
		AND start_time >= ? AND start_time < ?
		AND status NOT IN (?)
		ORDER BY start_time`,
		professionalID, startOfDay, endOfDay, models.StatusCanceled,
	)
	if err != nil {
		return nil, fmt.Errorf("query occupied slots: %w", err)
	}
	defer rows.Close()

	var occupied []availability.OccupiedSlot
	for rows.Next() {
		var o availability.OccupiedSlot
		var start time.Time
		if err := rows.Scan(&o.BookingID, &o.ProfessionalID, &start, &o.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan occupied slot: %w", err)
		}
		o.Start = schedule.FromTime(start)
		occupied = append(occupied, o)
	}
	return occupied, rows.Err()
}

// CreateBookingChecked inserts a booking after re-checking the slot inside
// a transaction. The resolver's slot list is advisory; this is the
// authoritative write-time check, and a lost race returns ErrSlotTaken.
func (db *DB) CreateBookingChecked(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	end := b.EndTime()
	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE professional_id = ?
		AND start_time < ? AND datetime(start_time, '+' || duration_minutes || ' minutes') > ?
		AND status NOT IN (?)`,
		b.ProfessionalID, end, b.StartTime, models.StatusCanceled,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if count > 0 {
		return ErrSlotTaken
	}

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (user_id, professional_id, service_id, start_time,
			duration_minutes, status, recurring_rule_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.ProfessionalID, b.ServiceID, b.StartTime,
		b.DurationMinutes, b.Status, b.RecurringRuleID, b.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}

	b.ID, _ = res.LastInsertId()
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// UpdateBookingStatus changes a booking's status.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertSuppressionMarker records the cancellation of one recurring
// instance: a canceled booking row tagged with the rule id, consumed by the
// expander as an exception. Inserting twice for the same instance is
// harmless; the exception set deduplicates.
func (db *DB) InsertSuppressionMarker(ctx context.Context, rule *models.RecurrenceRule, start time.Time) error {
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO bookings (user_id, professional_id, service_id, start_time,
			duration_minutes, status, recurring_rule_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, rule.ProfessionalID, rule.ServiceID, start,
		rule.DurationMinutes, models.StatusCanceled, rule.ID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert suppression marker: %w", err)
	}
	return nil
}
