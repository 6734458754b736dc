package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clinbook/internal/schedule"
)

const dateLayout = "2006-01-02"

// WeeklySchedule loads the full weekly template. Unconfigured weekdays are
// simply absent (closed).
func (db *DB) WeeklySchedule(ctx context.Context) (schedule.Weekly, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, is_open, start_time, end_time, lunch_start, lunch_end
		FROM weekly_schedule`)
	if err != nil {
		return nil, fmt.Errorf("query weekly schedule: %w", err)
	}
	defer rows.Close()

	week := make(schedule.Weekly)
	for rows.Next() {
		var dayOfWeek int
		var isOpen bool
		var start, end, lunchStart, lunchEnd sql.NullString
		if err := rows.Scan(&dayOfWeek, &isOpen, &start, &end, &lunchStart, &lunchEnd); err != nil {
			return nil, fmt.Errorf("scan weekly schedule: %w", err)
		}
		day, err := buildDay(isOpen, start, end, lunchStart, lunchEnd)
		if err != nil {
			return nil, fmt.Errorf("weekday %d: %w", dayOfWeek, err)
		}
		week[time.Weekday(dayOfWeek)] = day
	}
	return week, rows.Err()
}

// UpsertDaySchedule stores the template for one weekday. Validation happens
// here, at the settings write boundary.
func (db *DB) UpsertDaySchedule(ctx context.Context, dayOfWeek time.Weekday, day schedule.DaySchedule) error {
	if err := day.Validate(); err != nil {
		return fmt.Errorf("day schedule: %w", err)
	}

	start, end, lunchStart, lunchEnd := dayColumns(day)
	_, err := db.ExecContext(ctx, `
		INSERT INTO weekly_schedule (day_of_week, is_open, start_time, end_time, lunch_start, lunch_end, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day_of_week) DO UPDATE SET
			is_open = excluded.is_open,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			lunch_start = excluded.lunch_start,
			lunch_end = excluded.lunch_end,
			updated_at = excluded.updated_at`,
		int(dayOfWeek), day.IsOpen, start, end, lunchStart, lunchEnd, time.Now(),
	)
	return err
}

// HolidayExceptions returns all exceptions with dates inside [from, to].
func (db *DB) HolidayExceptions(ctx context.Context, from, to time.Time) ([]schedule.HolidayException, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, name, is_open, start_time, end_time, lunch_start, lunch_end
		FROM holiday_exceptions
		WHERE date >= ? AND date <= ?
		ORDER BY date`,
		from.Format(dateLayout), to.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query holiday exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []schedule.HolidayException
	for rows.Next() {
		var dateStr, name string
		var isOpen bool
		var start, end, lunchStart, lunchEnd sql.NullString
		if err := rows.Scan(&dateStr, &name, &isOpen, &start, &end, &lunchStart, &lunchEnd); err != nil {
			return nil, fmt.Errorf("scan holiday exception: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("holiday date %q: %w", dateStr, err)
		}
		day, err := buildDay(isOpen, start, end, lunchStart, lunchEnd)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: %w", dateStr, err)
		}
		exceptions = append(exceptions, schedule.HolidayException{Date: date, Name: name, Day: day})
	}
	return exceptions, rows.Err()
}

// UpsertHolidayException creates or replaces the exception for its date,
// keeping the one-exception-per-date invariant.
func (db *DB) UpsertHolidayException(ctx context.Context, ex schedule.HolidayException) error {
	if err := ex.Day.Validate(); err != nil {
		return fmt.Errorf("holiday schedule: %w", err)
	}

	start, end, lunchStart, lunchEnd := dayColumns(ex.Day)
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO holiday_exceptions (date, name, is_open, start_time, end_time, lunch_start, lunch_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			name = excluded.name,
			is_open = excluded.is_open,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			lunch_start = excluded.lunch_start,
			lunch_end = excluded.lunch_end,
			updated_at = excluded.updated_at`,
		ex.Date.Format(dateLayout), ex.Name, ex.Day.IsOpen, start, end, lunchStart, lunchEnd, now, now,
	)
	return err
}

// DeleteHolidayException removes the exception for a date, if any.
func (db *DB) DeleteHolidayException(ctx context.Context, date time.Time) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM holiday_exceptions WHERE date = ?", date.Format(dateLayout))
	return err
}

func buildDay(isOpen bool, start, end, lunchStart, lunchEnd sql.NullString) (schedule.DaySchedule, error) {
	day := schedule.DaySchedule{IsOpen: isOpen}

	parse := func(v sql.NullString, dst *schedule.TimeOfDay) error {
		if !v.Valid || v.String == "" {
			return nil
		}
		t, err := schedule.ParseTimeOfDay(v.String)
		if err != nil {
			return err
		}
		*dst = t
		return nil
	}

	if err := parse(start, &day.Start); err != nil {
		return day, err
	}
	if err := parse(end, &day.End); err != nil {
		return day, err
	}
	if err := parse(lunchStart, &day.LunchStart); err != nil {
		return day, err
	}
	if err := parse(lunchEnd, &day.LunchEnd); err != nil {
		return day, err
	}
	return day, nil
}

func dayColumns(day schedule.DaySchedule) (start, end, lunchStart, lunchEnd sql.NullString) {
	set := func(t schedule.TimeOfDay) sql.NullString {
		if t == 0 {
			return sql.NullString{}
		}
		return sql.NullString{String: t.String(), Valid: true}
	}
	return set(day.Start), set(day.End), set(day.LunchStart), set(day.LunchEnd)
}
