// Package db is the sqlite persistence layer: clinic schedule configuration,
// holiday exceptions, bookings and recurrence rules. The availability and
// recurrence cores never touch it; they consume snapshots fetched here.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlotTaken is returned when a booking write loses the race for a
	// slot. Callers surface it as a retryable conflict, distinct from
	// "no availability".
	ErrSlotTaken = errors.New("slot no longer available")
	// ErrRuleTerminal is returned when canceling a rule that already left
	// the active state.
	ErrRuleTerminal = errors.New("recurrence rule is not active")
)

// DB wraps sql.DB for the booking service.
type DB struct {
	*sql.DB
}

// New opens the database at path and creates the schema.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(conn); err != nil {
		return nil, err
	}
	return &DB{conn}, nil
}

func createTables(conn *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS professionals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			specialty TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per weekday; times stored as "HH:MM".
		`CREATE TABLE IF NOT EXISTS weekly_schedule (
			day_of_week INTEGER PRIMARY KEY,
			is_open BOOLEAN NOT NULL DEFAULT 0,
			start_time TEXT,
			end_time TEXT,
			lunch_start TEXT,
			lunch_end TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// At most one exception per calendar date.
		`CREATE TABLE IF NOT EXISTS holiday_exceptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			is_open BOOLEAN NOT NULL DEFAULT 0,
			start_time TEXT,
			end_time TEXT,
			lunch_start TEXT,
			lunch_end TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			professional_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			start_time DATETIME NOT NULL,
			duration_minutes INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			recurring_rule_id INTEGER NOT NULL DEFAULT 0,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (professional_id) REFERENCES professionals(id),
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		`CREATE TABLE IF NOT EXISTS recurrence_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			professional_id INTEGER NOT NULL,
			start_date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			frequency TEXT NOT NULL,
			until_date TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (professional_id) REFERENCES professionals(id),
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_times ON bookings(professional_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_rule ON bookings(recurring_rule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_status ON recurrence_rules(status)`,
		`CREATE INDEX IF NOT EXISTS idx_holidays_date ON holiday_exceptions(date)`,
	}

	for _, q := range queries {
		if _, err := conn.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
