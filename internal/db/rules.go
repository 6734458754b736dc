package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinbook/internal/models"
	"clinbook/internal/recurrence"
	"clinbook/internal/schedule"
)

// CreateRule persists a new recurrence rule in the active state.
func (db *DB) CreateRule(ctx context.Context, rule *models.RecurrenceRule) error {
	if rule.Status == "" {
		rule.Status = models.RuleStatusActive
	}

	now := time.Now()
	var until sql.NullString
	if !rule.UntilDate.IsZero() {
		until = sql.NullString{String: rule.UntilDate.Format(dateLayout), Valid: true}
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO recurrence_rules (user_id, service_id, professional_id,
			start_date, start_time, duration_minutes, frequency, until_date,
			status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, rule.ServiceID, rule.ProfessionalID,
		rule.StartDate.Format(dateLayout), rule.StartTime.String(),
		rule.DurationMinutes, rule.Frequency, until,
		rule.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	rule.ID, _ = res.LastInsertId()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

// GetRule returns one rule by id.
func (db *DB) GetRule(ctx context.Context, id int64) (*models.RecurrenceRule, error) {
	rule, err := scanRule(db.QueryRowContext(ctx, `
		SELECT id, user_id, service_id, professional_id, start_date, start_time,
			duration_minutes, frequency, until_date, status, created_at, updated_at
		FROM recurrence_rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get rule %d: %w", id, err)
	}
	return rule, nil
}

// ListRules returns all rules. Expansion filters by status and window
// itself; one malformed stored rule must not break the listing.
func (db *DB) ListRules(ctx context.Context) ([]models.RecurrenceRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, service_id, professional_id, start_date, start_time,
			duration_minutes, frequency, until_date, status, created_at, updated_at
		FROM recurrence_rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []models.RecurrenceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// CancelRule transitions a rule out of the active state. The transition is
// terminal: canceling an already-terminal rule returns ErrRuleTerminal.
func (db *DB) CancelRule(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE recurrence_rules SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.RuleStatusSuspended, time.Now(), id, models.RuleStatusActive,
	)
	if err != nil {
		return fmt.Errorf("cancel rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := db.GetRule(ctx, id); err != nil {
			return err
		}
		return ErrRuleTerminal
	}
	return nil
}

func scanRule(row interface{ Scan(...any) error }) (*models.RecurrenceRule, error) {
	var r models.RecurrenceRule
	var startDate, startTime string
	var until sql.NullString
	err := row.Scan(
		&r.ID, &r.UserID, &r.ServiceID, &r.ProfessionalID, &startDate, &startTime,
		&r.DurationMinutes, &r.Frequency, &until, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.StartDate, err = time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("rule start date %q: %w", startDate, err)
	}
	r.StartTime, err = schedule.ParseTimeOfDay(startTime)
	if err != nil {
		return nil, fmt.Errorf("rule start time %q: %w", startTime, err)
	}
	if until.Valid && until.String != "" {
		r.UntilDate, err = time.Parse(dateLayout, until.String)
		if err != nil {
			// A malformed until date makes the rule non-expandable, per the
			// rule-string contract; keep it zero instead of failing the scan.
			r.UntilDate = time.Time{}
		}
	}
	return &r, nil
}

// EncodedRule returns the persisted/transmitted rule-string form.
func (db *DB) EncodedRule(ctx context.Context, id int64) (string, error) {
	rule, err := db.GetRule(ctx, id)
	if err != nil {
		return "", err
	}
	return recurrence.EncodeRule(*rule), nil
}
