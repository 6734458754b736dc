package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinbook/internal/models"
)

// CreateProfessional inserts a staff member.
func (db *DB) CreateProfessional(ctx context.Context, p *models.Professional) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO professionals (name, specialty, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.Specialty, p.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert professional: %w", err)
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// ListProfessionals returns active professionals ordered by name.
func (db *DB) ListProfessionals(ctx context.Context) ([]models.Professional, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, specialty, is_active, created_at, updated_at
		FROM professionals WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query professionals: %w", err)
	}
	defer rows.Close()

	var professionals []models.Professional
	for rows.Next() {
		var p models.Professional
		var specialty sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &specialty, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan professional: %w", err)
		}
		p.Specialty = specialty.String
		professionals = append(professionals, p)
	}
	return professionals, rows.Err()
}

// CreateService inserts a bookable procedure.
func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (name, duration_minutes, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.DurationMinutes, s.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	s.ID, _ = res.LastInsertId()
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetService returns one service by id.
func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `
		SELECT id, name, duration_minutes, is_active, created_at, updated_at
		FROM services WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &s, nil
}

// ListServices returns active services ordered by name.
func (db *DB) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, duration_minutes, is_active, created_at, updated_at
		FROM services WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
