// Package cache keeps computed day availability in redis so repeated
// date-picker requests don't refetch the schedule and rescan bookings. The
// cache is advisory, like the slot list itself: the authoritative check
// happens at booking-write time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"clinbook/internal/schedule"
)

// ErrMiss is returned when no cached value exists for the key.
var ErrMiss = errors.New("cache miss")

// AvailabilityCache stores slot lists keyed by professional, date and
// service duration.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New creates a cache on the given client. A nil client disables caching;
// every Get misses and every Set is a no-op.
func New(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func slotsKey(professionalID int64, date time.Time, durationMinutes int) string {
	return fmt.Sprintf("avail:%d:%s:%d", professionalID, date.Format("2006-01-02"), durationMinutes)
}

// dayPattern matches every duration variant cached for one professional-date.
func dayPattern(professionalID int64, date time.Time) string {
	return fmt.Sprintf("avail:%d:%s:*", professionalID, date.Format("2006-01-02"))
}

// GetSlots returns the cached slot list, or ErrMiss.
func (c *AvailabilityCache) GetSlots(ctx context.Context, professionalID int64, date time.Time, durationMinutes int) ([]schedule.TimeOfDay, error) {
	if c.client == nil {
		return nil, ErrMiss
	}

	data, err := c.client.Get(ctx, slotsKey(professionalID, date, durationMinutes)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var slots []schedule.TimeOfDay
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return slots, nil
}

// SetSlots stores a slot list with the configured TTL. Failures are logged
// and swallowed; the cache must never fail a request.
func (c *AvailabilityCache) SetSlots(ctx context.Context, professionalID int64, date time.Time, durationMinutes int, slots []schedule.TimeOfDay) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, slotsKey(professionalID, date, durationMinutes), data, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn().Err(err).Msg("availability cache set failed")
	}
}

// InvalidateDay drops every cached slot list for a professional-date,
// called after any booking write that touches that day.
func (c *AvailabilityCache) InvalidateDay(ctx context.Context, professionalID int64, date time.Time) {
	if c.client == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, dayPattern(professionalID, date), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Msg("availability cache scan failed")
		}
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil && c.logger != nil {
		c.logger.Warn().Err(err).Msg("availability cache invalidate failed")
	}
}
