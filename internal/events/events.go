// Package events provides in-process pub/sub for booking domain events.
// Subscribers include the availability-cache invalidator and the
// notification boundary; delivery is synchronous and best-effort.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event types published by the booking service.
const (
	TypeBookingCreated  = "booking.created"
	TypeBookingCanceled = "booking.canceled"
	TypeRuleCreated     = "rule.created"
	TypeRuleCanceled    = "rule.canceled"
	TypeInstanceSkipped = "rule.instance_canceled"
)

// Event is a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event. Errors are the handler's own concern;
// publishing never fails because a subscriber did.
type Handler func(event Event) error

// Bus is an in-process event bus.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers the event to every handler subscribed to its type, in
// subscription order, on the calling goroutine. Handler errors are dropped.
func (b *Bus) Publish(event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.subscribers[event.Type]))
	copy(handlers, b.subscribers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON marshals the payload and publishes it under eventType.
func (b *Bus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}
