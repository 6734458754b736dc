package events

import (
	"errors"
	"testing"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(TypeBookingCreated, func(event Event) error {
		got = append(got, string(event.Payload))
		return nil
	})
	bus.Subscribe(TypeBookingCreated, func(event Event) error {
		got = append(got, "second")
		return nil
	})

	if err := bus.PublishJSON(TypeBookingCreated, map[string]int64{"id": 7}); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(got))
	}
	if got[0] != `{"id":7}` {
		t.Errorf("payload = %q", got[0])
	}
}

func TestBusTypeIsolation(t *testing.T) {
	bus := NewBus()

	called := false
	bus.Subscribe(TypeBookingCanceled, func(Event) error {
		called = true
		return nil
	})

	bus.Publish(Event{Type: TypeBookingCreated})
	if called {
		t.Error("handler fired for a different event type")
	}
}

func TestBusHandlerErrorsIgnored(t *testing.T) {
	bus := NewBus()

	secondReached := false
	bus.Subscribe(TypeRuleCanceled, func(Event) error { return errors.New("boom") })
	bus.Subscribe(TypeRuleCanceled, func(Event) error { secondReached = true; return nil })

	bus.Publish(Event{Type: TypeRuleCanceled})
	if !secondReached {
		t.Error("a failing handler must not stop later handlers")
	}
}

func TestBusSetsCreatedAt(t *testing.T) {
	bus := NewBus()

	var stamped bool
	bus.Subscribe(TypeRuleCreated, func(event Event) error {
		stamped = !event.CreatedAt.IsZero()
		return nil
	})

	bus.Publish(Event{Type: TypeRuleCreated})
	if !stamped {
		t.Error("CreatedAt should be stamped on publish")
	}
}

func TestPublishJSONBadPayload(t *testing.T) {
	bus := NewBus()
	if err := bus.PublishJSON(TypeBookingCreated, func() {}); err == nil {
		t.Error("unmarshalable payload should fail")
	}
}
