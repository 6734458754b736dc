package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinbook",
			Name:      "booking_conflict_total",
			Help:      "Count of booking writes rejected because the slot was taken.",
		},
	)

	bookingCanceled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinbook",
			Name:      "booking_canceled_total",
			Help:      "Count of bookings canceled.",
		},
	)

	availabilityRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinbook",
			Name:      "availability_requests_total",
			Help:      "Count of availability computations by cache outcome.",
		},
		[]string{"source"},
	)

	ruleAction = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinbook",
			Name:      "recurrence_rule_actions_total",
			Help:      "Count of recurrence rule actions.",
		},
		[]string{"action"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, bookingConflict, bookingCanceled,
			availabilityRequests, ruleAction, httpRequests,
		)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncBookingCanceled() {
	bookingCanceled.Inc()
}

// IncAvailability records one availability computation; source is "cache"
// or "computed".
func IncAvailability(source string) {
	availabilityRequests.WithLabelValues(source).Inc()
}

func IncRuleAction(action string) {
	ruleAction.WithLabelValues(action).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
