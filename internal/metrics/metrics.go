package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailtown",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created by service type.",
		},
		[]string{"service_type"},
	)

	conflictDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailtown",
			Name:      "conflict_detected_total",
			Help:      "Count of conflicts reported by the detector, by kind.",
		},
		[]string{"kind"},
	)

	allocation = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailtown",
			Name:      "allocation_total",
			Help:      "Count of resource allocations by mode (explicit, auto, fallback, provisioned).",
		},
		[]string{"mode"},
	)

	waitlistEvent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailtown",
			Name:      "waitlist_event_total",
			Help:      "Count of waitlist lifecycle events (enqueued, cancelled, converted, expired, notified).",
		},
		[]string{"event"},
	)

	notificationQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tailtown",
			Name:      "notification_queued_total",
			Help:      "Count of outbound notifications handed to the delivery queue, by channel.",
		},
		[]string{"channel"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, conflictDetected, allocation, waitlistEvent, notificationQueued)
	})
}

func IncReservationCreated(serviceType string) {
	reservationCreated.WithLabelValues(serviceType).Inc()
}

func IncConflictDetected(kind string) {
	conflictDetected.WithLabelValues(kind).Inc()
}

func IncAllocation(mode string) {
	allocation.WithLabelValues(mode).Inc()
}

func IncWaitlistEvent(event string) {
	waitlistEvent.WithLabelValues(event).Inc()
}

func IncNotificationQueued(channel string) {
	notificationQueued.WithLabelValues(channel).Inc()
}
