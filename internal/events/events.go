package events

import (
	"context"
	"sync"
	"time"
)

// Event types published by the reservation and waitlist layers.
const (
	TypeSpotFreed          = "reservation.spot_freed"
	TypeReservationCreated = "reservation.created"
	TypeWaitlistConverted  = "waitlist.converted"
)

// SpotFreed describes a resource window released by a cancellation, a
// deletion or an early checkout. The availability matcher subscribes to it.
type SpotFreed struct {
	TenantID    string
	ResourceID  string
	SuiteType   string
	ServiceType string
	StartDate   time.Time
	EndDate     time.Time
}

// WaitlistConverted records a waitlist entry turning into a reservation.
type WaitlistConverted struct {
	TenantID      string
	EntryID       string
	ReservationID string
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   any
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously in the publisher's
// goroutine; a handler error does not stop the remaining handlers.
type Handler func(ctx context.Context, event Event) error

// Bus provides in-process pub/sub for domain events.
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

// Publish notifies subscribers of the event type and returns the first
// handler error, after all handlers have run.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var first error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
