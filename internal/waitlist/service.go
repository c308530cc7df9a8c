package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/events"
	"github.com/moosecreates/tailtown-sub004/internal/metrics"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

// EnqueueRequest carries data to join a waitlist queue.
type EnqueueRequest struct {
	TenantID            string
	CustomerID          string
	PetID               string
	ServiceType         reservation.ServiceType
	SuiteType           resource.Type
	PreferredResourceID string
	RequestedStartDate  time.Time
	RequestedEndDate    *time.Time
	FlexibleDates       bool
	Notes               string
}

// ConfigUpdate carries the staff-editable waitlist tuning fields.
type ConfigUpdate struct {
	EntryExpirationDays             int
	NotificationExpirationHours     int
	MaxNotificationsPerAvailability int
	EnabledServiceTypes             []string
}

type Service interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*Entry, error)
	// Dequeue moves an entry to a terminal status and recomputes positions
	// for the entries left behind. Reason must be CONVERTED, CANCELLED or
	// EXPIRED.
	Dequeue(ctx context.Context, tenantID, id string, reason EntryStatus) (*Entry, error)
	// Convert dequeues with CONVERTED and links the reservation the entry
	// turned into. Open notifications for the entry are resolved as BOOKED.
	Convert(ctx context.Context, tenantID, id, reservationID string) (*Entry, error)
	// Reindex reassigns dense 1..N positions to the partition's ACTIVE
	// entries in priority order. Idempotent.
	Reindex(ctx context.Context, tenantID string, serviceType reservation.ServiceType) (int, error)
	// PositionOf answers "where am I in line" from live data. The banding
	// in EstimatedWait is an approximation for messaging, not a promise.
	PositionOf(ctx context.Context, tenantID, id string) (*QueueStanding, error)

	GetByID(ctx context.Context, tenantID, id string) (*Entry, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Entry, int, error)

	GetConfig(ctx context.Context, tenantID string) (*Config, error)
	UpdateConfig(ctx context.Context, tenantID string, upd ConfigUpdate) (*Config, error)

	// MarkNotificationDelivery is the delivery collaborator's callback:
	// SENT or FAILED after it attempted the send.
	MarkNotificationDelivery(ctx context.Context, tenantID, id string, status NotificationStatus) (*Notification, error)
	// RecordNotificationAction records the customer's answer to an offer.
	// BOOKED closes the notification; DECLINED additionally returns the
	// entry to the ACTIVE queue with its original priority.
	RecordNotificationAction(ctx context.Context, tenantID, id string, action NotificationAction) (*Notification, error)
	ListNotifications(ctx context.Context, tenantID, entryID string) ([]*Notification, error)
}

type service struct {
	repo      Repository
	pets      pet.Service
	customers customer.Service
	defaults  config.WaitlistDefaults
	bus       *events.Bus
	logger    zerolog.Logger
}

func NewService(repo Repository, pets pet.Service, customers customer.Service, defaults config.WaitlistDefaults, bus *events.Bus, logger zerolog.Logger) Service {
	return &service{
		repo:      repo,
		pets:      pets,
		customers: customers,
		defaults:  defaults,
		bus:       bus,
		logger:    logger,
	}
}

// resolveConfig returns the tenant's stored config, falling back to the
// service-level defaults for tenants that never wrote one.
func resolveConfig(ctx context.Context, repo Repository, defaults config.WaitlistDefaults, tenantID string) (*Config, error) {
	cfg, err := repo.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = DefaultConfig(tenantID)
	if defaults.EntryExpirationDays > 0 {
		cfg.EntryExpirationDays = defaults.EntryExpirationDays
	}
	if defaults.NotificationExpirationHours > 0 {
		cfg.NotificationExpirationHours = defaults.NotificationExpirationHours
	}
	if defaults.MaxNotificationsPerMatch > 0 {
		cfg.MaxNotificationsPerAvailability = defaults.MaxNotificationsPerMatch
	}
	return cfg, nil
}

func (s *service) Enqueue(ctx context.Context, req EnqueueRequest) (*Entry, error) {
	if !req.ServiceType.Valid() {
		return nil, ErrInvalidServiceType
	}

	start := daterange.Date(req.RequestedStartDate)
	var end *time.Time
	if req.RequestedEndDate != nil {
		d := daterange.Date(*req.RequestedEndDate)
		if !start.Before(d) {
			return nil, ErrInvalidDateRange
		}
		end = &d
	}

	cfg, err := resolveConfig(ctx, s.repo, s.defaults, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !cfg.ServiceEnabled(req.ServiceType) {
		return nil, ErrServiceNotEnabled
	}

	if _, err := s.customers.GetByID(ctx, req.TenantID, req.CustomerID); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	p, err := s.pets.GetByID(ctx, req.TenantID, req.PetID)
	if err != nil {
		if errors.Is(err, pet.ErrNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	if p.CustomerID != req.CustomerID {
		return nil, ErrPetOwnerMismatch
	}

	entry := &Entry{
		TenantID:            req.TenantID,
		CustomerID:          req.CustomerID,
		PetID:               req.PetID,
		ServiceType:         req.ServiceType,
		SuiteType:           req.SuiteType,
		PreferredResourceID: req.PreferredResourceID,
		RequestedStartDate:  start,
		RequestedEndDate:    end,
		FlexibleDates:       req.FlexibleDates,
		Status:              EntryActive,
		ExpiresAt:           time.Now().UTC().Add(cfg.EntryExpiration()),
		Notes:               req.Notes,
	}

	// The position is assigned under the partition lock so two concurrent
	// enqueues cannot claim the same rank.
	err = s.repo.WithQueueLock(ctx, req.TenantID, req.ServiceType, func(scope QueueScope) error {
		entry.Position = countActive(scope.Entries()) + 1
		return scope.InsertEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncWaitlistEvent("enqueued")
	s.logger.Info().
		Str("tenantID", entry.TenantID).
		Str("entryID", entry.ID).
		Str("serviceType", string(entry.ServiceType)).
		Int("position", entry.Position).
		Msg("waitlist entry enqueued")

	return entry, nil
}

func (s *service) Dequeue(ctx context.Context, tenantID, id string, reason EntryStatus) (*Entry, error) {
	return s.dequeue(ctx, tenantID, id, reason, "")
}

func (s *service) Convert(ctx context.Context, tenantID, id, reservationID string) (*Entry, error) {
	return s.dequeue(ctx, tenantID, id, EntryConverted, reservationID)
}

func (s *service) dequeue(ctx context.Context, tenantID, id string, reason EntryStatus, reservationID string) (*Entry, error) {
	if !reason.Terminal() {
		return nil, ErrInvalidReason
	}

	// Resolve the partition before taking the lock.
	existing, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.Terminal() {
		return nil, ErrTerminalEntry
	}

	var dequeued *Entry
	err = s.repo.WithQueueLock(ctx, tenantID, existing.ServiceType, func(scope QueueScope) error {
		entry := findEntry(scope.Entries(), id)
		if entry == nil {
			// The entry left the open set between the read and the lock.
			return ErrTerminalEntry
		}

		entry.Status = reason
		entry.Position = 0
		if reservationID != "" {
			entry.ConvertedToReservationID = reservationID
		}
		if err := scope.UpdateEntry(ctx, entry); err != nil {
			return err
		}

		if err := closeEntryNotifications(ctx, scope, entry.ID, actionForReason(reason)); err != nil {
			return err
		}

		dequeued = entry
		return reindexLocked(ctx, scope)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncWaitlistEvent(eventForReason(reason))
	if reason == EntryConverted && s.bus != nil {
		err := s.bus.Publish(ctx, events.Event{
			Type: events.TypeWaitlistConverted,
			Payload: events.WaitlistConverted{
				TenantID:      tenantID,
				EntryID:       id,
				ReservationID: reservationID,
			},
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("entryID", id).Msg("conversion event handler failed")
		}
	}
	s.logger.Info().
		Str("tenantID", tenantID).
		Str("entryID", id).
		Str("reason", string(reason)).
		Msg("waitlist entry dequeued")

	return dequeued, nil
}

func (s *service) Reindex(ctx context.Context, tenantID string, serviceType reservation.ServiceType) (int, error) {
	if !serviceType.Valid() {
		return 0, ErrInvalidServiceType
	}

	changed := 0
	err := s.repo.WithQueueLock(ctx, tenantID, serviceType, func(scope QueueScope) error {
		before := snapshotPositions(scope.Entries())
		if err := reindexLocked(ctx, scope); err != nil {
			return err
		}
		for _, e := range scope.Entries() {
			if before[e.ID] != e.Position {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *service) PositionOf(ctx context.Context, tenantID, id string) (*QueueStanding, error) {
	entry, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	standing := &QueueStanding{EntryID: entry.ID, Status: entry.Status}

	if entry.Status != EntryActive {
		total, err := s.repo.CountActive(ctx, tenantID, entry.ServiceType)
		if err != nil {
			return nil, err
		}
		standing.TotalInQueue = total
		standing.EstimatedWait = EstimateWait(0)
		return standing, nil
	}

	position, total, err := s.repo.ActiveStanding(ctx, tenantID, entry.ServiceType, entry.Priority)
	if err != nil {
		return nil, err
	}
	standing.Position = position
	standing.TotalInQueue = total
	standing.EstimatedWait = EstimateWait(position)
	return standing, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Entry, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Entry, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *service) GetConfig(ctx context.Context, tenantID string) (*Config, error) {
	return resolveConfig(ctx, s.repo, s.defaults, tenantID)
}

func (s *service) UpdateConfig(ctx context.Context, tenantID string, upd ConfigUpdate) (*Config, error) {
	if upd.EntryExpirationDays < 1 || upd.NotificationExpirationHours < 1 || upd.MaxNotificationsPerAvailability < 1 {
		return nil, ErrInvalidConfig
	}
	for _, st := range upd.EnabledServiceTypes {
		if !reservation.ServiceType(st).Valid() {
			return nil, ErrInvalidServiceType
		}
	}

	cfg := &Config{
		TenantID:                        tenantID,
		EntryExpirationDays:             upd.EntryExpirationDays,
		NotificationExpirationHours:     upd.NotificationExpirationHours,
		MaxNotificationsPerAvailability: upd.MaxNotificationsPerAvailability,
		EnabledServiceTypes:             upd.EnabledServiceTypes,
	}
	if cfg.EnabledServiceTypes == nil {
		cfg.EnabledServiceTypes = []string{}
	}
	if err := s.repo.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info().Str("tenantID", tenantID).Msg("waitlist config updated")
	return cfg, nil
}

func (s *service) MarkNotificationDelivery(ctx context.Context, tenantID, id string, status NotificationStatus) (*Notification, error) {
	if status != NotificationSent && status != NotificationFailed {
		return nil, ErrInvalidDeliveryStatus
	}

	n, err := s.repo.GetNotification(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if n.Status != NotificationPending {
		return nil, ErrNotificationClosed
	}

	n.Status = status
	if status == NotificationSent {
		now := time.Now().UTC()
		n.SentAt = &now
	}
	if err := s.repo.UpdateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) RecordNotificationAction(ctx context.Context, tenantID, id string, action NotificationAction) (*Notification, error) {
	if action != ActionBooked && action != ActionDeclined {
		return nil, ErrInvalidAction
	}

	n, err := s.repo.GetNotification(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !n.Open() || n.ActionTaken != "" {
		return nil, ErrNotificationClosed
	}

	entry, err := s.repo.GetByID(ctx, tenantID, n.EntryID)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithQueueLock(ctx, tenantID, entry.ServiceType, func(scope QueueScope) error {
		n.Status = NotificationRead
		n.ActionTaken = action
		if err := scope.ResolveNotification(ctx, n); err != nil {
			return err
		}

		// Declining the offer keeps the request alive: the entry rejoins
		// the ACTIVE ranking with its original priority.
		if action == ActionDeclined {
			if locked := findEntry(scope.Entries(), entry.ID); locked != nil && locked.Status == EntryNotified {
				locked.Status = EntryActive
				if err := scope.UpdateEntry(ctx, locked); err != nil {
					return err
				}
				metrics.IncWaitlistEvent("reactivated")
			}
			return reindexLocked(ctx, scope)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("notificationID", id).
		Str("action", string(action)).
		Msg("waitlist notification action recorded")

	return n, nil
}

func (s *service) ListNotifications(ctx context.Context, tenantID, entryID string) ([]*Notification, error) {
	if _, err := s.repo.GetByID(ctx, tenantID, entryID); err != nil {
		return nil, err
	}
	return s.repo.ListNotificationsByEntry(ctx, tenantID, entryID)
}

// reindexLocked assigns dense 1..N positions to the ACTIVE entries of an
// open queue scope in priority order. NOTIFIED entries sit outside the
// ranking at position 0. Only changed rows are written.
func reindexLocked(ctx context.Context, scope QueueScope) error {
	next := 1
	for _, e := range scope.Entries() {
		want := 0
		switch e.Status {
		case EntryActive:
			want = next
			next++
		case EntryNotified:
			want = 0
		default:
			continue
		}
		if e.Position == want {
			continue
		}
		e.Position = want
		if err := scope.UpdateEntry(ctx, e); err != nil {
			return fmt.Errorf("reindex entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// closeEntryNotifications resolves every open notification of the entry
// with the given outcome.
func closeEntryNotifications(ctx context.Context, scope QueueScope, entryID string, action NotificationAction) error {
	open, err := scope.ListOpenNotifications(ctx)
	if err != nil {
		return err
	}
	for _, n := range open {
		if n.EntryID != entryID {
			continue
		}
		n.Status = NotificationRead
		n.ActionTaken = action
		if err := scope.ResolveNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func countActive(entries []*Entry) int {
	count := 0
	for _, e := range entries {
		if e.Status == EntryActive {
			count++
		}
	}
	return count
}

func findEntry(entries []*Entry, id string) *Entry {
	for _, e := range entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func snapshotPositions(entries []*Entry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Position
	}
	return out
}

func actionForReason(reason EntryStatus) NotificationAction {
	switch reason {
	case EntryConverted:
		return ActionBooked
	case EntryExpired:
		return ActionExpired
	default:
		return ActionDeclined
	}
}

func eventForReason(reason EntryStatus) string {
	switch reason {
	case EntryConverted:
		return "converted"
	case EntryExpired:
		return "expired"
	default:
		return "cancelled"
	}
}
