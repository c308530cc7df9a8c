package waitlist

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/events"
	"github.com/moosecreates/tailtown-sub004/internal/metrics"
	"github.com/moosecreates/tailtown-sub004/internal/notify"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
)

// MatchRequest describes a freed window to offer to waiting customers.
type MatchRequest struct {
	TenantID    string
	ServiceType reservation.ServiceType
	FreedStart  time.Time
	FreedEnd    time.Time
	// ResourceID, when set, restricts candidates to entries with no resource
	// preference or a matching one.
	ResourceID string
	// Channel overrides the default EMAIL delivery channel.
	Channel string
}

// Matcher offers freed capacity to the oldest compatible ACTIVE entries.
type Matcher interface {
	MatchAvailability(ctx context.Context, req MatchRequest) ([]*Notification, error)
}

type matcher struct {
	repo      Repository
	publisher notify.Publisher
	defaults  config.WaitlistDefaults
	logger    zerolog.Logger
}

func NewMatcher(repo Repository, publisher notify.Publisher, defaults config.WaitlistDefaults, logger zerolog.Logger) Matcher {
	return &matcher{
		repo:      repo,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// MatchAvailability selects the top entries by priority, creates a
// notification per entry and moves the entry ACTIVE -> NOTIFIED. Entries
// beyond the per-availability cap stay ACTIVE and get the next window.
func (m *matcher) MatchAvailability(ctx context.Context, req MatchRequest) ([]*Notification, error) {
	if !req.ServiceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	channel := req.Channel
	if channel == "" {
		channel = ChannelEmail
	}
	if channel != ChannelEmail && channel != ChannelSMS {
		return nil, ErrInvalidChannel
	}

	freedStart := daterange.Date(req.FreedStart)
	freedEnd := daterange.Date(req.FreedEnd)
	if !freedStart.Before(freedEnd) {
		return nil, ErrInvalidDateRange
	}

	cfg, err := resolveConfig(ctx, m.repo, m.defaults, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !cfg.ServiceEnabled(req.ServiceType) {
		// Matching a disabled queue is a no-op, not an error: cancellations
		// keep flowing whether or not the tenant runs a waitlist.
		return nil, nil
	}

	var created []*Notification
	err = m.repo.WithQueueLock(ctx, req.TenantID, req.ServiceType, func(scope QueueScope) error {
		created = created[:0]
		for _, entry := range scope.Entries() {
			if len(created) >= cfg.MaxNotificationsPerAvailability {
				break
			}
			if !entryMatches(entry, freedStart, req.ResourceID) {
				continue
			}

			n := &Notification{
				TenantID:    entry.TenantID,
				EntryID:     entry.ID,
				Recipient:   entry.CustomerEmail,
				Channel:     channel,
				Type:        TypeSpotAvailable,
				Status:      NotificationPending,
				ResourceID:  req.ResourceID,
				WindowStart: &freedStart,
				WindowEnd:   &freedEnd,
				ExpiresAt:   time.Now().UTC().Add(cfg.NotificationExpiration()),
			}
			if err := scope.CreateNotification(ctx, n); err != nil {
				return err
			}

			entry.Status = EntryNotified
			entry.NotificationsSent++
			if err := scope.UpdateEntry(ctx, entry); err != nil {
				return err
			}
			created = append(created, n)
		}

		if len(created) == 0 {
			return nil
		}
		// Notified entries leave the ACTIVE ranking; close the holes.
		return reindexLocked(ctx, scope)
	})
	if err != nil {
		return nil, err
	}

	for _, n := range created {
		metrics.IncWaitlistEvent("notified")
		m.enqueueDelivery(ctx, n, req)
	}

	if len(created) > 0 {
		m.logger.Info().
			Str("tenantID", req.TenantID).
			Str("serviceType", string(req.ServiceType)).
			Int("notified", len(created)).
			Msg("availability matched")
	}

	return created, nil
}

// entryMatches applies the compatibility filter: the entry must be ACTIVE,
// requested on or before the freed window (flexible entries take anything),
// and must not prefer a different resource.
func entryMatches(entry *Entry, freedStart time.Time, resourceID string) bool {
	if entry.Status != EntryActive {
		return false
	}
	if !entry.FlexibleDates && entry.RequestedStartDate.After(freedStart) {
		return false
	}
	if resourceID != "" && entry.PreferredResourceID != "" && entry.PreferredResourceID != resourceID {
		return false
	}
	return true
}

// enqueueDelivery hands the notification to the external delivery queue.
// Delivery failures are logged, not returned: the notification row exists
// and the sweep resolves it if nothing ever goes out.
func (m *matcher) enqueueDelivery(ctx context.Context, n *Notification, req MatchRequest) {
	msg := fmt.Sprintf("A %s spot opened up from %s to %s.",
		req.ServiceType,
		n.WindowStart.Format("2006-01-02"),
		n.WindowEnd.Format("2006-01-02"))

	err := m.publisher.Publish(ctx, notify.Request{
		NotificationID: n.ID,
		TenantID:       n.TenantID,
		EntryID:        n.EntryID,
		Recipient:      n.Recipient,
		Channel:        n.Channel,
		Type:           n.Type,
		Message:        msg,
		ExpiresAt:      n.ExpiresAt,
	})
	if err != nil {
		m.logger.Warn().Err(err).
			Str("notificationID", n.ID).
			Msg("failed to queue notification delivery")
	}
}

// SpotFreedHandler adapts the matcher to the event bus: cancellations,
// deletions and early checkouts publish freed windows.
func SpotFreedHandler(m Matcher, logger zerolog.Logger) events.Handler {
	return func(ctx context.Context, e events.Event) error {
		freed, ok := e.Payload.(events.SpotFreed)
		if !ok {
			return nil
		}
		_, err := m.MatchAvailability(ctx, MatchRequest{
			TenantID:    freed.TenantID,
			ServiceType: reservation.ServiceType(freed.ServiceType),
			FreedStart:  freed.StartDate,
			FreedEnd:    freed.EndDate,
			ResourceID:  freed.ResourceID,
		})
		if err != nil {
			logger.Warn().Err(err).
				Str("tenantID", freed.TenantID).
				Msg("availability match after freed spot failed")
		}
		// The reservation mutation already committed; a failed match must
		// not fail the request that freed the spot.
		return nil
	}
}
