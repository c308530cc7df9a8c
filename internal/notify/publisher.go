package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/metrics"
)

// Request is the payload handed to the external delivery collaborator.
// Delivery mechanics (SMS/email sending) live outside this service.
type Request struct {
	NotificationID string    `json:"notificationId"`
	TenantID       string    `json:"tenantId"`
	EntryID        string    `json:"entryId"`
	Recipient      string    `json:"recipient"`
	Channel        string    `json:"channel"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Publisher enqueues notification requests for delivery.
type Publisher interface {
	Publish(ctx context.Context, req Request) error
}

// LogPublisher is the fallback used when no queue backend is configured.
// It records the request so operators can see what would have been sent.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a log-only publisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, req Request) error {
	p.logger.Info().
		Str("notification_id", req.NotificationID).
		Str("tenant_id", req.TenantID).
		Str("entry_id", req.EntryID).
		Str("channel", req.Channel).
		Str("type", req.Type).
		Msg("notification queued (log only)")
	metrics.IncNotificationQueued(req.Channel)
	return nil
}
