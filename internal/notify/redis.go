package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/moosecreates/tailtown-sub004/internal/metrics"
)

// DefaultQueue is the Redis list the delivery collaborator consumes with BRPOP.
const DefaultQueue = "tailtown:notifications"

// RedisPublisher pushes notification requests onto a Redis list. Pushes are
// paced with a token bucket so a large availability match cannot flood the
// delivery pipeline.
type RedisPublisher struct {
	client  *redis.Client
	queue   string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewRedisPublisher creates a publisher writing to the given queue.
func NewRedisPublisher(client *redis.Client, queue string, perSecond float64, burst int, logger zerolog.Logger) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RedisPublisher{
		client:  client,
		queue:   queue,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, req Request) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal notification request: %w", err)
	}

	if err := p.client.LPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("push notification request: %w", err)
	}

	p.logger.Debug().
		Str("notification_id", req.NotificationID).
		Str("queue", p.queue).
		Msg("notification queued")
	metrics.IncNotificationQueued(req.Channel)
	return nil
}
