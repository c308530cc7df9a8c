package waitlist

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/metrics"
)

// SweepResult summarizes one sweeper run.
type SweepResult struct {
	Partitions            int
	ExpiredEntries        int
	ReactivatedEntries    int
	ResolvedNotifications int
	FailedPartitions      int
}

// Sweeper is the time-based collaborator the matcher relies on: it resolves
// overdue notifications, returns un-actioned NOTIFIED entries to the queue
// and expires entries past their lifetime. Run from cmd/sweeper on a cron.
type Sweeper struct {
	repo   Repository
	logger zerolog.Logger
}

func NewSweeper(repo Repository, logger zerolog.Logger) *Sweeper {
	return &Sweeper{repo: repo, logger: logger}
}

// Run sweeps every partition holding overdue work. Idempotent: a second run
// over the same data changes nothing. A failing partition is logged and
// skipped so one tenant's trouble does not stall the rest.
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	now := time.Now().UTC()

	partitions, err := s.repo.ListDuePartitions(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Partitions: len(partitions)}
	for _, p := range partitions {
		if err := s.sweepPartition(ctx, p, now, result); err != nil {
			result.FailedPartitions++
			s.logger.Warn().Err(err).
				Str("tenantID", p.TenantID).
				Str("serviceType", string(p.ServiceType)).
				Msg("partition sweep failed")
		}
	}

	s.logger.Info().
		Int("partitions", result.Partitions).
		Int("expiredEntries", result.ExpiredEntries).
		Int("reactivatedEntries", result.ReactivatedEntries).
		Int("resolvedNotifications", result.ResolvedNotifications).
		Int("failedPartitions", result.FailedPartitions).
		Msg("waitlist sweep finished")

	return result, nil
}

func (s *Sweeper) sweepPartition(ctx context.Context, p Partition, now time.Time, result *SweepResult) error {
	return s.repo.WithQueueLock(ctx, p.TenantID, p.ServiceType, func(scope QueueScope) error {
		// 1. Overdue notifications: the customer never answered. The entry,
		// when still NOTIFIED and alive, goes back to ACTIVE with its
		// original priority so it is reconsidered on the next match.
		open, err := scope.ListOpenNotifications(ctx)
		if err != nil {
			return err
		}
		for _, n := range open {
			if n.ExpiresAt.After(now) {
				continue
			}
			n.Status = NotificationRead
			n.ActionTaken = ActionNoResponse
			if err := scope.ResolveNotification(ctx, n); err != nil {
				return err
			}
			result.ResolvedNotifications++

			entry := findEntry(scope.Entries(), n.EntryID)
			if entry != nil && entry.Status == EntryNotified && entry.ExpiresAt.After(now) {
				entry.Status = EntryActive
				if err := scope.UpdateEntry(ctx, entry); err != nil {
					return err
				}
				result.ReactivatedEntries++
				metrics.IncWaitlistEvent("reactivated")
			}
		}

		// 2. Entries past their own lifetime leave the queue for good.
		for _, entry := range scope.Entries() {
			if entry.Status.Terminal() || entry.ExpiresAt.After(now) {
				continue
			}
			entry.Status = EntryExpired
			entry.Position = 0
			if err := scope.UpdateEntry(ctx, entry); err != nil {
				return err
			}
			if err := closeEntryNotifications(ctx, scope, entry.ID, ActionExpired); err != nil {
				return err
			}
			result.ExpiredEntries++
			metrics.IncWaitlistEvent("expired")
		}

		// 3. Close the holes the departed entries left behind.
		return reindexLocked(ctx, scope)
	})
}
