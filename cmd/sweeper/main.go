// Command sweeper runs one maintenance pass over the waitlists: it resolves
// overdue notifications and expires stale entries, then exits. Schedule it
// from cron or a container job.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/db"
	"github.com/moosecreates/tailtown-sub004/internal/waitlist"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	sweeper := waitlist.NewSweeper(waitlist.NewPgxRepository(pool), logger)

	result, err := sweeper.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweep failed")
	}

	logger.Info().
		Int("partitions", result.Partitions).
		Int("expiredEntries", result.ExpiredEntries).
		Int("reactivatedEntries", result.ReactivatedEntries).
		Int("resolvedNotifications", result.ResolvedNotifications).
		Int("failedPartitions", result.FailedPartitions).
		Msg("sweep complete")
}
