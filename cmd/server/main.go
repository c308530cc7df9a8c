package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/app"
	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/db"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg.IsProduction)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	// Apply schema migrations
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate db")
	}

	// Connect Redis if configured
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	// Init components
	container, err := app.NewContainer(cfg, pool, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init container")
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited gracefully")
}

// newLogger emits JSON in production and human-readable console output in dev.
func newLogger(isProduction bool) zerolog.Logger {
	if isProduction {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.DebugLevel)
}
