package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/api"
	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/events"
	"github.com/moosecreates/tailtown-sub004/internal/notify"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/report"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
	"github.com/moosecreates/tailtown-sub004/internal/tenant"
	"github.com/moosecreates/tailtown-sub004/internal/waitlist"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Sweeper    *waitlist.Sweeper
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger zerolog.Logger) (*Container, error) {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, auth.DefaultTokenTTL)

	catalog, err := config.LoadSuiteCatalog(cfg.SuiteCatalogPath)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()

	// Outbound notification queue. Without Redis the requests are logged
	// so operators still see what would have gone out.
	var publisher notify.Publisher
	if redisClient != nil {
		publisher = notify.NewRedisPublisher(redisClient, notify.DefaultQueue, cfg.NotifyRate, cfg.NotifyBurst, logger)
	} else {
		publisher = notify.NewLogPublisher(logger)
	}

	// Tenant module
	tenantRepo := tenant.NewPgxRepository(pool)
	tenantService := tenant.NewService(tenantRepo)

	// Customer module
	customerRepo := customer.NewPgxRepository(pool)
	customerService := customer.NewService(customerRepo)

	// Pet module
	petRepo := pet.NewPgxRepository(pool)
	petService := pet.NewService(petRepo, customerService)

	// Resource module
	resourceRepo := resource.NewPgxRepository(pool)
	resourceService := resource.NewService(resourceRepo)

	// Reservation module: conflict detection + allocation + lifecycle.
	reservationRepo := reservation.NewPgxRepository(pool)
	checker := reservation.NewConflictChecker(reservationRepo, resourceService, logger)
	allocator := reservation.NewAllocator(reservationRepo, cfg.Allocation, catalog, logger)
	reservationService := reservation.NewService(reservationRepo, checker, allocator, petService, customerService, bus, logger)

	// Waitlist module: queue manager + availability matcher + sweeper.
	waitlistRepo := waitlist.NewPgxRepository(pool)
	waitlistService := waitlist.NewService(waitlistRepo, petService, customerService, cfg.Waitlist, bus, logger)
	matcher := waitlist.NewMatcher(waitlistRepo, publisher, cfg.Waitlist, logger)
	sweeper := waitlist.NewSweeper(waitlistRepo, logger)

	// A freed window (cancellation, deletion, early checkout) flows to the
	// matcher without the reservation layer knowing about waitlists.
	bus.Subscribe(events.TypeSpotFreed, waitlist.SpotFreedHandler(matcher, logger))

	// Report module
	reportRepo := report.NewPgxRepository(pool)
	reportService := report.NewService(reportRepo, logger)

	routerConfig := api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		Logger:             logger,
		JWTManager:         jwtManager,
		TenantService:      tenantService,
		CustomerService:    customerService,
		PetService:         petService,
		ResourceService:    resourceService,
		ReservationService: reservationService,
		WaitlistService:    waitlistService,
		Matcher:            matcher,
		ReportService:      reportService,
		DBPing:             pool.Ping,
	}
	if redisClient != nil {
		routerConfig.RedisPing = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	return &Container{
		Router:     api.NewRouter(routerConfig),
		JWTManager: jwtManager,
		Sweeper:    sweeper,
	}, nil
}
