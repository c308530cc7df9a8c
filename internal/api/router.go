package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/customer"
	customerHttp "github.com/moosecreates/tailtown-sub004/internal/customer/http"
	"github.com/moosecreates/tailtown-sub004/internal/metrics"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	petHttp "github.com/moosecreates/tailtown-sub004/internal/pet/http"
	"github.com/moosecreates/tailtown-sub004/internal/report"
	reportHttp "github.com/moosecreates/tailtown-sub004/internal/report/http"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
	reservationHttp "github.com/moosecreates/tailtown-sub004/internal/reservation/http"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
	resourceHttp "github.com/moosecreates/tailtown-sub004/internal/resource/http"
	"github.com/moosecreates/tailtown-sub004/internal/tenant"
	tenantHttp "github.com/moosecreates/tailtown-sub004/internal/tenant/http"
	"github.com/moosecreates/tailtown-sub004/internal/waitlist"
	waitlistHttp "github.com/moosecreates/tailtown-sub004/internal/waitlist/http"
)

// Config holds everything the router needs to assemble the HTTP surface.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       zerolog.Logger
	JWTManager   *auth.JWTManager

	TenantService      tenant.Service
	CustomerService    customer.Service
	PetService         pet.Service
	ResourceService    resource.Service
	ReservationService reservation.Service
	WaitlistService    waitlist.Service
	Matcher            waitlist.Matcher
	ReportService      report.Service

	// Readiness probes. RedisPing is nil when no Redis is configured.
	DBPing    func(ctx context.Context) error
	RedisPing func(ctx context.Context) error
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, logging, auth) and
// registering routes for the modules plus the operational endpoints.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8081"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	registerOps(r, cfg)

	// authMiddleware: validates the tenant token and scopes the request.
	authMiddleware := auth.TenantRequired(cfg.JWTManager)
	// staffMiddleware: further requires the staff claim.
	staffMiddleware := auth.StaffOnly()

	// Initialize HTTP handlers for each module (injecting service dependencies).
	tenantHandler := tenantHttp.NewHandler(cfg.TenantService, cfg.JWTManager)
	customerHandler := customerHttp.NewHandler(cfg.CustomerService)
	petHandler := petHttp.NewHandler(cfg.PetService)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService)
	waitlistHandler := waitlistHttp.NewHandler(cfg.WaitlistService, cfg.Matcher)
	reportHandler := reportHttp.NewHandler(cfg.ReportService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		tenantHttp.RegisterRoutes(v1, tenantHandler, authMiddleware, staffMiddleware)
		customerHttp.RegisterRoutes(v1, customerHandler, authMiddleware)
		petHttp.RegisterRoutes(v1, petHandler, authMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware, staffMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware, staffMiddleware)
		waitlistHttp.RegisterRoutes(v1, waitlistHandler, authMiddleware, staffMiddleware)
		reportHttp.RegisterRoutes(v1, reportHandler, authMiddleware, staffMiddleware)
	}

	return r
}

// registerOps wires the unauthenticated operational endpoints.
func registerOps(r *gin.Engine, cfg Config) {
	metrics.Register()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if cfg.DBPing != nil {
			if err := cfg.DBPing(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		if cfg.RedisPing != nil {
			if err := cfg.RedisPing(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
