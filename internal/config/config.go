package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// AllocationPolicy controls how the resource allocator behaves when a suite
// type is exhausted. Both knobs default to the legacy behavior: overbook
// rather than reject, and grow the pool on demand.
type AllocationPolicy struct {
	// StrictAvailability rejects bookings when every suite of the requested
	// type is taken instead of falling back to the first candidate.
	StrictAvailability bool
	// AutoProvision creates a resource on demand when a tenant has none of
	// the requested type.
	AutoProvision bool
}

// WaitlistDefaults seed a tenant's waitlist configuration until staff
// override it.
type WaitlistDefaults struct {
	EntryExpirationDays         int
	NotificationExpirationHours int
	MaxNotificationsPerMatch    int
}

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string
	JWTSecret    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Allocation AllocationPolicy
	Waitlist   WaitlistDefaults

	SuiteCatalogPath string

	// NotifyRate / NotifyBurst pace the outbound notification queue so a
	// burst of cancellations cannot flood the delivery collaborator.
	NotifyRate  float64
	NotifyBurst int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating tenant tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Redis is optional; without it notification requests are logged only.
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	// Allocation policy. Defaults preserve the availability-over-consistency
	// behavior of the legacy system; flip ALLOC_STRICT_AVAILABILITY to reject
	// instead of overbook.
	cfg.Allocation.StrictAvailability, err = getEnvAsBool("ALLOC_STRICT_AVAILABILITY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOC_STRICT_AVAILABILITY: %w", err)
	}
	cfg.Allocation.AutoProvision, err = getEnvAsBool("ALLOC_AUTO_PROVISION", true)
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOC_AUTO_PROVISION: %w", err)
	}

	// Waitlist defaults, used when a tenant has no stored config.
	cfg.Waitlist.EntryExpirationDays, err = getEnvAsInt("WAITLIST_ENTRY_EXPIRATION_DAYS", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid WAITLIST_ENTRY_EXPIRATION_DAYS: %w", err)
	}
	cfg.Waitlist.NotificationExpirationHours, err = getEnvAsInt("WAITLIST_NOTIFICATION_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid WAITLIST_NOTIFICATION_EXPIRATION_HOURS: %w", err)
	}
	cfg.Waitlist.MaxNotificationsPerMatch, err = getEnvAsInt("WAITLIST_MAX_NOTIFICATIONS", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid WAITLIST_MAX_NOTIFICATIONS: %w", err)
	}

	// Optional suite catalog file (YAML). The compiled-in catalog is used
	// when unset.
	cfg.SuiteCatalogPath = getEnv("SUITE_CATALOG_PATH", "")

	cfg.NotifyRate, err = getEnvAsFloat("NOTIFY_RATE", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_RATE: %w", err)
	}
	cfg.NotifyBurst, err = getEnvAsInt("NOTIFY_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_BURST: %w", err)
	}

	return cfg, nil
}

// EntryExpiration returns the waitlist entry lifetime as a duration.
func (w WaitlistDefaults) EntryExpiration() time.Duration {
	return time.Duration(w.EntryExpirationDays) * 24 * time.Hour
}

// NotificationExpiration returns the notification lifetime as a duration.
func (w WaitlistDefaults) NotificationExpiration() time.Duration {
	return time.Duration(w.NotificationExpirationHours) * time.Hour
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsBool retrieves an environment variable as a boolean, accepting the
// forms strconv.ParseBool does ("1", "t", "true", ...).
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsFloat retrieves an environment variable as a float64.
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid number: %w", key, valStr, err)
	}

	return val, nil
}
