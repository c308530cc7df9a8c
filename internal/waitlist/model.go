package waitlist

import (
	"net/http"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

var (
	ErrEntryNotFound         = apperror.New(http.StatusNotFound, "waitlist entry not found")
	ErrNotificationNotFound  = apperror.New(http.StatusNotFound, "waitlist notification not found")
	ErrTerminalEntry         = apperror.New(http.StatusConflict, "waitlist entry is in a terminal status")
	ErrInvalidServiceType    = apperror.New(http.StatusBadRequest, "invalid service type")
	ErrServiceNotEnabled     = apperror.New(http.StatusBadRequest, "waitlist is not enabled for this service type")
	ErrInvalidDateRange      = apperror.New(http.StatusBadRequest, "requested end date must be after the start date")
	ErrInvalidReason         = apperror.New(http.StatusBadRequest, "dequeue reason must be a terminal status")
	ErrInvalidAction         = apperror.New(http.StatusBadRequest, "invalid notification action")
	ErrInvalidChannel        = apperror.New(http.StatusBadRequest, "invalid notification channel")
	ErrNotificationClosed    = apperror.New(http.StatusConflict, "notification is already resolved")
	ErrCustomerNotFound      = apperror.New(http.StatusNotFound, "customer not found")
	ErrPetNotFound           = apperror.New(http.StatusNotFound, "pet not found")
	ErrPetOwnerMismatch      = apperror.New(http.StatusBadRequest, "pet does not belong to this customer")
	ErrInvalidConfig         = apperror.New(http.StatusBadRequest, "waitlist config values must be positive")
	ErrInvalidDeliveryStatus = apperror.New(http.StatusBadRequest, "delivery status must be SENT or FAILED")
)

type EntryStatus string

const (
	EntryActive    EntryStatus = "ACTIVE"
	EntryNotified  EntryStatus = "NOTIFIED"
	EntryConverted EntryStatus = "CONVERTED"
	EntryExpired   EntryStatus = "EXPIRED"
	EntryCancelled EntryStatus = "CANCELLED"
)

func (s EntryStatus) Valid() bool {
	switch s {
	case EntryActive, EntryNotified, EntryConverted, EntryExpired, EntryCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s EntryStatus) Terminal() bool {
	switch s {
	case EntryConverted, EntryExpired, EntryCancelled:
		return true
	}
	return false
}

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
	NotificationRead    NotificationStatus = "READ"
)

type NotificationAction string

const (
	ActionBooked     NotificationAction = "BOOKED"
	ActionDeclined   NotificationAction = "DECLINED"
	ActionExpired    NotificationAction = "EXPIRED"
	ActionNoResponse NotificationAction = "NO_RESPONSE"
)

const (
	ChannelEmail = "EMAIL"
	ChannelSMS   = "SMS"

	TypeSpotAvailable = "SPOT_AVAILABLE"
)

// Entry is one tenant-scoped waitlist request. Position is a derived dense
// 1..N rank among the ACTIVE entries of the same tenant and service type;
// reindexing is the authority, the stored value is a cache.
type Entry struct {
	ID                       string
	TenantID                 string
	CustomerID               string
	PetID                    string
	ServiceType              reservation.ServiceType
	SuiteType                resource.Type
	PreferredResourceID      string
	RequestedStartDate       time.Time
	RequestedEndDate         *time.Time
	FlexibleDates            bool
	Status                   EntryStatus
	Priority                 time.Time
	Position                 int
	ExpiresAt                time.Time
	NotificationsSent        int
	ConvertedToReservationID string
	Notes                    string

	// Joined display fields.
	PetName       string
	CustomerName  string
	CustomerEmail string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notification is an offer sent to an entry's customer when a matching
// window frees up.
type Notification struct {
	ID          string
	TenantID    string
	EntryID     string
	Recipient   string
	Channel     string
	Type        string
	Status      NotificationStatus
	ActionTaken NotificationAction
	ResourceID  string
	WindowStart *time.Time
	WindowEnd   *time.Time
	SentAt      *time.Time
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Open reports whether the notification still awaits a customer action.
func (n *Notification) Open() bool {
	return n.Status == NotificationPending || n.Status == NotificationSent
}

// Config is the per-tenant waitlist tuning. A tenant without a stored row
// uses the defaults.
type Config struct {
	TenantID                        string
	EntryExpirationDays             int
	NotificationExpirationHours     int
	MaxNotificationsPerAvailability int
	EnabledServiceTypes             []string
	UpdatedAt                       time.Time
}

// DefaultConfig mirrors the column defaults of the waitlist_configs table.
func DefaultConfig(tenantID string) *Config {
	return &Config{
		TenantID:                        tenantID,
		EntryExpirationDays:             30,
		NotificationExpirationHours:     24,
		MaxNotificationsPerAvailability: 3,
		EnabledServiceTypes: []string{
			string(reservation.ServiceBoarding),
			string(reservation.ServiceDaycare),
			string(reservation.ServiceGrooming),
			string(reservation.ServiceTraining),
		},
	}
}

func (c *Config) ServiceEnabled(t reservation.ServiceType) bool {
	for _, s := range c.EnabledServiceTypes {
		if s == string(t) {
			return true
		}
	}
	return false
}

func (c *Config) EntryExpiration() time.Duration {
	return time.Duration(c.EntryExpirationDays) * 24 * time.Hour
}

func (c *Config) NotificationExpiration() time.Duration {
	return time.Duration(c.NotificationExpirationHours) * time.Hour
}

// QueueStanding is the answer to "where am I in line".
type QueueStanding struct {
	EntryID       string
	Status        EntryStatus
	Position      int
	TotalInQueue  int
	EstimatedWait string
}

// EstimateWait maps a queue position to a coarse wait band. It is an
// approximation for customer messaging, never a promise.
func EstimateWait(position int) string {
	switch {
	case position <= 0:
		return "unknown"
	case position == 1:
		return "next"
	case position <= 3:
		return "1-3 days"
	case position <= 7:
		return "3-7 days"
	case position <= 14:
		return "1-2 weeks"
	default:
		return "2+ weeks"
	}
}

// Filter defines parameters for listing waitlist entries.
type Filter struct {
	ServiceType string
	Status      string
	CustomerID  string
	Page        int
	PageSize    int
}
