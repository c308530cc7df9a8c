package reservation

import (
	"net/http"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

var (
	ErrNotFound             = apperror.New(http.StatusNotFound, "reservation not found")
	ErrInvalidDateRange     = apperror.New(http.StatusBadRequest, "start date must be before end date")
	ErrInvalidStatus        = apperror.New(http.StatusBadRequest, "invalid reservation status")
	ErrInvalidServiceType   = apperror.New(http.StatusBadRequest, "invalid service type")
	ErrSuiteTypeRequired    = apperror.New(http.StatusBadRequest, "suite type is required for services that need a suite")
	ErrResourceRequired     = apperror.New(http.StatusBadRequest, "reservations for this service type need a resource")
	ErrTerminalStatus       = apperror.New(http.StatusConflict, "reservation is in a terminal status")
	ErrPetNotFound          = apperror.New(http.StatusNotFound, "pet not found")
	ErrCustomerNotFound     = apperror.New(http.StatusNotFound, "customer not found")
	ErrPetOwnerMismatch     = apperror.New(http.StatusBadRequest, "pet does not belong to this customer")
	ErrResourceNotFound     = apperror.New(http.StatusNotFound, "resource not found")
	ErrResourceTypeMismatch = apperror.New(http.StatusBadRequest, "resource type does not match the requested suite type")
	ErrResourceInactive     = apperror.NewKind(http.StatusConflict, apperror.KindUnavailable, "resource is not active")
	ErrResourceUnavailable  = apperror.NewKind(http.StatusConflict, apperror.KindUnavailable, "resource not available for the requested dates")
	ErrPetConflict          = apperror.New(http.StatusConflict, "pet already has a reservation for overlapping dates")
	ErrSuitesExhausted      = apperror.NewKind(http.StatusConflict, apperror.KindUnavailable, "all suites of the requested type are booked")
	ErrNoResourcesOfType    = apperror.NewKind(http.StatusConflict, apperror.KindUnavailable, "no active resources of the requested type")
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCheckedIn      Status = "CHECKED_IN"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPartiallyPaid  Status = "PARTIALLY_PAID"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

// BlockingStatuses are the states that hold a resource and a pet for the
// reservation's date range. PENDING holds nothing; it is a quote, not a
// commitment.
var BlockingStatuses = []Status{StatusConfirmed, StatusCheckedIn, StatusPendingPayment, StatusPartiallyPaid}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusPendingPayment,
		StatusPartiallyPaid, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Blocking reports whether the status counts toward conflict checks.
func (s Status) Blocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type ServiceType string

const (
	ServiceBoarding ServiceType = "BOARDING"
	ServiceDaycare  ServiceType = "DAYCARE"
	ServiceGrooming ServiceType = "GROOMING"
	ServiceTraining ServiceType = "TRAINING"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceBoarding, ServiceDaycare, ServiceGrooming, ServiceTraining:
		return true
	}
	return false
}

// RequiresSuite reports whether the service occupies a physical resource.
// Grooming and training are appointment services; their reservations carry
// no resource.
func (t ServiceType) RequiresSuite() bool {
	return t == ServiceBoarding || t == ServiceDaycare
}

// Reservation is a tenant-scoped stay or appointment over a half-open date
// range [StartDate, EndDate).
type Reservation struct {
	ID           string
	TenantID     string
	CustomerID   string
	PetID        string
	PetName      string
	ResourceID   string // empty when the service needs no suite
	ResourceName string
	ServiceType  ServiceType
	SuiteType    resource.Type // empty when the service needs no suite
	Status       Status
	StartDate    time.Time
	EndDate      time.Time
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filter defines parameters for listing reservations.
type Filter struct {
	CustomerID  string
	PetID       string
	ResourceID  string
	Status      string
	ServiceType string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
}
