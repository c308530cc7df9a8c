package resource

import (
	"net/http"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(http.StatusNotFound, "resource not found")
	ErrNameRequired    = apperror.New(http.StatusBadRequest, "resource name is required")
	ErrInvalidType     = apperror.New(http.StatusBadRequest, "invalid suite type")
	ErrNameTaken       = apperror.New(http.StatusConflict, "a resource with this name already exists")
	ErrHasReservations = apperror.New(http.StatusConflict, "resource has reservations; deactivate it instead")
)

// Type is the suite class of a physical unit. Resources of the same type are
// interchangeable for allocation.
type Type string

const (
	TypeVIPSuite          Type = "VIP_SUITE"
	TypeStandardPlusSuite Type = "STANDARD_PLUS_SUITE"
	TypeStandardSuite     Type = "STANDARD_SUITE"
	TypePlayArea          Type = "PLAY_AREA"
)

// AllTypes lists the suite classes in display order.
var AllTypes = []Type{TypeVIPSuite, TypeStandardPlusSuite, TypeStandardSuite, TypePlayArea}

// Valid reports whether t is a known suite type.
func (t Type) Valid() bool {
	switch t {
	case TypeVIPSuite, TypeStandardPlusSuite, TypeStandardSuite, TypePlayArea:
		return true
	}
	return false
}

// Resource represents a bookable physical unit (kennel, suite, play area).
type Resource struct {
	ID        string
	TenantID  string
	Name      string
	Type      Type
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Type       Type
	ActiveOnly bool
	Page       int
	PageSize   int
}
