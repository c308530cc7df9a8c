package pet

import (
	"net/http"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "pet not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "pet name is required")
	ErrCustomerNotFound = apperror.New(http.StatusNotFound, "customer not found")
)

// Pet belongs to exactly one customer within a tenant.
type Pet struct {
	ID         string
	TenantID   string
	CustomerID string
	Name       string
	Breed      string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
