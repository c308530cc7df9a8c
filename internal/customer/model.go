package customer

import (
	"net/http"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "customer not found")
	ErrNameRequired = apperror.New(http.StatusBadRequest, "customer name is required")
)

// Customer is a pet owner. Rows are tenant-scoped; a customer never crosses
// resorts.
type Customer struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
