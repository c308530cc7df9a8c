package tenant

import (
	"net/http"
	"regexp"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "tenant not found")
	ErrNameRequired = apperror.New(http.StatusBadRequest, "tenant name is required")
	ErrInvalidSlug  = apperror.New(http.StatusBadRequest, "slug must be lowercase letters, digits and hyphens")
	ErrSlugTaken    = apperror.New(http.StatusConflict, "slug already in use")
	ErrInactive     = apperror.New(http.StatusForbidden, "tenant is deactivated")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Tenant is one pet resort operating on the platform. Every domain row and
// every query is scoped by tenant ID.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	IsActive  bool
	CreatedAt time.Time
}

// ValidSlug reports whether s is acceptable as a tenant slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
