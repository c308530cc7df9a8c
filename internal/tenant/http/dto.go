package http

import (
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/tenant"
)

type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTenantResponse(t *tenant.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
	}
}

// CreatedResponse additionally carries the tenant's first API token so the
// operator can hand it to the resort without a second round trip.
type CreatedResponse struct {
	TenantResponse
	Token string `json:"token"`
}

type CreateTenantBody struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}
