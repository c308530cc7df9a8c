package http

import (
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewResourceResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		Type:      string(r.Type),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ResourceTag is a brief representation of a resource for embedding in
// other responses.
type ResourceTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateResourceBody struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type UpdateResourceBody struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}
