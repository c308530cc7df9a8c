package http

import (
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/pet"
)

type PetResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Breed      string    `json:"breed,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewPetResponse(p *pet.Pet) PetResponse {
	return PetResponse{
		ID:         p.ID,
		CustomerID: p.CustomerID,
		Name:       p.Name,
		Breed:      p.Breed,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt,
	}
}

// PetTag is a brief representation of a pet for embedding in other
// responses.
type PetTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreatePetBody struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	Name       string `json:"name" binding:"required"`
	Breed      string `json:"breed"`
	Notes      string `json:"notes"`
}
