package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/response"
)

type Handler struct {
	service pet.Service
}

func NewHandler(service pet.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreatePetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	p, err := h.service.Create(c.Request.Context(), pet.CreateRequest{
		TenantID:   auth.GetTenantID(c),
		CustomerID: body.CustomerID,
		Name:       body.Name,
		Breed:      body.Breed,
		Notes:      body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewPetResponse(p))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewPetResponse(p))
}

func (h *Handler) List(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	params.Normalize()

	filter := pet.Filter{
		CustomerID: c.Query("customer_id"),
		ListParams: params,
	}

	pets, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]PetResponse, len(pets))
	for i, p := range pets {
		items[i] = NewPetResponse(p)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}
