package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/response"
	"github.com/moosecreates/tailtown-sub004/internal/tenant"
)

type Handler struct {
	service tenant.Service
	jwt     *auth.JWTManager
}

func NewHandler(service tenant.Service, jwt *auth.JWTManager) *Handler {
	return &Handler{service: service, jwt: jwt}
}

// Create provisions a tenant and mints its first API token.
func (h *Handler) Create(c *gin.Context) {
	var body CreateTenantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	t, err := h.service.Create(c.Request.Context(), tenant.CreateRequest{
		Name: body.Name,
		Slug: body.Slug,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateToken(t.ID, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreatedResponse{
		TenantResponse: NewTenantResponse(t),
		Token:          token,
	})
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewTenantResponse(t))
}
