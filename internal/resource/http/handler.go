package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/response"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

type Handler struct {
	service resource.Service
}

func NewHandler(service resource.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	params.Normalize()

	filter := resource.Filter{
		Type:       resource.Type(c.Query("type")),
		ActiveOnly: c.Query("active") == "true",
		Page:       params.Page,
		PageSize:   params.PageSize,
	}

	resources, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ResourceResponse, len(resources))
	for i, r := range resources {
		items[i] = NewResourceResponse(r)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateResourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.Create(c.Request.Context(), resource.CreateRequest{
		TenantID: auth.GetTenantID(c),
		Name:     body.Name,
		Type:     resource.Type(body.Type),
		IsActive: body.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewResourceResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResourceResponse(res))
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateResourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.service.Update(c.Request.Context(), auth.GetTenantID(c), id, resource.UpdateRequest{
		Name:     body.Name,
		IsActive: body.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewResourceResponse(res))
}

func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetTenantID(c), id); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
