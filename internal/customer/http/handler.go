package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/response"
)

type Handler struct {
	service customer.Service
}

func NewHandler(service customer.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateCustomerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cust, err := h.service.Create(c.Request.Context(), customer.CreateRequest{
		TenantID: auth.GetTenantID(c),
		Name:     body.Name,
		Email:    body.Email,
		Phone:    body.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCustomerResponse(cust))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	cust, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCustomerResponse(cust))
}

func (h *Handler) List(c *gin.Context) {
	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	params.Normalize()

	customers, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CustomerResponse, len(customers))
	for i, cust := range customers {
		items[i] = NewCustomerResponse(cust)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}
