package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moosecreates/tailtown-sub004/internal/auth"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/response"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

func parseDate(c *gin.Context, field, value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " must be formatted as YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func parseOptionalDate(c *gin.Context, field string, value *string) (*time.Time, bool) {
	if value == nil {
		return nil, true
	}
	t, ok := parseDate(c, field, *value)
	if !ok {
		return nil, false
	}
	return &t, true
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, ok := parseDate(c, "start_date", body.StartDate)
	if !ok {
		return
	}
	end, ok := parseDate(c, "end_date", body.EndDate)
	if !ok {
		return
	}

	rv, warnings, err := h.service.Create(c.Request.Context(), reservation.CreateRequest{
		TenantID:    auth.GetTenantID(c),
		CustomerID:  body.CustomerID,
		PetID:       body.PetID,
		ServiceType: reservation.ServiceType(body.ServiceType),
		SuiteType:   resource.Type(body.SuiteType),
		ResourceID:  body.ResourceID,
		Status:      reservation.Status(body.Status),
		StartDate:   start,
		EndDate:     end,
		Notes:       body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.NewResult(NewReservationResponse(rv), warnings))
}

func (h *Handler) List(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	filter := reservation.Filter{
		CustomerID:  req.CustomerID,
		PetID:       req.PetID,
		ResourceID:  req.ResourceID,
		Status:      req.Status,
		ServiceType: req.ServiceType,
		From:        req.From,
		To:          req.To,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}

	rvs, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReservationResponse, len(rvs))
	for i, rv := range rvs {
		items[i] = NewReservationResponse(rv)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	rv, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rv))
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body UpdateReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	start, ok := parseOptionalDate(c, "start_date", body.StartDate)
	if !ok {
		return
	}
	end, ok := parseOptionalDate(c, "end_date", body.EndDate)
	if !ok {
		return
	}

	rv, warnings, err := h.service.Update(c.Request.Context(), auth.GetTenantID(c), id, reservation.UpdateRequest{
		StartDate:  start,
		EndDate:    end,
		Status:     body.Status,
		ResourceID: body.ResourceID,
		Notes:      body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewResult(NewReservationResponse(rv), warnings))
}

func (h *Handler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	rv, err := h.service.Cancel(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rv))
}

func (h *Handler) CheckIn(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	rv, err := h.service.CheckIn(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rv))
}

func (h *Handler) Complete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	rv, err := h.service.Complete(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(rv))
}

func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	warnings, err := h.service.Delete(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewResult(gin.H{"id": id}, warnings))
}

func (h *Handler) ConflictCheck(c *gin.Context) {
	var body ConflictCheckBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, ok := parseDate(c, "start_date", body.StartDate)
	if !ok {
		return
	}
	end, ok := parseDate(c, "end_date", body.EndDate)
	if !ok {
		return
	}

	report, err := h.service.CheckConflicts(c.Request.Context(), reservation.CheckRequest{
		TenantID:             auth.GetTenantID(c),
		StartDate:            start,
		EndDate:              end,
		ResourceID:           body.ResourceID,
		PetID:                body.PetID,
		SuiteType:            resource.Type(body.SuiteType),
		ExcludeReservationID: body.ExcludeReservationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewConflictCheckResponse(report))
}

func (h *Handler) AllocateResource(c *gin.Context) {
	var body AllocateResourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, ok := parseDate(c, "start_date", body.StartDate)
	if !ok {
		return
	}
	end, ok := parseDate(c, "end_date", body.EndDate)
	if !ok {
		return
	}

	// Dry run: nothing is persisted, the caller books with the returned
	// resource afterwards.
	alloc, err := h.service.AllocateResource(c.Request.Context(), reservation.AllocateRequest{
		TenantID:           auth.GetTenantID(c),
		SuiteType:          resource.Type(body.SuiteType),
		StartDate:          start,
		EndDate:            end,
		ExplicitResourceID: body.ResourceID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := AllocationResponse{
		ResourceID:   alloc.ResourceID,
		ResourceName: alloc.ResourceName,
		Mode:         alloc.Mode,
	}
	c.JSON(http.StatusOK, response.NewResult(resp, alloc.Warnings))
}
