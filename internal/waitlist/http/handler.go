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
	"github.com/moosecreates/tailtown-sub004/internal/waitlist"
)

type Handler struct {
	service waitlist.Service
	matcher waitlist.Matcher
}

func NewHandler(service waitlist.Service, matcher waitlist.Matcher) *Handler {
	return &Handler{service: service, matcher: matcher}
}

func parseDate(c *gin.Context, field, value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " must be formatted as YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) Enqueue(c *gin.Context) {
	var body EnqueueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, ok := parseDate(c, "requested_start_date", body.RequestedStartDate)
	if !ok {
		return
	}
	var end *time.Time
	if body.RequestedEndDate != nil {
		d, ok := parseDate(c, "requested_end_date", *body.RequestedEndDate)
		if !ok {
			return
		}
		end = &d
	}

	entry, err := h.service.Enqueue(c.Request.Context(), waitlist.EnqueueRequest{
		TenantID:            auth.GetTenantID(c),
		CustomerID:          body.CustomerID,
		PetID:               body.PetID,
		ServiceType:         reservation.ServiceType(body.ServiceType),
		SuiteType:           resource.Type(body.SuiteType),
		PreferredResourceID: body.PreferredResourceID,
		RequestedStartDate:  start,
		RequestedEndDate:    end,
		FlexibleDates:       body.FlexibleDates,
		Notes:               body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewEntryResponse(entry))
}

func (h *Handler) List(c *gin.Context) {
	var req ListWaitlistRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	req.Normalize()

	entries, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), waitlist.Filter{
		ServiceType: req.ServiceType,
		Status:      req.Status,
		CustomerID:  req.CustomerID,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = NewEntryResponse(e)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	entry, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry))
}

func (h *Handler) Position(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	standing, err := h.service.PositionOf(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewStandingResponse(standing))
}

func (h *Handler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	entry, err := h.service.Dequeue(c.Request.Context(), auth.GetTenantID(c), id, waitlist.EntryCancelled)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry))
}

func (h *Handler) Convert(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body ConvertBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	entry, err := h.service.Convert(c.Request.Context(), auth.GetTenantID(c), id, body.ReservationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewEntryResponse(entry))
}

// Match is the manual availability trigger: staff announce a freed window
// without a backing cancellation (a blocked-off suite reopening, say).
func (h *Handler) Match(c *gin.Context) {
	var body MatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	start, ok := parseDate(c, "freed_start", body.FreedStart)
	if !ok {
		return
	}
	end, ok := parseDate(c, "freed_end", body.FreedEnd)
	if !ok {
		return
	}

	notifications, err := h.matcher.MatchAvailability(c.Request.Context(), waitlist.MatchRequest{
		TenantID:    auth.GetTenantID(c),
		ServiceType: reservation.ServiceType(body.ServiceType),
		FreedStart:  start,
		FreedEnd:    end,
		ResourceID:  body.ResourceID,
		Channel:     body.Channel,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NewNotificationResponse(n)
	}

	c.JSON(http.StatusOK, gin.H{"notified": len(items), "notifications": items})
}

func (h *Handler) Reindex(c *gin.Context) {
	var body ReindexBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	changed, err := h.service.Reindex(c.Request.Context(), auth.GetTenantID(c), reservation.ServiceType(body.ServiceType))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.service.GetConfig(c.Request.Context(), auth.GetTenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewConfigResponse(cfg))
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var body ConfigBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cfg, err := h.service.UpdateConfig(c.Request.Context(), auth.GetTenantID(c), waitlist.ConfigUpdate{
		EntryExpirationDays:             body.EntryExpirationDays,
		NotificationExpirationHours:     body.NotificationExpirationHours,
		MaxNotificationsPerAvailability: body.MaxNotificationsPerAvailability,
		EnabledServiceTypes:             body.EnabledServiceTypes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewConfigResponse(cfg))
}

func (h *Handler) Notifications(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	notifications, err := h.service.ListNotifications(c.Request.Context(), auth.GetTenantID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NewNotificationResponse(n)
	}

	c.JSON(http.StatusOK, items)
}

// Delivery is the callback the delivery collaborator hits after it tried
// to send the message it popped off the queue.
func (h *Handler) Delivery(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body DeliveryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	n, err := h.service.MarkNotificationDelivery(c.Request.Context(), auth.GetTenantID(c), id, waitlist.NotificationStatus(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewNotificationResponse(n))
}

func (h *Handler) Action(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	var body ActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	n, err := h.service.RecordNotificationAction(c.Request.Context(), auth.GetTenantID(c), id, waitlist.NotificationAction(body.Action))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewNotificationResponse(n))
}
