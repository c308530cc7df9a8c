package http

import (
	"time"

	petHttp "github.com/moosecreates/tailtown-sub004/internal/pet/http"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/waitlist"
)

const dateLayout = "2006-01-02"

type EnqueueBody struct {
	CustomerID          string  `json:"customer_id" binding:"required,uuid"`
	PetID               string  `json:"pet_id" binding:"required,uuid"`
	ServiceType         string  `json:"service_type" binding:"required"`
	SuiteType           string  `json:"suite_type"`
	PreferredResourceID string  `json:"preferred_resource_id" binding:"omitempty,uuid"`
	RequestedStartDate  string  `json:"requested_start_date" binding:"required"`
	RequestedEndDate    *string `json:"requested_end_date"`
	FlexibleDates       bool    `json:"flexible_dates"`
	Notes               string  `json:"notes"`
}

// ListWaitlistRequest defines query parameters for the staff listing.
type ListWaitlistRequest struct {
	request.ListParams
	ServiceType string `form:"service_type" binding:"omitempty,oneof=BOARDING DAYCARE GROOMING TRAINING"`
	Status      string `form:"status" binding:"omitempty,oneof=ACTIVE NOTIFIED CONVERTED EXPIRED CANCELLED"`
	CustomerID  string `form:"customer_id" binding:"omitempty,uuid"`
}

type EntryResponse struct {
	ID                       string         `json:"id"`
	CustomerID               string         `json:"customer_id"`
	CustomerName             string         `json:"customer_name"`
	Pet                      petHttp.PetTag `json:"pet"`
	ServiceType              string         `json:"service_type"`
	SuiteType                string         `json:"suite_type,omitempty"`
	PreferredResourceID      string         `json:"preferred_resource_id,omitempty"`
	RequestedStartDate       string         `json:"requested_start_date"`
	RequestedEndDate         string         `json:"requested_end_date,omitempty"`
	FlexibleDates            bool           `json:"flexible_dates"`
	Status                   string         `json:"status"`
	Position                 int            `json:"position"`
	ExpiresAt                time.Time      `json:"expires_at"`
	NotificationsSent        int            `json:"notifications_sent"`
	ConvertedToReservationID string         `json:"converted_to_reservation_id,omitempty"`
	Notes                    string         `json:"notes,omitempty"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

func NewEntryResponse(e *waitlist.Entry) EntryResponse {
	resp := EntryResponse{
		ID:                       e.ID,
		CustomerID:               e.CustomerID,
		CustomerName:             e.CustomerName,
		Pet:                      petHttp.PetTag{ID: e.PetID, Name: e.PetName},
		ServiceType:              string(e.ServiceType),
		SuiteType:                string(e.SuiteType),
		PreferredResourceID:      e.PreferredResourceID,
		RequestedStartDate:       e.RequestedStartDate.Format(dateLayout),
		FlexibleDates:            e.FlexibleDates,
		Status:                   string(e.Status),
		Position:                 e.Position,
		ExpiresAt:                e.ExpiresAt,
		NotificationsSent:        e.NotificationsSent,
		ConvertedToReservationID: e.ConvertedToReservationID,
		Notes:                    e.Notes,
		CreatedAt:                e.CreatedAt,
		UpdatedAt:                e.UpdatedAt,
	}
	if e.RequestedEndDate != nil {
		resp.RequestedEndDate = e.RequestedEndDate.Format(dateLayout)
	}
	return resp
}

type StandingResponse struct {
	EntryID       string `json:"entry_id"`
	Status        string `json:"status"`
	Position      int    `json:"position"`
	TotalInQueue  int    `json:"total_in_queue"`
	EstimatedWait string `json:"estimated_wait"`
}

func NewStandingResponse(st *waitlist.QueueStanding) StandingResponse {
	return StandingResponse{
		EntryID:       st.EntryID,
		Status:        string(st.Status),
		Position:      st.Position,
		TotalInQueue:  st.TotalInQueue,
		EstimatedWait: st.EstimatedWait,
	}
}

type ConvertBody struct {
	ReservationID string `json:"reservation_id" binding:"required,uuid"`
}

type MatchBody struct {
	ServiceType string `json:"service_type" binding:"required"`
	FreedStart  string `json:"freed_start" binding:"required"`
	FreedEnd    string `json:"freed_end" binding:"required"`
	ResourceID  string `json:"resource_id" binding:"omitempty,uuid"`
	Channel     string `json:"channel" binding:"omitempty,oneof=EMAIL SMS"`
}

type ReindexBody struct {
	ServiceType string `json:"service_type" binding:"required"`
}

type ConfigBody struct {
	EntryExpirationDays             int      `json:"entry_expiration_days" binding:"required,min=1"`
	NotificationExpirationHours     int      `json:"notification_expiration_hours" binding:"required,min=1"`
	MaxNotificationsPerAvailability int      `json:"max_notifications_per_availability" binding:"required,min=1"`
	EnabledServiceTypes             []string `json:"enabled_service_types"`
}

type ConfigResponse struct {
	EntryExpirationDays             int      `json:"entry_expiration_days"`
	NotificationExpirationHours     int      `json:"notification_expiration_hours"`
	MaxNotificationsPerAvailability int      `json:"max_notifications_per_availability"`
	EnabledServiceTypes             []string `json:"enabled_service_types"`
}

func NewConfigResponse(cfg *waitlist.Config) ConfigResponse {
	return ConfigResponse{
		EntryExpirationDays:             cfg.EntryExpirationDays,
		NotificationExpirationHours:     cfg.NotificationExpirationHours,
		MaxNotificationsPerAvailability: cfg.MaxNotificationsPerAvailability,
		EnabledServiceTypes:             cfg.EnabledServiceTypes,
	}
}

type DeliveryBody struct {
	Status string `json:"status" binding:"required,oneof=SENT FAILED"`
}

type ActionBody struct {
	Action string `json:"action" binding:"required,oneof=BOOKED DECLINED"`
}

type NotificationResponse struct {
	ID          string     `json:"id"`
	EntryID     string     `json:"entry_id"`
	Recipient   string     `json:"recipient"`
	Channel     string     `json:"channel"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	ActionTaken string     `json:"action_taken,omitempty"`
	ResourceID  string     `json:"resource_id,omitempty"`
	WindowStart string     `json:"window_start,omitempty"`
	WindowEnd   string     `json:"window_end,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewNotificationResponse(n *waitlist.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:          n.ID,
		EntryID:     n.EntryID,
		Recipient:   n.Recipient,
		Channel:     n.Channel,
		Type:        n.Type,
		Status:      string(n.Status),
		ActionTaken: string(n.ActionTaken),
		ResourceID:  n.ResourceID,
		SentAt:      n.SentAt,
		ExpiresAt:   n.ExpiresAt,
		CreatedAt:   n.CreatedAt,
	}
	if n.WindowStart != nil {
		resp.WindowStart = n.WindowStart.Format(dateLayout)
	}
	if n.WindowEnd != nil {
		resp.WindowEnd = n.WindowEnd.Format(dateLayout)
	}
	return resp
}
