package http

import (
	"time"

	petHttp "github.com/moosecreates/tailtown-sub004/internal/pet/http"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
	resHttp "github.com/moosecreates/tailtown-sub004/internal/resource/http"
)

// dateLayout is the wire format for reservation dates. Reservations are
// date-granular; times of day never cross this API.
const dateLayout = "2006-01-02"

// ListReservationsRequest defines query parameters for listing reservations.
type ListReservationsRequest struct {
	request.ListParams
	CustomerID  string     `form:"customer_id" binding:"omitempty,uuid"`
	PetID       string     `form:"pet_id" binding:"omitempty,uuid"`
	ResourceID  string     `form:"resource_id" binding:"omitempty,uuid"`
	Status      string     `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CHECKED_IN PENDING_PAYMENT PARTIALLY_PAID COMPLETED CANCELLED"`
	ServiceType string     `form:"service_type" binding:"omitempty,oneof=BOARDING DAYCARE GROOMING TRAINING"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
}

// Validate performs custom validation for ListReservationsRequest.
func (r *ListReservationsRequest) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return reservation.ErrInvalidDateRange
	}
	return nil
}

type ReservationResponse struct {
	ID          string               `json:"id"`
	CustomerID  string               `json:"customer_id"`
	Pet         petHttp.PetTag       `json:"pet"`
	Resource    *resHttp.ResourceTag `json:"resource,omitempty"`
	ServiceType string               `json:"service_type"`
	SuiteType   string               `json:"suite_type,omitempty"`
	Status      string               `json:"status"`
	StartDate   string               `json:"start_date"`
	EndDate     string               `json:"end_date"`
	Nights      int                  `json:"nights"`
	Notes       string               `json:"notes,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func NewReservationResponse(rv *reservation.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:          rv.ID,
		CustomerID:  rv.CustomerID,
		Pet:         petHttp.PetTag{ID: rv.PetID, Name: rv.PetName},
		ServiceType: string(rv.ServiceType),
		SuiteType:   string(rv.SuiteType),
		Status:      string(rv.Status),
		StartDate:   rv.StartDate.Format(dateLayout),
		EndDate:     rv.EndDate.Format(dateLayout),
		Nights:      int(rv.EndDate.Sub(rv.StartDate).Hours() / 24),
		Notes:       rv.Notes,
		CreatedAt:   rv.CreatedAt,
		UpdatedAt:   rv.UpdatedAt,
	}
	if rv.ResourceID != "" {
		resp.Resource = &resHttp.ResourceTag{ID: rv.ResourceID, Name: rv.ResourceName}
	}
	return resp
}

type CreateReservationBody struct {
	CustomerID  string `json:"customer_id" binding:"required,uuid"`
	PetID       string `json:"pet_id" binding:"required,uuid"`
	ServiceType string `json:"service_type" binding:"required"`
	SuiteType   string `json:"suite_type"`
	ResourceID  string `json:"resource_id" binding:"omitempty,uuid"`
	Status      string `json:"status"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Notes       string `json:"notes"`
}

type UpdateReservationBody struct {
	StartDate  *string `json:"start_date"`
	EndDate    *string `json:"end_date"`
	Status     *string `json:"status"`
	ResourceID *string `json:"resource_id"`
	Notes      *string `json:"notes"`
}

type ConflictCheckBody struct {
	StartDate            string `json:"start_date" binding:"required"`
	EndDate              string `json:"end_date" binding:"required"`
	ResourceID           string `json:"resource_id" binding:"omitempty,uuid"`
	PetID                string `json:"pet_id" binding:"omitempty,uuid"`
	SuiteType            string `json:"suite_type"`
	ExcludeReservationID string `json:"exclude_reservation_id" binding:"omitempty,uuid"`
}

type ConflictItem struct {
	Kind          string               `json:"kind"`
	ReservationID string               `json:"reservation_id"`
	Pet           petHttp.PetTag       `json:"pet"`
	Resource      *resHttp.ResourceTag `json:"resource,omitempty"`
	Status        string               `json:"status"`
	StartDate     string               `json:"start_date"`
	EndDate       string               `json:"end_date"`
}

type ConflictCheckResponse struct {
	HasConflicts            bool           `json:"has_conflicts"`
	ConflictingReservations []ConflictItem `json:"conflicting_reservations"`
	Warnings                []string       `json:"warnings"`
	Degraded                bool           `json:"degraded,omitempty"`
}

func NewConflictCheckResponse(report *reservation.ConflictReport) ConflictCheckResponse {
	items := make([]ConflictItem, 0, len(report.Conflicts))
	for _, cf := range report.Conflicts {
		item := ConflictItem{
			Kind:          cf.Kind,
			ReservationID: cf.ReservationID,
			Pet:           petHttp.PetTag{ID: cf.PetID, Name: cf.PetName},
			Status:        string(cf.Status),
			StartDate:     cf.StartDate.Format(dateLayout),
			EndDate:       cf.EndDate.Format(dateLayout),
		}
		if cf.ResourceID != "" {
			item.Resource = &resHttp.ResourceTag{ID: cf.ResourceID, Name: cf.ResourceName}
		}
		items = append(items, item)
	}
	warnings := report.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ConflictCheckResponse{
		HasConflicts:            report.HasConflicts,
		ConflictingReservations: items,
		Warnings:                warnings,
		Degraded:                report.Degraded,
	}
}

type AllocateResourceBody struct {
	SuiteType  string `json:"suite_type" binding:"required_without=ResourceID"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	ResourceID string `json:"resource_id" binding:"omitempty,uuid"`
}

type AllocationResponse struct {
	ResourceID   string `json:"resource_id"`
	ResourceName string `json:"resource_name"`
	Mode         string `json:"mode"`
}
