package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/events"
	"github.com/moosecreates/tailtown-sub004/internal/metrics"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

type CreateRequest struct {
	TenantID    string
	CustomerID  string
	PetID       string
	ServiceType ServiceType
	SuiteType   resource.Type
	ResourceID  string
	Status      Status
	StartDate   time.Time
	EndDate     time.Time
	Notes       string
}

type UpdateRequest struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *string
	ResourceID *string
	Notes      *string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Reservation, []string, error)
	GetByID(ctx context.Context, tenantID, id string) (*Reservation, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Reservation, int, error)
	Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Reservation, []string, error)
	Cancel(ctx context.Context, tenantID, id string) (*Reservation, error)
	CheckIn(ctx context.Context, tenantID, id string) (*Reservation, error)
	Complete(ctx context.Context, tenantID, id string) (*Reservation, error)
	Delete(ctx context.Context, tenantID, id string) ([]string, error)

	CheckConflicts(ctx context.Context, req CheckRequest) (*ConflictReport, error)
	AllocateResource(ctx context.Context, req AllocateRequest) (*Allocation, error)
}

type service struct {
	repo      Repository
	checker   ConflictChecker
	allocator Allocator
	pets      pet.Service
	customers customer.Service
	bus       *events.Bus
	logger    zerolog.Logger
}

func NewService(repo Repository, checker ConflictChecker, allocator Allocator, pets pet.Service, customers customer.Service, bus *events.Bus, logger zerolog.Logger) Service {
	return &service{
		repo:      repo,
		checker:   checker,
		allocator: allocator,
		pets:      pets,
		customers: customers,
		bus:       bus,
		logger:    logger,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Reservation, []string, error) {
	// 1. Validate date range
	start := daterange.Date(req.StartDate)
	end := daterange.Date(req.EndDate)
	if !start.Before(end) {
		return nil, nil, ErrInvalidDateRange
	}

	// 2. Validate service type and status
	if !req.ServiceType.Valid() {
		return nil, nil, ErrInvalidServiceType
	}
	status := req.Status
	if status == "" {
		status = StatusConfirmed
	}
	if !status.Valid() {
		return nil, nil, ErrInvalidStatus
	}

	var warnings []string

	// 3. Resolve the suite requirement
	needsSuite := req.ServiceType.RequiresSuite()
	if needsSuite && req.ResourceID == "" && !req.SuiteType.Valid() {
		return nil, nil, ErrSuiteTypeRequired
	}
	if !needsSuite && (req.ResourceID != "" || req.SuiteType != "") {
		warnings = append(warnings, fmt.Sprintf("service type %s does not use a suite, resource ignored", req.ServiceType))
		req.ResourceID = ""
		req.SuiteType = ""
	}

	// 4. Validate customer and pet
	if _, err := s.customers.GetByID(ctx, req.TenantID, req.CustomerID); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, nil, ErrCustomerNotFound
		}
		return nil, nil, err
	}
	p, err := s.pets.GetByID(ctx, req.TenantID, req.PetID)
	if err != nil {
		if errors.Is(err, pet.ErrNotFound) {
			return nil, nil, ErrPetNotFound
		}
		return nil, nil, err
	}
	if p.CustomerID != req.CustomerID {
		return nil, nil, ErrPetOwnerMismatch
	}

	// 5. Pet-level conflict pre-check. Resource availability is decided by
	// the allocator under lock, so only the pet dimension is checked here.
	report, err := s.checker.Check(ctx, CheckRequest{
		TenantID:  req.TenantID,
		PetID:     req.PetID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, nil, err
	}
	if report.HasConflicts && status.Blocking() {
		return nil, nil, ErrPetConflict
	}
	warnings = append(warnings, report.Warnings...)

	rv := &Reservation{
		TenantID:    req.TenantID,
		CustomerID:  req.CustomerID,
		PetID:       req.PetID,
		ServiceType: req.ServiceType,
		Status:      status,
		StartDate:   start,
		EndDate:     end,
		Notes:       req.Notes,
	}

	// 6. Allocate and persist. Suite services are written inside the
	// allocation transaction; appointment services go straight in.
	if needsSuite {
		alloc, err := s.allocator.Allocate(ctx, AllocateRequest{
			TenantID:           req.TenantID,
			SuiteType:          req.SuiteType,
			StartDate:          start,
			EndDate:            end,
			ExplicitResourceID: req.ResourceID,
			Reservation:        rv,
		})
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, alloc.Warnings...)
	} else {
		if err := s.repo.Create(ctx, rv); err != nil {
			return nil, nil, err
		}
	}

	created, err := s.repo.GetByID(ctx, req.TenantID, rv.ID)
	if err != nil {
		return nil, nil, err
	}

	metrics.IncReservationCreated(string(created.ServiceType))
	s.publish(ctx, events.TypeReservationCreated, created)
	s.logger.Info().
		Str("tenantID", created.TenantID).
		Str("reservationID", created.ID).
		Str("serviceType", string(created.ServiceType)).
		Str("status", string(created.Status)).
		Msg("reservation created")

	return created, warnings, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Reservation, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Reservation, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Reservation, []string, error) {
	rv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if rv.Status.Terminal() {
		return nil, nil, ErrTerminalStatus
	}
	prev := *rv

	var warnings []string

	// Stage new values
	newStart := rv.StartDate
	newEnd := rv.EndDate
	datesChanged := false
	if req.StartDate != nil {
		newStart = daterange.Date(*req.StartDate)
		datesChanged = true
	}
	if req.EndDate != nil {
		newEnd = daterange.Date(*req.EndDate)
		datesChanged = true
	}
	if datesChanged && !newStart.Before(newEnd) {
		return nil, nil, ErrInvalidDateRange
	}

	if req.Status != nil {
		st := Status(*req.Status)
		if !st.Valid() {
			return nil, nil, ErrInvalidStatus
		}
		rv.Status = st
	}

	resourceChanged := false
	newResourceID := rv.ResourceID
	if req.ResourceID != nil && *req.ResourceID != rv.ResourceID {
		switch {
		case !rv.ServiceType.RequiresSuite():
			warnings = append(warnings, fmt.Sprintf("service type %s does not use a suite, resource ignored", rv.ServiceType))
		case *req.ResourceID == "":
			return nil, nil, ErrResourceRequired
		default:
			newResourceID = *req.ResourceID
			resourceChanged = true
		}
	}

	if req.Notes != nil {
		rv.Notes = *req.Notes
	}
	rv.StartDate = newStart
	rv.EndDate = newEnd

	// A status flip into the blocking set claims the window for real: a
	// quote confirmed after the suite filled up must be re-verified, not
	// waved through.
	becameBlocking := !prev.Status.Blocking() && rv.Status.Blocking()

	// Pet re-check when the window moved or started to block.
	if datesChanged || becameBlocking {
		report, err := s.checker.Check(ctx, CheckRequest{
			TenantID:             tenantID,
			PetID:                rv.PetID,
			StartDate:            newStart,
			EndDate:              newEnd,
			ExcludeReservationID: rv.ID,
		})
		if err != nil {
			return nil, nil, err
		}
		if report.HasConflicts && rv.Status.Blocking() {
			return nil, nil, ErrPetConflict
		}
		warnings = append(warnings, report.Warnings...)
	}

	// A moved, re-dated or newly blocking suite reservation goes back
	// through the allocator so the write happens under the resource lock.
	// Moving to another resource re-types the reservation from the target.
	if rv.ServiceType.RequiresSuite() && (datesChanged || resourceChanged || becameBlocking) {
		suiteType := rv.SuiteType
		if resourceChanged {
			suiteType = ""
		}
		alloc, err := s.allocator.Allocate(ctx, AllocateRequest{
			TenantID:             tenantID,
			SuiteType:            suiteType,
			StartDate:            newStart,
			EndDate:              newEnd,
			ExplicitResourceID:   newResourceID,
			ExcludeReservationID: rv.ID,
			ForUpdate:            true,
			Reservation:          rv,
		})
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, alloc.Warnings...)
	} else {
		if err := s.repo.Update(ctx, rv); err != nil {
			return nil, nil, err
		}
	}

	updated, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}

	// Whatever the previous version held is (at least partly) free now.
	// The matcher re-verifies availability before anyone converts.
	if prev.Status.Blocking() && (!updated.Status.Blocking() || datesChanged || resourceChanged) {
		s.freeWindow(ctx, &prev, prev.StartDate, prev.EndDate)
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("reservationID", id).
		Msg("reservation updated")

	return updated, warnings, nil
}

func (s *service) Cancel(ctx context.Context, tenantID, id string) (*Reservation, error) {
	rv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rv.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	wasBlocking := rv.Status.Blocking()
	rv.Status = StatusCancelled
	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, err
	}

	if wasBlocking {
		s.freeWindow(ctx, rv, rv.StartDate, rv.EndDate)
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("reservationID", id).
		Msg("reservation cancelled")

	return rv, nil
}

func (s *service) CheckIn(ctx context.Context, tenantID, id string) (*Reservation, error) {
	rv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rv.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	switch rv.Status {
	case StatusPending, StatusConfirmed, StatusPendingPayment, StatusPartiallyPaid:
	default:
		return nil, ErrInvalidStatus
	}

	// Checking in a PENDING reservation makes it blocking. The pet
	// exclusion constraint backstops the pet dimension; the resource
	// dimension has no constraint, so the suite is re-verified under the
	// resource lock before the status lands.
	wasBlocking := rv.Status.Blocking()
	rv.Status = StatusCheckedIn
	if !wasBlocking && rv.ServiceType.RequiresSuite() && rv.ResourceID != "" {
		alloc, err := s.allocator.Allocate(ctx, AllocateRequest{
			TenantID:             tenantID,
			StartDate:            rv.StartDate,
			EndDate:              rv.EndDate,
			ExplicitResourceID:   rv.ResourceID,
			ExcludeReservationID: rv.ID,
			ForUpdate:            true,
			Reservation:          rv,
		})
		if err != nil {
			return nil, err
		}
		for _, w := range alloc.Warnings {
			s.logger.Warn().
				Str("tenantID", tenantID).
				Str("reservationID", id).
				Msg(w)
		}
	} else if err := s.repo.Update(ctx, rv); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("reservationID", id).
		Msg("reservation checked in")

	return rv, nil
}

func (s *service) Complete(ctx context.Context, tenantID, id string) (*Reservation, error) {
	rv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rv.Status.Terminal() {
		return nil, ErrTerminalStatus
	}
	if rv.Status != StatusCheckedIn {
		return nil, ErrInvalidStatus
	}

	rv.Status = StatusCompleted
	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, err
	}

	// Early checkout frees the remaining nights.
	if today := daterange.Today(); today.Before(rv.EndDate) {
		start := rv.StartDate
		if today.After(start) {
			start = today
		}
		s.freeWindow(ctx, rv, start, rv.EndDate)
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("reservationID", id).
		Msg("reservation completed")

	return rv, nil
}

func (s *service) Delete(ctx context.Context, tenantID, id string) ([]string, error) {
	rv, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var warnings []string
	today := daterange.Today()
	switch {
	case rv.Status == StatusCheckedIn:
		warnings = append(warnings, "deleting a checked-in reservation")
	case !today.Before(rv.EndDate):
		warnings = append(warnings, "deleting a past reservation")
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return nil, err
	}

	if rv.Status.Blocking() {
		s.freeWindow(ctx, rv, rv.StartDate, rv.EndDate)
	}

	s.logger.Info().
		Str("tenantID", tenantID).
		Str("reservationID", id).
		Msg("reservation deleted")

	return warnings, nil
}

func (s *service) CheckConflicts(ctx context.Context, req CheckRequest) (*ConflictReport, error) {
	return s.checker.Check(ctx, req)
}

func (s *service) AllocateResource(ctx context.Context, req AllocateRequest) (*Allocation, error) {
	return s.allocator.Allocate(ctx, req)
}

func (s *service) freeWindow(ctx context.Context, rv *Reservation, start, end time.Time) {
	s.publish(ctx, events.TypeSpotFreed, events.SpotFreed{
		TenantID:    rv.TenantID,
		ResourceID:  rv.ResourceID,
		SuiteType:   string(rv.SuiteType),
		ServiceType: string(rv.ServiceType),
		StartDate:   start,
		EndDate:     end,
	})
}

func (s *service) publish(ctx context.Context, eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("event handler failed")
	}
}
