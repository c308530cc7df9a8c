package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/metrics"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

// Allocation modes.
const (
	ModeExplicit    = "explicit"
	ModeAuto        = "auto"
	ModeFallback    = "fallback"
	ModeProvisioned = "provisioned"
)

// AllocateRequest asks for a concrete resource for a reservation window.
type AllocateRequest struct {
	TenantID             string
	SuiteType            resource.Type
	StartDate            time.Time
	EndDate              time.Time
	ExplicitResourceID   string
	ExcludeReservationID string

	// ForUpdate marks a reallocation of an existing reservation. Staff
	// moving a reservation onto a busy resource get a warning instead of
	// a rejection, unless strict availability is on.
	ForUpdate bool

	// Reservation, when set, is saved in the same transaction that holds
	// the allocation locks, so the chosen slot cannot be stolen between
	// the availability check and the write.
	Reservation *Reservation
}

// Allocation is the outcome of a successful allocation.
type Allocation struct {
	ResourceID   string
	ResourceName string
	Mode         string
	Warnings     []string
}

// Allocator resolves which physical resource a reservation occupies.
type Allocator interface {
	Allocate(ctx context.Context, req AllocateRequest) (*Allocation, error)
}

type allocator struct {
	repo    Repository
	policy  config.AllocationPolicy
	catalog *config.SuiteCatalog
	logger  zerolog.Logger
}

func NewAllocator(repo Repository, policy config.AllocationPolicy, catalog *config.SuiteCatalog, logger zerolog.Logger) Allocator {
	return &allocator{repo: repo, policy: policy, catalog: catalog, logger: logger}
}

func (a *allocator) Allocate(ctx context.Context, req AllocateRequest) (*Allocation, error) {
	start := daterange.Date(req.StartDate)
	end := daterange.Date(req.EndDate)
	if !start.Before(end) {
		return nil, ErrInvalidDateRange
	}

	if req.ExplicitResourceID != "" {
		return a.allocateExplicit(ctx, req, start, end)
	}
	if !req.SuiteType.Valid() {
		return nil, ErrSuiteTypeRequired
	}
	return a.allocateAuto(ctx, req, start, end)
}

// allocateExplicit validates and locks the requested resource.
func (a *allocator) allocateExplicit(ctx context.Context, req AllocateRequest, start, end time.Time) (*Allocation, error) {
	alloc := &Allocation{Mode: ModeExplicit}

	err := a.repo.WithResourceLock(ctx, req.TenantID, req.ExplicitResourceID, func(scope AllocationScope) error {
		res := scope.Resources()[0]
		if !res.IsActive {
			return ErrResourceInactive
		}
		if req.SuiteType != "" && res.Type != req.SuiteType {
			return ErrResourceTypeMismatch
		}
		alloc.ResourceID = res.ID
		alloc.ResourceName = res.Name

		busy, err := scope.HasResourceOverlap(ctx, res.ID, start, end, req.ExcludeReservationID)
		if err != nil {
			return fmt.Errorf("check resource availability: %w", err)
		}
		if busy {
			if !req.ForUpdate || a.policy.StrictAvailability {
				return ErrResourceUnavailable
			}
			alloc.Warnings = append(alloc.Warnings, "resource is not available for the requested dates")
		}

		return persistInScope(ctx, scope, req.Reservation, res)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncAllocation(alloc.Mode)
	return alloc, nil
}

// allocateAuto picks the first free resource of the requested type, all
// candidates locked in name order for the duration of the transaction.
func (a *allocator) allocateAuto(ctx context.Context, req AllocateRequest, start, end time.Time) (*Allocation, error) {
	alloc := &Allocation{Mode: ModeAuto}

	err := a.repo.WithAllocationLock(ctx, req.TenantID, req.SuiteType, func(scope AllocationScope) error {
		candidates := scope.Resources()
		if len(candidates) == 0 {
			return a.provision(ctx, scope, req, alloc)
		}

		for _, cand := range candidates {
			busy, err := scope.HasResourceOverlap(ctx, cand.ID, start, end, req.ExcludeReservationID)
			if err != nil {
				return fmt.Errorf("check resource availability: %w", err)
			}
			if !busy {
				alloc.ResourceID = cand.ID
				alloc.ResourceName = cand.Name
				return persistInScope(ctx, scope, req.Reservation, cand)
			}
		}

		if a.policy.StrictAvailability {
			return ErrSuitesExhausted
		}

		// Every candidate is booked. Assign the first one anyway so the
		// booking succeeds; the overlap is reported, not hidden.
		first := candidates[0]
		alloc.Mode = ModeFallback
		alloc.ResourceID = first.ID
		alloc.ResourceName = first.Name
		alloc.Warnings = append(alloc.Warnings,
			fmt.Sprintf("all suites of type %s are booked, assigned %s anyway", req.SuiteType, first.Name))
		a.logger.Warn().
			Str("tenantID", req.TenantID).
			Str("suiteType", string(req.SuiteType)).
			Str("resource", first.Name).
			Msg("allocation fallback: assigned busy resource")

		return persistInScope(ctx, scope, req.Reservation, first)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncAllocation(alloc.Mode)
	return alloc, nil
}

// provision creates the first resource of a type the tenant does not have
// yet, when policy allows it.
func (a *allocator) provision(ctx context.Context, scope AllocationScope, req AllocateRequest, alloc *Allocation) error {
	if !a.policy.AutoProvision {
		return ErrNoResourcesOfType
	}

	res, err := scope.EnsureResource(ctx, req.TenantID, a.provisionName(req.SuiteType), req.SuiteType)
	if err != nil {
		return fmt.Errorf("provision resource: %w", err)
	}

	alloc.Mode = ModeProvisioned
	alloc.ResourceID = res.ID
	alloc.ResourceName = res.Name
	alloc.Warnings = append(alloc.Warnings,
		fmt.Sprintf("no resources of this type, provisioned %s", res.Name))
	a.logger.Info().
		Str("tenantID", req.TenantID).
		Str("suiteType", string(req.SuiteType)).
		Str("resource", res.Name).
		Msg("provisioned resource for allocation")

	return persistInScope(ctx, scope, req.Reservation, res)
}

func (a *allocator) provisionName(t resource.Type) string {
	if cfg := a.catalog.Get(string(t)); cfg != nil {
		return cfg.NamePrefix + " 1"
	}
	return string(t) + " 1"
}

func persistInScope(ctx context.Context, scope AllocationScope, rv *Reservation, res *resource.Resource) error {
	if rv == nil {
		return nil
	}
	rv.ResourceID = res.ID
	rv.ResourceName = res.Name
	rv.SuiteType = res.Type
	return scope.SaveReservation(ctx, rv)
}
