package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moosecreates/tailtown-sub004/internal/metrics"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

// CheckRequest describes a prospective booking window to test.
type CheckRequest struct {
	TenantID             string
	StartDate            time.Time
	EndDate              time.Time
	ResourceID           string
	PetID                string
	SuiteType            resource.Type
	ExcludeReservationID string
}

// Conflict is one existing reservation that blocks the requested window.
type Conflict struct {
	Kind          string // "resource" or "pet"
	ReservationID string
	ResourceID    string
	ResourceName  string
	PetID         string
	PetName       string
	Status        Status
	StartDate     time.Time
	EndDate       time.Time
}

// ConflictReport is the additive result of all checks. Degraded means at
// least one check could not run and its outcome is unknown; the report is
// still usable for the checks that did run.
type ConflictReport struct {
	HasConflicts bool
	Conflicts    []Conflict
	Warnings     []string
	Degraded     bool
}

// ConflictChecker tests a tenant's reservation window against existing
// blocking reservations.
type ConflictChecker interface {
	Check(ctx context.Context, req CheckRequest) (*ConflictReport, error)
}

type conflictChecker struct {
	repo      Repository
	resources resource.Service
	logger    zerolog.Logger
}

func NewConflictChecker(repo Repository, resources resource.Service, logger zerolog.Logger) ConflictChecker {
	return &conflictChecker{repo: repo, resources: resources, logger: logger}
}

// Check runs the validation and the three overlap checks in order. Every
// check is independent and additive: a storage error in one check degrades
// it to a warning instead of aborting the others.
func (c *conflictChecker) Check(ctx context.Context, req CheckRequest) (*ConflictReport, error) {
	report := &ConflictReport{}

	start := daterange.Date(req.StartDate)
	end := daterange.Date(req.EndDate)

	// Fail fast before touching storage.
	if !start.Before(end) {
		report.HasConflicts = true
		report.Warnings = append(report.Warnings, "start date must be before end date")
		return report, nil
	}

	// A past start is allowed (back-dated bookings happen at the front
	// desk) but flagged.
	if start.Before(daterange.Today()) {
		report.Warnings = append(report.Warnings, "start date is in the past")
	}

	// 1. Resource check
	flaggedResource := ""
	if req.ResourceID != "" {
		rows, err := c.repo.ListResourceOverlaps(ctx, req.TenantID, req.ResourceID, start, end, req.ExcludeReservationID)
		if err != nil {
			c.degrade(report, "resource availability check failed", err)
		} else if len(rows) > 0 {
			report.HasConflicts = true
			flaggedResource = req.ResourceID
			appendConflicts(report, "resource", rows)
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("resource not available, %d overlapping reservations", len(rows)))
			metrics.IncConflictDetected("resource")
		}
	}

	// 2. Pet check. Rows on the resource flagged above are excluded so a
	// double booking of the same pet on the same suite is reported once.
	if req.PetID != "" {
		rows, err := c.repo.ListPetOverlaps(ctx, req.TenantID, req.PetID, start, end, req.ExcludeReservationID, flaggedResource)
		if err != nil {
			c.degrade(report, "pet availability check failed", err)
		} else if len(rows) > 0 {
			report.HasConflicts = true
			appendConflicts(report, "pet", rows)
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("pet already has %d overlapping reservation(s)", len(rows)))
			metrics.IncConflictDetected("pet")
		}
	}

	// 3. Suite-type exhaustion check, only when no explicit resource was
	// requested.
	if req.ResourceID == "" && req.SuiteType != "" {
		c.checkSuiteExhaustion(ctx, req, start, end, report)
	}

	return report, nil
}

func (c *conflictChecker) checkSuiteExhaustion(ctx context.Context, req CheckRequest, start, end time.Time, report *ConflictReport) {
	candidates, err := c.resources.ListActiveByType(ctx, req.TenantID, req.SuiteType)
	if err != nil {
		c.degrade(report, "suite availability check failed", err)
		return
	}

	// Zero resources is not a conflict: the allocator may provision one.
	if len(candidates) == 0 {
		report.Warnings = append(report.Warnings, "no resources of this type")
		return
	}

	for _, cand := range candidates {
		rows, err := c.repo.ListResourceOverlaps(ctx, req.TenantID, cand.ID, start, end, req.ExcludeReservationID)
		if err != nil {
			// A degraded scan cannot assert exhaustion.
			c.degrade(report, "suite availability check failed", err)
			return
		}
		if len(rows) == 0 {
			return
		}
	}

	report.HasConflicts = true
	report.Warnings = append(report.Warnings, fmt.Sprintf("all suites of type %s are booked", req.SuiteType))
	metrics.IncConflictDetected("suite_type")
}

func (c *conflictChecker) degrade(report *ConflictReport, msg string, err error) {
	c.logger.Warn().Err(err).Msg(msg)
	report.Warnings = append(report.Warnings, msg)
	report.Degraded = true
}

func appendConflicts(report *ConflictReport, kind string, rows []*Reservation) {
	for _, rv := range rows {
		report.Conflicts = append(report.Conflicts, Conflict{
			Kind:          kind,
			ReservationID: rv.ID,
			ResourceID:    rv.ResourceID,
			ResourceName:  rv.ResourceName,
			PetID:         rv.PetID,
			PetName:       rv.PetName,
			Status:        rv.Status,
			StartDate:     rv.StartDate,
			EndDate:       rv.EndDate,
		})
	}
}
