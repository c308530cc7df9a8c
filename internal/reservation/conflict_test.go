package reservation

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

const testTenant = "tenant-1"

func day(offset int) time.Time {
	return daterange.Today().AddDate(0, 0, offset)
}

func newChecker(repo *fakeRepo, resources *fakeResources) ConflictChecker {
	return NewConflictChecker(repo, resources, zerolog.New(io.Discard))
}

func TestCheckRejectsInvalidDateRange(t *testing.T) {
	repo := newFakeRepo()
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:  testTenant,
		StartDate: day(3),
		EndDate:   day(3),
		PetID:     "pet-1",
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts)
	assert.Contains(t, report.Warnings, "start date must be before end date")
	assert.Zero(t, repo.resourceOverlapCalls, "validation failure must not query storage")
	assert.Zero(t, repo.petOverlapCalls)
}

func TestCheckBackToBackDatesDoNotConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-1",
		ResourceID: "res-1",
		StartDate:  day(1),
		EndDate:    day(3),
		Status:     StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{})

	// New stay starts the day the old one ends.
	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		PetID:      "pet-1",
		StartDate:  day(3),
		EndDate:    day(5),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
	assert.Empty(t, report.Conflicts)
	assert.Empty(t, report.Warnings)
}

func TestCheckReportsResourceOverlap(t *testing.T) {
	repo := newFakeRepo()
	repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-9",
		ResourceID: "res-1",
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		StartDate:  day(2),
		EndDate:    day(4),
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "resource", report.Conflicts[0].Kind)
	assert.Contains(t, report.Warnings, "resource not available, 1 overlapping reservations")
}

func TestCheckIgnoresOtherTenantReservations(t *testing.T) {
	repo := newFakeRepo()
	// Same resource and pet ids as the query below, different tenant.
	repo.addResource("tenant-2", "res-1", "Std 1", resource.TypeStandardSuite, true)
	repo.addReservation(&Reservation{
		TenantID:   "tenant-2",
		PetID:      "pet-1",
		ResourceID: "res-1",
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		PetID:      "pet-1",
		StartDate:  day(2),
		EndDate:    day(4),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
	assert.Empty(t, report.Conflicts)
	assert.Empty(t, report.Warnings)
}

func TestCheckPendingReservationsDoNotBlock(t *testing.T) {
	repo := newFakeRepo()
	repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-1",
		ResourceID: "res-1",
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusPending,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		PetID:      "pet-1",
		StartDate:  day(2),
		EndDate:    day(4),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
}

func TestCheckPetOverlapReportedOnce(t *testing.T) {
	// The pet's existing stay sits on the same resource the caller asks
	// about; the resource check reports it, the pet check must not.
	repo := newFakeRepo()
	repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-1",
		ResourceID: "res-1",
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		PetID:      "pet-1",
		StartDate:  day(2),
		EndDate:    day(4),
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "resource", report.Conflicts[0].Kind)
}

func TestCheckReportsPetOverlapOnOtherResource(t *testing.T) {
	repo := newFakeRepo()
	repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-1",
		ResourceID: "res-2",
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusCheckedIn,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		PetID:      "pet-1",
		StartDate:  day(2),
		EndDate:    day(4),
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "pet", report.Conflicts[0].Kind)
	assert.Contains(t, report.Warnings, "pet already has 1 overlapping reservation(s)")
}

func TestCheckPastStartWarnsWithoutConflict(t *testing.T) {
	repo := newFakeRepo()
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:  testTenant,
		PetID:     "pet-1",
		StartDate: day(-2),
		EndDate:   day(1),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
	assert.Contains(t, report.Warnings, "start date is in the past")
}

func TestCheckExcludesOwnReservation(t *testing.T) {
	repo := newFakeRepo()
	existing := repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-1",
		ResourceID: "res-1",
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:             testTenant,
		ResourceID:           "res-1",
		PetID:                "pet-1",
		StartDate:            day(1),
		EndDate:              day(5),
		ExcludeReservationID: existing.ID,
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
}

func TestCheckSuiteExhaustion(t *testing.T) {
	repo := newFakeRepo()
	resA := repo.addResource(testTenant, "res-a", "Std 1", resource.TypeStandardSuite, true)
	resB := repo.addResource(testTenant, "res-b", "Std 2", resource.TypeStandardSuite, true)
	for _, res := range []*resource.Resource{resA, resB} {
		repo.addReservation(&Reservation{
			TenantID:   testTenant,
			PetID:      "pet-" + res.ID,
			ResourceID: res.ID,
			StartDate:  day(1),
			EndDate:    day(5),
			Status:     StatusConfirmed,
		})
	}
	checker := newChecker(repo, &fakeResources{active: repo.resources})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:  testTenant,
		SuiteType: resource.TypeStandardSuite,
		StartDate: day(2),
		EndDate:   day(4),
	})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts)
	assert.Contains(t, report.Warnings, "all suites of type STANDARD_SUITE are booked")
}

func TestCheckSuiteWithFreeCandidateIsClean(t *testing.T) {
	repo := newFakeRepo()
	busy := repo.addResource(testTenant, "res-a", "Std 1", resource.TypeStandardSuite, true)
	repo.addResource(testTenant, "res-b", "Std 2", resource.TypeStandardSuite, true)
	repo.addReservation(&Reservation{
		TenantID:   testTenant,
		PetID:      "pet-2",
		ResourceID: busy.ID,
		StartDate:  day(1),
		EndDate:    day(5),
		Status:     StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{active: repo.resources})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:  testTenant,
		SuiteType: resource.TypeStandardSuite,
		StartDate: day(2),
		EndDate:   day(4),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
	assert.Empty(t, report.Warnings)
}

func TestCheckNoResourcesOfTypeIsWarningOnly(t *testing.T) {
	repo := newFakeRepo()
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:  testTenant,
		SuiteType: resource.TypeVIPSuite,
		StartDate: day(1),
		EndDate:   day(3),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts, "a missing pool is the allocator's problem, not a conflict")
	assert.Contains(t, report.Warnings, "no resources of this type")
}

func TestCheckSkipsSuiteScanWithExplicitResource(t *testing.T) {
	repo := newFakeRepo()
	repo.addResource(testTenant, "res-a", "Std 1", resource.TypeStandardSuite, true)
	resources := &fakeResources{err: errors.New("must not be called")}
	checker := newChecker(repo, resources)

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-a",
		SuiteType:  resource.TypeStandardSuite,
		StartDate:  day(1),
		EndDate:    day(3),
	})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts)
	assert.False(t, report.Degraded)
}

func TestCheckDegradesFailedSubcheck(t *testing.T) {
	repo := newFakeRepo()
	repo.resourceOverlapErr = errors.New("connection reset")
	repo.addReservation(&Reservation{
		TenantID:  testTenant,
		PetID:     "pet-1",
		StartDate: day(1),
		EndDate:   day(5),
		Status:    StatusConfirmed,
	})
	checker := newChecker(repo, &fakeResources{})

	report, err := checker.Check(context.Background(), CheckRequest{
		TenantID:   testTenant,
		ResourceID: "res-1",
		PetID:      "pet-1",
		StartDate:  day(2),
		EndDate:    day(4),
	})
	require.NoError(t, err, "a failed sub-check degrades, it does not abort")

	assert.True(t, report.Degraded)
	assert.Contains(t, report.Warnings, "resource availability check failed")
	assert.Equal(t, 1, repo.petOverlapCalls, "remaining checks still run")
	assert.True(t, report.HasConflicts, "pet check still found the overlap")
}
