package waitlist

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moosecreates/tailtown-sub004/internal/config"
	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/events"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
)

const testTenant = "tenant-1"

func day(offset int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func standardOwners() (*fakePets, *fakeCustomers) {
	pets := &fakePets{pets: map[string]*pet.Pet{
		"pet-1": {ID: "pet-1", TenantID: testTenant, CustomerID: "cust-1", Name: "Rex"},
		"pet-2": {ID: "pet-2", TenantID: testTenant, CustomerID: "cust-2", Name: "Mia"},
	}}
	customers := &fakeCustomers{customers: map[string]*customer.Customer{
		"cust-1": {ID: "cust-1", TenantID: testTenant, Name: "Dana Holt", Email: "dana@example.com"},
		"cust-2": {ID: "cust-2", TenantID: testTenant, Name: "Sam Reyes", Email: "sam@example.com"},
	}}
	return pets, customers
}

func newTestService(repo *fakeRepo, bus *events.Bus) Service {
	pets, customers := standardOwners()
	return NewService(repo, pets, customers, config.WaitlistDefaults{}, bus, zerolog.New(io.Discard))
}

func enqueue(t *testing.T, svc Service, petID, customerID string) *Entry {
	t.Helper()
	e, err := svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID:           testTenant,
		CustomerID:         customerID,
		PetID:              petID,
		ServiceType:        reservation.ServiceBoarding,
		RequestedStartDate: day(5),
	})
	require.NoError(t, err)
	return e
}

func TestEnqueueAssignsSequentialPositions(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)

	first := enqueue(t, svc, "pet-1", "cust-1")
	second := enqueue(t, svc, "pet-2", "cust-2")
	third := enqueue(t, svc, "pet-1", "cust-1")

	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 3, third.Position)
	assert.Equal(t, EntryActive, first.Status)
	assert.False(t, first.ExpiresAt.IsZero(), "entry gets a lifetime")
}

func TestEnqueueValidation(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)

	_, err := svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID:           testTenant,
		CustomerID:         "cust-1",
		PetID:              "pet-1",
		ServiceType:        "SPA",
		RequestedStartDate: day(5),
	})
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	end := day(5)
	_, err = svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID:           testTenant,
		CustomerID:         "cust-1",
		PetID:              "pet-1",
		ServiceType:        reservation.ServiceBoarding,
		RequestedStartDate: day(5),
		RequestedEndDate:   &end,
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange, "end must be after start")

	_, err = svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID:           testTenant,
		CustomerID:         "cust-2",
		PetID:              "pet-1",
		ServiceType:        reservation.ServiceBoarding,
		RequestedStartDate: day(5),
	})
	assert.ErrorIs(t, err, ErrPetOwnerMismatch)

	_, err = svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID:           testTenant,
		CustomerID:         "cust-1",
		PetID:              "pet-404",
		ServiceType:        reservation.ServiceBoarding,
		RequestedStartDate: day(5),
	})
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestEnqueueRejectsDisabledService(t *testing.T) {
	repo := newFakeWaitlistRepo()
	cfg := DefaultConfig(testTenant)
	cfg.EnabledServiceTypes = []string{string(reservation.ServiceDaycare)}
	require.NoError(t, repo.SaveConfig(context.Background(), cfg))
	svc := newTestService(repo, nil)

	_, err := svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID:           testTenant,
		CustomerID:         "cust-1",
		PetID:              "pet-1",
		ServiceType:        reservation.ServiceBoarding,
		RequestedStartDate: day(5),
	})
	assert.ErrorIs(t, err, ErrServiceNotEnabled)
}

func TestDequeueReindexesRemainder(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	first := enqueue(t, svc, "pet-1", "cust-1")
	second := enqueue(t, svc, "pet-2", "cust-2")
	third := enqueue(t, svc, "pet-1", "cust-1")

	gone, err := svc.Dequeue(context.Background(), testTenant, first.ID, EntryCancelled)
	require.NoError(t, err)

	assert.Equal(t, EntryCancelled, gone.Status)
	assert.Equal(t, 0, gone.Position)
	assert.Equal(t, 1, repo.entryByID(second.ID).Position, "survivors close ranks")
	assert.Equal(t, 2, repo.entryByID(third.ID).Position)
}

func TestDequeueRejectsTerminalAndBadReason(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	entry := enqueue(t, svc, "pet-1", "cust-1")

	_, err := svc.Dequeue(context.Background(), testTenant, entry.ID, EntryActive)
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, err = svc.Dequeue(context.Background(), testTenant, entry.ID, EntryCancelled)
	require.NoError(t, err)

	_, err = svc.Dequeue(context.Background(), testTenant, entry.ID, EntryCancelled)
	assert.ErrorIs(t, err, ErrTerminalEntry, "dequeue is not repeatable")
}

func TestConvertLinksReservationAndPublishes(t *testing.T) {
	repo := newFakeWaitlistRepo()
	bus := events.NewBus()
	var converted []events.WaitlistConverted
	bus.Subscribe(events.TypeWaitlistConverted, func(ctx context.Context, e events.Event) error {
		converted = append(converted, e.Payload.(events.WaitlistConverted))
		return nil
	})
	svc := newTestService(repo, bus)
	entry := enqueue(t, svc, "pet-1", "cust-1")

	got, err := svc.Convert(context.Background(), testTenant, entry.ID, "rsv-9")
	require.NoError(t, err)

	assert.Equal(t, EntryConverted, got.Status)
	assert.Equal(t, "rsv-9", got.ConvertedToReservationID)
	require.Len(t, converted, 1)
	assert.Equal(t, entry.ID, converted[0].EntryID)
	assert.Equal(t, "rsv-9", converted[0].ReservationID)
}

func TestConvertClosesOpenNotificationsAsBooked(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	entry := enqueue(t, svc, "pet-1", "cust-1")
	n := repo.addNotification(&Notification{
		TenantID:  testTenant,
		EntryID:   entry.ID,
		Status:    NotificationSent,
		ExpiresAt: day(2),
	})

	_, err := svc.Convert(context.Background(), testTenant, entry.ID, "rsv-9")
	require.NoError(t, err)

	stored := repo.notificationByID(n.ID)
	assert.Equal(t, NotificationRead, stored.Status)
	assert.Equal(t, ActionBooked, stored.ActionTaken)
}

func TestReindexRepairsStalePositions(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	a := enqueue(t, svc, "pet-1", "cust-1")
	b := enqueue(t, svc, "pet-2", "cust-2")
	repo.entryByID(a.ID).Position = 7
	repo.entryByID(b.ID).Position = 7

	changed, err := svc.Reindex(context.Background(), testTenant, reservation.ServiceBoarding)
	require.NoError(t, err)

	assert.Equal(t, 2, changed)
	assert.Equal(t, 1, repo.entryByID(a.ID).Position)
	assert.Equal(t, 2, repo.entryByID(b.ID).Position)

	changed, err = svc.Reindex(context.Background(), testTenant, reservation.ServiceBoarding)
	require.NoError(t, err)
	assert.Zero(t, changed, "reindex is idempotent")
}

func TestPositionOfBandsEstimate(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)

	var entries []*Entry
	for i := 0; i < 5; i++ {
		petID, custID := "pet-1", "cust-1"
		if i%2 == 1 {
			petID, custID = "pet-2", "cust-2"
		}
		entries = append(entries, enqueue(t, svc, petID, custID))
	}

	front, err := svc.PositionOf(context.Background(), testTenant, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, front.Position)
	assert.Equal(t, 5, front.TotalInQueue)
	assert.Equal(t, "next", front.EstimatedWait)

	fifth, err := svc.PositionOf(context.Background(), testTenant, entries[4].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fifth.Position)
	assert.Equal(t, "3-7 days", fifth.EstimatedWait)
}

func TestPositionOfNonActiveEntry(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	entry := enqueue(t, svc, "pet-1", "cust-1")
	enqueue(t, svc, "pet-2", "cust-2")

	_, err := svc.Dequeue(context.Background(), testTenant, entry.ID, EntryCancelled)
	require.NoError(t, err)

	standing, err := svc.PositionOf(context.Background(), testTenant, entry.ID)
	require.NoError(t, err)

	assert.Equal(t, EntryCancelled, standing.Status)
	assert.Zero(t, standing.Position)
	assert.Equal(t, 1, standing.TotalInQueue, "total counts the remaining ACTIVE entries")
	assert.Equal(t, "unknown", standing.EstimatedWait)
}

func TestGetConfigFallsBackToDefaults(t *testing.T) {
	repo := newFakeWaitlistRepo()
	pets, customers := standardOwners()
	defaults := config.WaitlistDefaults{
		EntryExpirationDays:         10,
		NotificationExpirationHours: 6,
		MaxNotificationsPerMatch:    1,
	}
	svc := NewService(repo, pets, customers, defaults, nil, zerolog.New(io.Discard))

	cfg, err := svc.GetConfig(context.Background(), testTenant)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.EntryExpirationDays)
	assert.Equal(t, 6, cfg.NotificationExpirationHours)
	assert.Equal(t, 1, cfg.MaxNotificationsPerAvailability)
	assert.True(t, cfg.ServiceEnabled(reservation.ServiceBoarding), "all services enabled by default")
}

func TestUpdateConfigValidates(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)

	_, err := svc.UpdateConfig(context.Background(), testTenant, ConfigUpdate{
		EntryExpirationDays:             0,
		NotificationExpirationHours:     24,
		MaxNotificationsPerAvailability: 3,
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = svc.UpdateConfig(context.Background(), testTenant, ConfigUpdate{
		EntryExpirationDays:             14,
		NotificationExpirationHours:     24,
		MaxNotificationsPerAvailability: 3,
		EnabledServiceTypes:             []string{"SPA"},
	})
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	cfg, err := svc.UpdateConfig(context.Background(), testTenant, ConfigUpdate{
		EntryExpirationDays:             14,
		NotificationExpirationHours:     12,
		MaxNotificationsPerAvailability: 2,
		EnabledServiceTypes:             []string{string(reservation.ServiceDaycare)},
	})
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.EntryExpirationDays)

	stored, err := svc.GetConfig(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.MaxNotificationsPerAvailability)
	assert.False(t, stored.ServiceEnabled(reservation.ServiceBoarding))
}

func TestMarkNotificationDelivery(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	entry := enqueue(t, svc, "pet-1", "cust-1")
	n := repo.addNotification(&Notification{
		TenantID:  testTenant,
		EntryID:   entry.ID,
		Status:    NotificationPending,
		ExpiresAt: day(2),
	})

	_, err := svc.MarkNotificationDelivery(context.Background(), testTenant, n.ID, NotificationRead)
	assert.ErrorIs(t, err, ErrInvalidDeliveryStatus)

	got, err := svc.MarkNotificationDelivery(context.Background(), testTenant, n.ID, NotificationSent)
	require.NoError(t, err)
	assert.Equal(t, NotificationSent, got.Status)
	assert.NotNil(t, got.SentAt)

	_, err = svc.MarkNotificationDelivery(context.Background(), testTenant, n.ID, NotificationFailed)
	assert.ErrorIs(t, err, ErrNotificationClosed, "delivery is recorded once")
}

func TestRecordNotificationActionDeclinedReactivates(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	notified := enqueue(t, svc, "pet-1", "cust-1")
	waiting := enqueue(t, svc, "pet-2", "cust-2")

	stored := repo.entryByID(notified.ID)
	stored.Status = EntryNotified
	stored.Position = 0
	repo.entryByID(waiting.ID).Position = 1
	n := repo.addNotification(&Notification{
		TenantID:  testTenant,
		EntryID:   notified.ID,
		Status:    NotificationSent,
		ExpiresAt: day(2),
	})

	got, err := svc.RecordNotificationAction(context.Background(), testTenant, n.ID, ActionDeclined)
	require.NoError(t, err)

	assert.Equal(t, NotificationRead, got.Status)
	assert.Equal(t, ActionDeclined, got.ActionTaken)
	assert.Equal(t, EntryActive, repo.entryByID(notified.ID).Status)
	// Original priority puts the declined entry back at the front.
	assert.Equal(t, 1, repo.entryByID(notified.ID).Position)
	assert.Equal(t, 2, repo.entryByID(waiting.ID).Position)
}

func TestRecordNotificationActionBooked(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)
	entry := enqueue(t, svc, "pet-1", "cust-1")
	repo.entryByID(entry.ID).Status = EntryNotified
	n := repo.addNotification(&Notification{
		TenantID:  testTenant,
		EntryID:   entry.ID,
		Status:    NotificationSent,
		ExpiresAt: day(2),
	})

	got, err := svc.RecordNotificationAction(context.Background(), testTenant, n.ID, ActionBooked)
	require.NoError(t, err)

	assert.Equal(t, ActionBooked, got.ActionTaken)
	// BOOKED leaves the entry NOTIFIED; the conversion endpoint finishes it.
	assert.Equal(t, EntryNotified, repo.entryByID(entry.ID).Status)

	_, err = svc.RecordNotificationAction(context.Background(), testTenant, n.ID, ActionDeclined)
	assert.ErrorIs(t, err, ErrNotificationClosed)
}

func TestListNotificationsRequiresEntry(t *testing.T) {
	repo := newFakeWaitlistRepo()
	svc := newTestService(repo, nil)

	_, err := svc.ListNotifications(context.Background(), testTenant, "wl-404")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}
