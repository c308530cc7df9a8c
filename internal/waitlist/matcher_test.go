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
	"github.com/moosecreates/tailtown-sub004/internal/events"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
)

func newTestMatcher(repo *fakeRepo, pub *fakePublisher) Matcher {
	return NewMatcher(repo, pub, config.WaitlistDefaults{}, zerolog.New(io.Discard))
}

// seedActive adds an ACTIVE boarding entry with increasing priority.
func seedActive(repo *fakeRepo, offset int, start time.Time) *Entry {
	return repo.addEntry(&Entry{
		TenantID:           testTenant,
		CustomerID:         "cust-1",
		PetID:              "pet-1",
		CustomerEmail:      "dana@example.com",
		ServiceType:        reservation.ServiceBoarding,
		RequestedStartDate: start,
		Status:             EntryActive,
		Priority:           day(0).Add(time.Duration(offset) * time.Minute),
		Position:           offset,
	})
}

func TestMatchNotifiesOldestUpToCap(t *testing.T) {
	repo := newFakeWaitlistRepo()
	cfg := DefaultConfig(testTenant)
	cfg.MaxNotificationsPerAvailability = 2
	require.NoError(t, repo.SaveConfig(context.Background(), cfg))

	var seeded []*Entry
	for i := 1; i <= 5; i++ {
		seeded = append(seeded, seedActive(repo, i, day(1)))
	}

	pub := &fakePublisher{}
	m := newTestMatcher(repo, pub)
	created, err := m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(3),
		FreedEnd:    day(6),
	})
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, seeded[0].ID, created[0].EntryID, "oldest entry first")
	assert.Equal(t, seeded[1].ID, created[1].EntryID)

	assert.Equal(t, EntryNotified, repo.entryByID(seeded[0].ID).Status)
	assert.Equal(t, 1, repo.entryByID(seeded[0].ID).NotificationsSent)
	assert.Equal(t, EntryActive, repo.entryByID(seeded[2].ID).Status, "entries past the cap stay queued")

	// Notified entries leave the ranking; the rest are re-ranked densely.
	assert.Equal(t, 0, repo.entryByID(seeded[0].ID).Position)
	assert.Equal(t, 1, repo.entryByID(seeded[2].ID).Position)
	assert.Equal(t, 3, repo.entryByID(seeded[4].ID).Position)

	require.Len(t, pub.requests, 2, "each notification is queued for delivery")
	assert.Equal(t, created[0].ID, pub.requests[0].NotificationID)
	assert.Equal(t, "dana@example.com", pub.requests[0].Recipient)
	assert.Equal(t, ChannelEmail, pub.requests[0].Channel)
}

func TestMatchSkipsLaterFixedDates(t *testing.T) {
	repo := newFakeWaitlistRepo()
	late := seedActive(repo, 1, day(10))
	flexible := seedActive(repo, 2, day(10))
	flexible.FlexibleDates = true
	early := seedActive(repo, 3, day(1))

	m := newTestMatcher(repo, &fakePublisher{})
	created, err := m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(3),
		FreedEnd:    day(6),
	})
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, flexible.ID, created[0].EntryID, "flexible entries take any window")
	assert.Equal(t, early.ID, created[1].EntryID)
	assert.Equal(t, EntryActive, repo.entryByID(late.ID).Status, "fixed start after the window is incompatible")
}

func TestMatchRespectsResourcePreference(t *testing.T) {
	repo := newFakeWaitlistRepo()
	other := seedActive(repo, 1, day(1))
	other.PreferredResourceID = "res-2"
	matching := seedActive(repo, 2, day(1))
	matching.PreferredResourceID = "res-1"
	indifferent := seedActive(repo, 3, day(1))

	m := newTestMatcher(repo, &fakePublisher{})
	created, err := m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(3),
		FreedEnd:    day(6),
		ResourceID:  "res-1",
	})
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, matching.ID, created[0].EntryID)
	assert.Equal(t, indifferent.ID, created[1].EntryID, "no preference matches any resource")
	assert.Equal(t, "res-1", created[0].ResourceID)
}

func TestMatchDisabledServiceIsNoOp(t *testing.T) {
	repo := newFakeWaitlistRepo()
	cfg := DefaultConfig(testTenant)
	cfg.EnabledServiceTypes = []string{string(reservation.ServiceDaycare)}
	require.NoError(t, repo.SaveConfig(context.Background(), cfg))
	entry := seedActive(repo, 1, day(1))

	pub := &fakePublisher{}
	m := newTestMatcher(repo, pub)
	created, err := m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(3),
		FreedEnd:    day(6),
	})

	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, pub.requests)
	assert.Equal(t, EntryActive, repo.entryByID(entry.ID).Status)
}

func TestMatchValidation(t *testing.T) {
	repo := newFakeWaitlistRepo()
	m := newTestMatcher(repo, &fakePublisher{})

	_, err := m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: "SPA",
		FreedStart:  day(3),
		FreedEnd:    day(6),
	})
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	_, err = m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(6),
		FreedEnd:    day(3),
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(3),
		FreedEnd:    day(6),
		Channel:     "CARRIER_PIGEON",
	})
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestMatchSurvivesDeliveryFailure(t *testing.T) {
	repo := newFakeWaitlistRepo()
	entry := seedActive(repo, 1, day(1))

	pub := &fakePublisher{err: context.DeadlineExceeded}
	m := newTestMatcher(repo, pub)
	created, err := m.MatchAvailability(context.Background(), MatchRequest{
		TenantID:    testTenant,
		ServiceType: reservation.ServiceBoarding,
		FreedStart:  day(3),
		FreedEnd:    day(6),
	})

	require.NoError(t, err, "a delivery queue outage does not fail the match")
	require.Len(t, created, 1)
	assert.Equal(t, EntryNotified, repo.entryByID(entry.ID).Status)
	assert.Equal(t, NotificationPending, repo.notificationByID(created[0].ID).Status, "the sweep resolves it later")
}

func TestSpotFreedHandlerMatchesWindow(t *testing.T) {
	repo := newFakeWaitlistRepo()
	entry := seedActive(repo, 1, day(1))

	pub := &fakePublisher{}
	m := newTestMatcher(repo, pub)

	bus := events.NewBus()
	bus.Subscribe(events.TypeSpotFreed, SpotFreedHandler(m, zerolog.New(io.Discard)))

	err := bus.Publish(context.Background(), events.Event{
		Type: events.TypeSpotFreed,
		Payload: events.SpotFreed{
			TenantID:    testTenant,
			ServiceType: string(reservation.ServiceBoarding),
			ResourceID:  "res-1",
			StartDate:   day(3),
			EndDate:     day(6),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, EntryNotified, repo.entryByID(entry.ID).Status)
	require.Len(t, pub.requests, 1)
}
