package waitlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/notify"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/reservation"
)

// fakeRepo is an in-memory Repository with the same partition semantics as
// the pgx implementation, shared by the service, matcher and sweeper tests.
type fakeRepo struct {
	mu            sync.Mutex
	entries       []*Entry
	notifications []*Notification
	configs       map[string]*Config
	nextID        int

	lockErr error
}

func newFakeWaitlistRepo() *fakeRepo {
	return &fakeRepo{configs: map[string]*Config{}}
}

func (f *fakeRepo) addEntry(e *Entry) *Entry {
	f.nextID++
	if e.ID == "" {
		e.ID = fmt.Sprintf("wl-%d", f.nextID)
	}
	if e.Status == "" {
		e.Status = EntryActive
	}
	if e.Priority.IsZero() {
		e.Priority = time.Now().UTC().Add(time.Duration(f.nextID) * time.Second)
	}
	if e.ExpiresAt.IsZero() {
		e.ExpiresAt = time.Now().UTC().Add(30 * 24 * time.Hour)
	}
	f.entries = append(f.entries, e)
	return e
}

func (f *fakeRepo) addNotification(n *Notification) *Notification {
	f.nextID++
	if n.ID == "" {
		n.ID = fmt.Sprintf("ntf-%d", f.nextID)
	}
	if n.Status == "" {
		n.Status = NotificationPending
	}
	f.notifications = append(f.notifications, n)
	return n
}

func (f *fakeRepo) GetByID(ctx context.Context, tenantID, id string) (*Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (f *fakeRepo) List(ctx context.Context, tenantID string, filter Filter) ([]*Entry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Entry
	for _, e := range f.entries {
		if e.TenantID != tenantID {
			continue
		}
		if filter.ServiceType != "" && string(e.ServiceType) != filter.ServiceType {
			continue
		}
		if filter.Status != "" && string(e.Status) != filter.Status {
			continue
		}
		if filter.CustomerID != "" && e.CustomerID != filter.CustomerID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority.Before(out[j].Priority) })
	return out, len(out), nil
}

func (f *fakeRepo) CountActive(ctx context.Context, tenantID string, serviceType reservation.ServiceType) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.ServiceType == serviceType && e.Status == EntryActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ActiveStanding(ctx context.Context, tenantID string, serviceType reservation.ServiceType, priority time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	position, total := 0, 0
	for _, e := range f.entries {
		if e.TenantID != tenantID || e.ServiceType != serviceType || e.Status != EntryActive {
			continue
		}
		total++
		if !e.Priority.After(priority) {
			position++
		}
	}
	return position, total, nil
}

func (f *fakeRepo) WithQueueLock(ctx context.Context, tenantID string, serviceType reservation.ServiceType, fn func(scope QueueScope) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return f.lockErr
	}

	var open []*Entry
	for _, e := range f.entries {
		if e.TenantID == tenantID && e.ServiceType == serviceType &&
			(e.Status == EntryActive || e.Status == EntryNotified) {
			open = append(open, e)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Priority.Before(open[j].Priority) })

	return fn(&fakeQueueScope{repo: f, tenantID: tenantID, serviceType: serviceType, entries: open})
}

type fakeQueueScope struct {
	repo        *fakeRepo
	tenantID    string
	serviceType reservation.ServiceType
	entries     []*Entry
}

func (s *fakeQueueScope) Entries() []*Entry {
	return s.entries
}

func (s *fakeQueueScope) InsertEntry(ctx context.Context, e *Entry) error {
	now := time.Now().UTC()
	e.Priority = now.Add(time.Duration(s.repo.nextID) * time.Second)
	e.CreatedAt = now
	e.UpdatedAt = now
	s.repo.addEntry(e)
	return nil
}

func (s *fakeQueueScope) UpdateEntry(ctx context.Context, e *Entry) error {
	for _, cur := range s.repo.entries {
		if cur.TenantID == e.TenantID && cur.ID == e.ID {
			if cur != e {
				*cur = *e
			}
			cur.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrEntryNotFound
}

func (s *fakeQueueScope) CreateNotification(ctx context.Context, n *Notification) error {
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = n.CreatedAt
	s.repo.addNotification(n)
	return nil
}

func (s *fakeQueueScope) ListOpenNotifications(ctx context.Context) ([]*Notification, error) {
	byID := map[string]*Entry{}
	for _, e := range s.repo.entries {
		if e.TenantID == s.tenantID && e.ServiceType == s.serviceType {
			byID[e.ID] = e
		}
	}
	var out []*Notification
	for _, n := range s.repo.notifications {
		if _, ok := byID[n.EntryID]; !ok {
			continue
		}
		if n.Open() && n.ActionTaken == "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeQueueScope) ResolveNotification(ctx context.Context, n *Notification) error {
	for _, cur := range s.repo.notifications {
		if cur.TenantID == n.TenantID && cur.ID == n.ID {
			if cur != n {
				*cur = *n
			}
			cur.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (f *fakeRepo) GetNotification(ctx context.Context, tenantID, id string) (*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.TenantID == tenantID && n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, ErrNotificationNotFound
}

func (f *fakeRepo) ListNotificationsByEntry(ctx context.Context, tenantID, entryID string) ([]*Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Notification
	for _, n := range f.notifications {
		if n.TenantID == tenantID && n.EntryID == entryID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateNotification(ctx context.Context, n *Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.notifications {
		if cur.TenantID == n.TenantID && cur.ID == n.ID {
			cp := *n
			cp.UpdatedAt = time.Now().UTC()
			f.notifications[i] = &cp
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (f *fakeRepo) GetConfig(ctx context.Context, tenantID string) (*Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.configs[tenantID]; ok {
		cp := *cfg
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) SaveConfig(ctx context.Context, cfg *Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg.UpdatedAt = time.Now().UTC()
	cp := *cfg
	f.configs[cfg.TenantID] = &cp
	return nil
}

func (f *fakeRepo) ListDuePartitions(ctx context.Context, now time.Time) ([]Partition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[Partition]bool{}
	var out []Partition
	add := func(p Partition) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, e := range f.entries {
		if (e.Status == EntryActive || e.Status == EntryNotified) && !e.ExpiresAt.After(now) {
			add(Partition{TenantID: e.TenantID, ServiceType: e.ServiceType})
		}
	}
	for _, n := range f.notifications {
		if !n.Open() || n.ActionTaken != "" || n.ExpiresAt.After(now) {
			continue
		}
		for _, e := range f.entries {
			if e.ID == n.EntryID {
				add(Partition{TenantID: e.TenantID, ServiceType: e.ServiceType})
			}
		}
	}
	return out, nil
}

// entryByID reads an entry directly, bypassing the tenant filter.
func (f *fakeRepo) entryByID(id string) *Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeRepo) notificationByID(id string) *Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// fakePublisher records notification requests instead of delivering them.
type fakePublisher struct {
	mu       sync.Mutex
	requests []notify.Request
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, req notify.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

// fakePets satisfies pet.Service.
type fakePets struct {
	pets map[string]*pet.Pet
}

func (f *fakePets) Create(ctx context.Context, req pet.CreateRequest) (*pet.Pet, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePets) GetByID(ctx context.Context, tenantID, id string) (*pet.Pet, error) {
	if p, ok := f.pets[id]; ok && p.TenantID == tenantID {
		return p, nil
	}
	return nil, pet.ErrNotFound
}

func (f *fakePets) List(ctx context.Context, tenantID string, filter pet.Filter) ([]*pet.Pet, int, error) {
	return nil, 0, errors.New("not implemented")
}

// fakeCustomers satisfies customer.Service.
type fakeCustomers struct {
	customers map[string]*customer.Customer
}

func (f *fakeCustomers) Create(ctx context.Context, req customer.CreateRequest) (*customer.Customer, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCustomers) GetByID(ctx context.Context, tenantID, id string) (*customer.Customer, error) {
	if c, ok := f.customers[id]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, customer.ErrNotFound
}

func (f *fakeCustomers) List(ctx context.Context, tenantID string, params request.ListParams) ([]*customer.Customer, int, error) {
	return nil, 0, errors.New("not implemented")
}
