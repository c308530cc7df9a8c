package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moosecreates/tailtown-sub004/internal/customer"
	"github.com/moosecreates/tailtown-sub004/internal/pet"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/daterange"
	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

// fakeRepo is an in-memory Repository with real overlap semantics, shared
// by the checker, allocator and service tests.
type fakeRepo struct {
	mu           sync.Mutex
	resources    []*resource.Resource
	reservations []*Reservation
	nextID       int

	resourceOverlapErr error
	petOverlapErr      error

	resourceOverlapCalls int
	petOverlapCalls      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{}
}

func (f *fakeRepo) addResource(tenantID, id, name string, t resource.Type, active bool) *resource.Resource {
	res := &resource.Resource{ID: id, TenantID: tenantID, Name: name, Type: t, IsActive: active}
	f.resources = append(f.resources, res)
	return res
}

func (f *fakeRepo) addReservation(rv *Reservation) *Reservation {
	f.nextID++
	if rv.ID == "" {
		rv.ID = fmt.Sprintf("rsv-%d", f.nextID)
	}
	if rv.Status == "" {
		rv.Status = StatusConfirmed
	}
	f.reservations = append(f.reservations, rv)
	return rv
}

func (f *fakeRepo) Create(ctx context.Context, rv *Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv.CreatedAt = time.Now()
	rv.UpdatedAt = rv.CreatedAt
	f.addReservation(rv)
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, tenantID, id string) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rv := range f.reservations {
		if rv.TenantID == tenantID && rv.ID == id {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, tenantID string, filter Filter) ([]*Reservation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Reservation
	for _, rv := range f.reservations {
		if rv.TenantID != tenantID {
			continue
		}
		if filter.PetID != "" && rv.PetID != filter.PetID {
			continue
		}
		if filter.Status != "" && string(rv.Status) != filter.Status {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Update(ctx context.Context, rv *Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.reservations {
		if cur.TenantID == rv.TenantID && cur.ID == rv.ID {
			cp := *rv
			cp.UpdatedAt = time.Now()
			f.reservations[i] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRepo) Delete(ctx context.Context, tenantID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.reservations {
		if cur.TenantID == tenantID && cur.ID == id {
			f.reservations = append(f.reservations[:i], f.reservations[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRepo) ListResourceOverlaps(ctx context.Context, tenantID, resourceID string, start, end time.Time, excludeID string) ([]*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceOverlapCalls++
	if f.resourceOverlapErr != nil {
		return nil, f.resourceOverlapErr
	}
	var out []*Reservation
	for _, rv := range f.reservations {
		if rv.TenantID != tenantID || rv.ResourceID != resourceID {
			continue
		}
		if excludeID != "" && rv.ID == excludeID {
			continue
		}
		if !rv.Status.Blocking() {
			continue
		}
		if daterange.Overlaps(start, end, rv.StartDate, rv.EndDate) {
			cp := *rv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPetOverlaps(ctx context.Context, tenantID, petID string, start, end time.Time, excludeID, excludeResourceID string) ([]*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.petOverlapCalls++
	if f.petOverlapErr != nil {
		return nil, f.petOverlapErr
	}
	var out []*Reservation
	for _, rv := range f.reservations {
		if rv.TenantID != tenantID || rv.PetID != petID {
			continue
		}
		if excludeID != "" && rv.ID == excludeID {
			continue
		}
		if excludeResourceID != "" && rv.ResourceID == excludeResourceID {
			continue
		}
		if !rv.Status.Blocking() {
			continue
		}
		if daterange.Overlaps(start, end, rv.StartDate, rv.EndDate) {
			cp := *rv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) WithResourceLock(ctx context.Context, tenantID, resourceID string, fn func(scope AllocationScope) error) error {
	var locked *resource.Resource
	for _, res := range f.resources {
		if res.TenantID == tenantID && res.ID == resourceID {
			locked = res
			break
		}
	}
	if locked == nil {
		return ErrResourceNotFound
	}
	return fn(&fakeScope{repo: f, resources: []*resource.Resource{locked}})
}

func (f *fakeRepo) WithAllocationLock(ctx context.Context, tenantID string, suiteType resource.Type, fn func(scope AllocationScope) error) error {
	var locked []*resource.Resource
	for _, res := range f.resources {
		if res.TenantID == tenantID && res.Type == suiteType && res.IsActive {
			locked = append(locked, res)
		}
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].Name < locked[j].Name })
	return fn(&fakeScope{repo: f, resources: locked})
}

type fakeScope struct {
	repo      *fakeRepo
	resources []*resource.Resource
}

func (s *fakeScope) Resources() []*resource.Resource {
	return s.resources
}

func (s *fakeScope) HasResourceOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	rows, err := s.repo.ListResourceOverlaps(ctx, s.tenantID(), resourceID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *fakeScope) tenantID() string {
	if len(s.resources) > 0 {
		return s.resources[0].TenantID
	}
	return ""
}

func (s *fakeScope) EnsureResource(ctx context.Context, tenantID, name string, t resource.Type) (*resource.Resource, error) {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	for _, res := range s.repo.resources {
		if res.TenantID == tenantID && res.Name == name {
			res.IsActive = true
			return res, nil
		}
	}
	res := &resource.Resource{
		ID:       fmt.Sprintf("res-%d", len(s.repo.resources)+1),
		TenantID: tenantID,
		Name:     name,
		Type:     t,
		IsActive: true,
	}
	s.repo.resources = append(s.repo.resources, res)
	return res, nil
}

func (s *fakeScope) SaveReservation(ctx context.Context, rv *Reservation) error {
	if rv.ID == "" {
		return s.repo.Create(ctx, rv)
	}
	return s.repo.Update(ctx, rv)
}

// fakeResources satisfies resource.Service for the checker's suite scan.
type fakeResources struct {
	active []*resource.Resource
	err    error
}

func (f *fakeResources) Create(ctx context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeResources) GetByID(ctx context.Context, tenantID, id string) (*resource.Resource, error) {
	for _, res := range f.active {
		if res.TenantID == tenantID && res.ID == id {
			return res, nil
		}
	}
	return nil, resource.ErrNotFound
}

func (f *fakeResources) List(ctx context.Context, tenantID string, filter resource.Filter) ([]*resource.Resource, int, error) {
	return f.active, len(f.active), nil
}

func (f *fakeResources) ListActiveByType(ctx context.Context, tenantID string, t resource.Type) ([]*resource.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*resource.Resource
	for _, res := range f.active {
		if res.TenantID == tenantID && res.Type == t && res.IsActive {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeResources) Update(ctx context.Context, tenantID, id string, req resource.UpdateRequest) (*resource.Resource, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeResources) Delete(ctx context.Context, tenantID, id string) error {
	return errors.New("not implemented")
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
