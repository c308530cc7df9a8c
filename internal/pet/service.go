package pet

import (
	"context"
	"strings"

	"github.com/moosecreates/tailtown-sub004/internal/customer"
)

// CreateRequest carries data to register a pet.
type CreateRequest struct {
	TenantID   string
	CustomerID string
	Name       string
	Breed      string
	Notes      string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Pet, error)
	GetByID(ctx context.Context, tenantID, id string) (*Pet, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Pet, int, error)
}

type service struct {
	repo            Repository
	customerService customer.Service
}

func NewService(repo Repository, customerService customer.Service) Service {
	return &service{repo: repo, customerService: customerService}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Pet, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}

	// Verify the owner exists within this tenant.
	if _, err := s.customerService.GetByID(ctx, req.TenantID, req.CustomerID); err != nil {
		return nil, ErrCustomerNotFound
	}

	p := &Pet{
		TenantID:   req.TenantID,
		CustomerID: req.CustomerID,
		Name:       strings.TrimSpace(req.Name),
		Breed:      strings.TrimSpace(req.Breed),
		Notes:      req.Notes,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Pet, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Pet, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}
