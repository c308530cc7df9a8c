package customer

import (
	"context"
	"strings"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
)

// CreateRequest carries data to register a customer.
type CreateRequest struct {
	TenantID string
	Name     string
	Email    string
	Phone    string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Customer, error)
	GetByID(ctx context.Context, tenantID, id string) (*Customer, error)
	List(ctx context.Context, tenantID string, params request.ListParams) ([]*Customer, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}

	c := &Customer{
		TenantID: req.TenantID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Customer, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, params request.ListParams) ([]*Customer, int, error) {
	return s.repo.List(ctx, tenantID, params)
}
