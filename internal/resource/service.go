package resource

import (
	"context"
	"strings"
)

// CreateRequest carries data to register a resource.
type CreateRequest struct {
	TenantID string
	Name     string
	Type     Type
	IsActive *bool
}

// UpdateRequest carries data for partial updates.
type UpdateRequest struct {
	Name     *string
	IsActive *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Resource, error)
	GetByID(ctx context.Context, tenantID, id string) (*Resource, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Resource, int, error)
	ListActiveByType(ctx context.Context, tenantID string, t Type) ([]*Resource, error)
	Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Resource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	res := &Resource{
		TenantID: req.TenantID,
		Name:     name,
		Type:     req.Type,
		IsActive: active,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Resource, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Resource, int, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, ErrInvalidType
	}
	return s.repo.List(ctx, tenantID, filter)
}

func (s *service) ListActiveByType(ctx context.Context, tenantID string, t Type) ([]*Resource, error) {
	if !t.Valid() {
		return nil, ErrInvalidType
	}
	return s.repo.ListActiveByType(ctx, tenantID, t)
}

func (s *service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		res.Name = name
	}
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.repo.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tenantID, id)
}
