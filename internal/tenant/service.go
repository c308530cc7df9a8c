package tenant

import (
	"context"
	"strings"
)

// CreateRequest carries data to provision a tenant.
type CreateRequest struct {
	Name string
	Slug string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Tenant, error)
	GetByID(ctx context.Context, id string) (*Tenant, error)
	// RequireActive resolves a tenant and fails when it is deactivated.
	RequireActive(ctx context.Context, id string) (*Tenant, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		slug = slugify(name)
	}
	if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}

	t := &Tenant{
		Name:     name,
		Slug:     slug,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) RequireActive(ctx context.Context, id string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrInactive
	}
	return t, nil
}

// slugify derives a slug from a display name: lowercase, spaces to hyphens,
// everything else dropped.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
