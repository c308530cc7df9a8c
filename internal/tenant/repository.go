package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access methods for tenants.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, t *Tenant) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.tenants").
		Columns("name", "slug", "is_active").
		Values(t.Name, t.Slug, t.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create tenant query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("create tenant failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return r.getBy(ctx, squirrel.Eq{"slug": slug})
}

func (r *pgxRepository) getBy(ctx context.Context, pred squirrel.Eq) (*Tenant, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "slug", "is_active", "created_at").
		From("public.tenants").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get tenant query failed: %w", err)
	}

	var t Tenant
	err = r.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Name, &t.Slug, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant failed: %w", err)
	}
	return &t, nil
}
