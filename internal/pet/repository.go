package pet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
)

// Filter narrows pet listings.
type Filter struct {
	CustomerID string
	request.ListParams
}

// Repository defines data access methods for pets. Every method is
// tenant-scoped.
type Repository interface {
	Create(ctx context.Context, p *Pet) error
	GetByID(ctx context.Context, tenantID, id string) (*Pet, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Pet, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, p *Pet) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.pets").
		Columns("tenant_id", "customer_id", "name", "breed", "notes").
		Values(p.TenantID, p.CustomerID, p.Name, p.Breed, p.Notes).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create pet query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create pet failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Pet, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "tenant_id", "customer_id", "name", "breed", "notes", "created_at", "updated_at").
		From("public.pets").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get pet query failed: %w", err)
	}

	var p Pet
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.TenantID, &p.CustomerID, &p.Name, &p.Breed, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pet failed: %w", err)
	}
	return &p, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Pet, int, error) {
	filter.Normalize()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "tenant_id", "customer_id", "name", "breed", "notes", "created_at", "updated_at",
		"count(*) OVER() as total_count",
	).
		From("public.pets").
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"customer_id": filter.CustomerID})
	}

	query = query.OrderBy("name ASC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64((filter.Page - 1) * filter.PageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list pets query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pets failed: %w", err)
	}
	defer rows.Close()

	var pets []*Pet
	var total int
	for rows.Next() {
		var p Pet
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.CustomerID, &p.Name, &p.Breed, &p.Notes, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan pet failed: %w", err)
		}
		pets = append(pets, &p)
	}
	return pets, total, nil
}
