package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moosecreates/tailtown-sub004/internal/pkg/request"
)

// Repository defines data access methods for customers. Every method is
// tenant-scoped.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, tenantID, id string) (*Customer, error)
	List(ctx context.Context, tenantID string, params request.ListParams) ([]*Customer, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, c *Customer) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.customers").
		Columns("tenant_id", "name", "email", "phone").
		Values(c.TenantID, c.Name, c.Email, c.Phone).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create customer query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create customer failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Customer, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "tenant_id", "name", "email", "phone", "created_at", "updated_at").
		From("public.customers").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get customer query failed: %w", err)
	}

	var c Customer
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get customer failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, params request.ListParams) ([]*Customer, int, error) {
	params.Normalize()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "tenant_id", "name", "email", "phone", "created_at", "updated_at",
		"count(*) OVER() as total_count",
	).
		From("public.customers").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("name ASC").
		Limit(uint64(params.PageSize)).
		Offset(uint64((params.Page - 1) * params.PageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list customers query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers failed: %w", err)
	}
	defer rows.Close()

	var customers []*Customer
	var total int
	for rows.Next() {
		var c Customer
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan customer failed: %w", err)
		}
		customers = append(customers, &c)
	}
	return customers, total, nil
}
