package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access methods for resources. Every method is
// tenant-scoped.
type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, tenantID, id string) (*Resource, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Resource, int, error)
	// ListActiveByType returns the tenant's active resources of one suite
	// type ordered by name. The ordering is the allocator's deterministic
	// scan order.
	ListActiveByType(ctx context.Context, tenantID string, t Type) ([]*Resource, error)
	Update(ctx context.Context, res *Resource) error
	Delete(ctx context.Context, tenantID, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	const query = `
		INSERT INTO public.resources (tenant_id, name, type, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, res.TenantID, res.Name, res.Type, res.IsActive).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrNameTaken
		}
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Resource, error) {
	const query = `
		SELECT id, tenant_id, name, type, is_active, created_at, updated_at
		FROM public.resources
		WHERE id = $1 AND tenant_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, tenantID)

	var res Resource
	if err := row.Scan(&res.ID, &res.TenantID, &res.Name, &res.Type, &res.IsActive, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Resource, int, error) {
	var args []interface{}
	queryBase := `
		SELECT id, tenant_id, name, type, is_active, created_at, updated_at, count(*) OVER() as total_count
		FROM public.resources
		WHERE tenant_id = $1
	`
	args = append(args, tenantID)
	paramIndex := 2

	if filter.Type != "" {
		queryBase += fmt.Sprintf(" AND type = $%d", paramIndex)
		args = append(args, filter.Type)
		paramIndex++
	}
	if filter.ActiveOnly {
		queryBase += " AND is_active"
	}

	queryBase += " ORDER BY name ASC"

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBase += fmt.Sprintf(" LIMIT $%d OFFSET $%d", paramIndex, paramIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.pool.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	var total int

	for rows.Next() {
		var res Resource
		if err := rows.Scan(
			&res.ID, &res.TenantID, &res.Name, &res.Type, &res.IsActive, &res.CreatedAt, &res.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}

	return result, total, nil
}

func (r *pgxRepository) ListActiveByType(ctx context.Context, tenantID string, t Type) ([]*Resource, error) {
	const query = `
		SELECT id, tenant_id, name, type, is_active, created_at, updated_at
		FROM public.resources
		WHERE tenant_id = $1 AND type = $2 AND is_active
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query, tenantID, t)
	if err != nil {
		return nil, fmt.Errorf("list active resources failed: %w", err)
	}
	defer rows.Close()

	var result []*Resource
	for rows.Next() {
		var res Resource
		if err := rows.Scan(
			&res.ID, &res.TenantID, &res.Name, &res.Type, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resource failed: %w", err)
		}
		result = append(result, &res)
	}
	return result, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	const query = `
		UPDATE public.resources
		SET name = $1, is_active = $2, updated_at = now()
		WHERE id = $3 AND tenant_id = $4
	`
	ct, err := r.pool.Exec(ctx, query, res.Name, res.IsActive, res.ID, res.TenantID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrNameTaken
		}
		return fmt.Errorf("update resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, tenantID, id string) error {
	const query = `
		DELETE FROM public.resources
		WHERE id = $1 AND tenant_id = $2
	`
	ct, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrHasReservations
		}
		return fmt.Errorf("delete resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
