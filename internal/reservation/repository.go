package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moosecreates/tailtown-sub004/internal/resource"
)

// AllocationScope exposes the operations available inside an allocation
// transaction. The resource rows handed to the callback are locked FOR
// UPDATE until the transaction ends, so overlap answers stay true through
// the reservation write.
type AllocationScope interface {
	// Resources returns the locked candidate rows in name order.
	Resources() []*resource.Resource
	// HasResourceOverlap checks for blocking reservations on the resource
	// intersecting [start, end), excluding excludeID when updating.
	HasResourceOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error)
	// EnsureResource creates the named resource if it does not exist yet
	// and returns the row either way.
	EnsureResource(ctx context.Context, tenantID, name string, t resource.Type) (*resource.Resource, error)
	// SaveReservation inserts the reservation, or updates it when it
	// already has an ID, within the same transaction.
	SaveReservation(ctx context.Context, res *Reservation) error
}

type Repository interface {
	Create(ctx context.Context, res *Reservation) error
	GetByID(ctx context.Context, tenantID, id string) (*Reservation, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Reservation, int, error)
	Update(ctx context.Context, res *Reservation) error
	Delete(ctx context.Context, tenantID, id string) error

	// ListResourceOverlaps returns blocking reservations of the tenant on
	// the resource intersecting [start, end), excluding excludeID.
	ListResourceOverlaps(ctx context.Context, tenantID, resourceID string, start, end time.Time, excludeID string) ([]*Reservation, error)
	// ListPetOverlaps is the same query scoped to a pet. Rows sitting on
	// excludeResourceID are skipped so a pair already reported by the
	// resource check is not counted twice.
	ListPetOverlaps(ctx context.Context, tenantID, petID string, start, end time.Time, excludeID, excludeResourceID string) ([]*Reservation, error)

	// WithResourceLock runs fn in a transaction holding a FOR UPDATE lock
	// on one resource row. Returns ErrResourceNotFound when the resource
	// does not belong to the tenant.
	WithResourceLock(ctx context.Context, tenantID, resourceID string, fn func(scope AllocationScope) error) error
	// WithAllocationLock runs fn in a transaction holding FOR UPDATE locks
	// on all of the tenant's active resources of the suite type. Locks are
	// taken in name order; concurrent allocators for the same partition
	// serialize, cross-tenant traffic never contends.
	WithAllocationLock(ctx context.Context, tenantID string, suiteType resource.Type, fn func(scope AllocationScope) error) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func blockingStatusStrings() []string {
	out := make([]string, len(BlockingStatuses))
	for i, st := range BlockingStatuses {
		out[i] = string(st)
	}
	return out
}

// nullIfEmpty lets optional columns round-trip as SQL NULL.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var joinedColumns = []string{
	"r.id", "r.tenant_id", "r.customer_id", "r.pet_id", "p.name",
	"COALESCE(r.resource_id::text, '')", "COALESCE(res.name, '')",
	"r.service_type", "COALESCE(r.suite_type, '')", "r.status",
	"r.start_date", "r.end_date", "r.notes", "r.created_at", "r.updated_at",
}

func joinedSelect() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(joinedColumns...).
		From("public.reservations r").
		Join("public.pets p ON r.pet_id = p.id").
		LeftJoin("public.resources res ON r.resource_id = res.id")
}

func scanJoined(row pgx.Row) (*Reservation, error) {
	var rv Reservation
	err := row.Scan(
		&rv.ID, &rv.TenantID, &rv.CustomerID, &rv.PetID, &rv.PetName,
		&rv.ResourceID, &rv.ResourceName,
		&rv.ServiceType, &rv.SuiteType, &rv.Status,
		&rv.StartDate, &rv.EndDate, &rv.Notes, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.reservations").
		Columns("tenant_id", "customer_id", "pet_id", "resource_id", "service_type", "suite_type", "status", "start_date", "end_date", "notes").
		Values(
			res.TenantID, res.CustomerID, res.PetID, nullIfEmpty(res.ResourceID),
			res.ServiceType, nullIfEmpty(string(res.SuiteType)), res.Status,
			res.StartDate, res.EndDate, res.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "create reservation")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Reservation, error) {
	query, args, err := joinedSelect().
		Where(squirrel.Eq{"r.id": id, "r.tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	rv, err := scanJoined(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return rv, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Reservation, int, error) {
	query := joinedSelect().
		Column("count(*) OVER() as total_count").
		Where(squirrel.Eq{"r.tenant_id": tenantID})

	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"r.customer_id": filter.CustomerID})
	}
	if filter.PetID != "" {
		query = query.Where(squirrel.Eq{"r.pet_id": filter.PetID})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"r.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.status": filter.Status})
	}
	if filter.ServiceType != "" {
		query = query.Where(squirrel.Eq{"r.service_type": filter.ServiceType})
	}
	// Date window filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"r.end_date": filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"r.start_date": filter.To})
	}

	query = query.OrderBy("r.start_date DESC")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	var total int

	for rows.Next() {
		var rv Reservation
		if err := rows.Scan(
			&rv.ID, &rv.TenantID, &rv.CustomerID, &rv.PetID, &rv.PetName,
			&rv.ResourceID, &rv.ResourceName,
			&rv.ServiceType, &rv.SuiteType, &rv.Status,
			&rv.StartDate, &rv.EndDate, &rv.Notes, &rv.CreatedAt, &rv.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		reservations = append(reservations, &rv)
	}

	return reservations, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.reservations").
		Set("resource_id", nullIfEmpty(res.ResourceID)).
		Set("suite_type", nullIfEmpty(string(res.SuiteType))).
		Set("status", res.Status).
		Set("start_date", res.StartDate).
		Set("end_date", res.EndDate).
		Set("notes", res.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID, "tenant_id": res.TenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update reservation")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, tenantID, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.reservations").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reservation query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ListResourceOverlaps(ctx context.Context, tenantID, resourceID string, start, end time.Time, excludeID string) ([]*Reservation, error) {
	query := joinedSelect().
		Where(squirrel.Eq{"r.tenant_id": tenantID}).
		Where(squirrel.Eq{"r.resource_id": resourceID}).
		Where(squirrel.Eq{"r.status": blockingStatusStrings()}).
		Where(squirrel.Lt{"r.start_date": end}).
		Where(squirrel.Gt{"r.end_date": start})

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"r.id": excludeID})
	}

	return r.queryOverlaps(ctx, query, "resource")
}

func (r *pgxRepository) ListPetOverlaps(ctx context.Context, tenantID, petID string, start, end time.Time, excludeID, excludeResourceID string) ([]*Reservation, error) {
	query := joinedSelect().
		Where(squirrel.Eq{"r.tenant_id": tenantID}).
		Where(squirrel.Eq{"r.pet_id": petID}).
		Where(squirrel.Eq{"r.status": blockingStatusStrings()}).
		Where(squirrel.Lt{"r.start_date": end}).
		Where(squirrel.Gt{"r.end_date": start})

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"r.id": excludeID})
	}
	if excludeResourceID != "" {
		query = query.Where(squirrel.Expr("r.resource_id IS DISTINCT FROM ?", excludeResourceID))
	}

	return r.queryOverlaps(ctx, query, "pet")
}

func (r *pgxRepository) queryOverlaps(ctx context.Context, query squirrel.SelectBuilder, kind string) ([]*Reservation, error) {
	sql, args, err := query.OrderBy("r.start_date ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s overlap query failed: %w", kind, err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s overlap query failed: %w", kind, err)
	}
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		var rv Reservation
		if err := rows.Scan(
			&rv.ID, &rv.TenantID, &rv.CustomerID, &rv.PetID, &rv.PetName,
			&rv.ResourceID, &rv.ResourceName,
			&rv.ServiceType, &rv.SuiteType, &rv.Status,
			&rv.StartDate, &rv.EndDate, &rv.Notes, &rv.CreatedAt, &rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan %s overlap failed: %w", kind, err)
		}
		out = append(out, &rv)
	}
	return out, nil
}

const lockResourceByID = `
	SELECT id, tenant_id, name, type, is_active, created_at, updated_at
	FROM public.resources
	WHERE id = $1 AND tenant_id = $2
	FOR UPDATE
`

const lockResourcesByType = `
	SELECT id, tenant_id, name, type, is_active, created_at, updated_at
	FROM public.resources
	WHERE tenant_id = $1 AND type = $2 AND is_active
	ORDER BY name ASC
	FOR UPDATE
`

func (r *pgxRepository) WithResourceLock(ctx context.Context, tenantID, resourceID string, fn func(scope AllocationScope) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin allocation tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var res resource.Resource
	err = tx.QueryRow(ctx, lockResourceByID, resourceID, tenantID).Scan(
		&res.ID, &res.TenantID, &res.Name, &res.Type, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("lock resource failed: %w", err)
	}

	if err := fn(&txScope{tx: tx, tenantID: tenantID, resources: []*resource.Resource{&res}}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgxRepository) WithAllocationLock(ctx context.Context, tenantID string, suiteType resource.Type, fn func(scope AllocationScope) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin allocation tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockResourcesByType, tenantID, suiteType)
	if err != nil {
		return fmt.Errorf("lock resources failed: %w", err)
	}

	var resources []*resource.Resource
	for rows.Next() {
		var res resource.Resource
		if err := rows.Scan(
			&res.ID, &res.TenantID, &res.Name, &res.Type, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked resource failed: %w", err)
		}
		resources = append(resources, &res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock resources failed: %w", err)
	}

	if err := fn(&txScope{tx: tx, tenantID: tenantID, resources: resources}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txScope is the AllocationScope backed by an open pgx transaction.
type txScope struct {
	tx        pgx.Tx
	tenantID  string
	resources []*resource.Resource
}

func (s *txScope) Resources() []*resource.Resource {
	return s.resources
}

// resourceOverlapExists builds the blocking-overlap EXISTS subquery. The
// tenant predicate is redundant with the resource FK but keeps every overlap
// query tenant-scoped and aligned with idx_reservations_resource_window.
func resourceOverlapExists(tenantID, resourceID string, start, end time.Time, excludeID string) squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.reservations").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"status": blockingStatusStrings()}).
		Where(squirrel.Lt{"start_date": end}).
		Where(squirrel.Gt{"end_date": start})

	if excludeID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeID})
	}
	return subQuery
}

func (s *txScope) HasResourceOverlap(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	sql, args, err := resourceOverlapExists(s.tenantID, resourceID, start, end, excludeID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	if err := s.tx.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (s *txScope) EnsureResource(ctx context.Context, tenantID, name string, t resource.Type) (*resource.Resource, error) {
	const query = `
		INSERT INTO public.resources (tenant_id, name, type, is_active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (tenant_id, name) DO UPDATE SET is_active = TRUE, updated_at = now()
		RETURNING id, tenant_id, name, type, is_active, created_at, updated_at
	`
	var res resource.Resource
	err := s.tx.QueryRow(ctx, query, tenantID, name, t).Scan(
		&res.ID, &res.TenantID, &res.Name, &res.Type, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure resource failed: %w", err)
	}
	return &res, nil
}

func (s *txScope) SaveReservation(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	if res.ID == "" {
		query, args, err := psql.Insert("public.reservations").
			Columns("tenant_id", "customer_id", "pet_id", "resource_id", "service_type", "suite_type", "status", "start_date", "end_date", "notes").
			Values(
				res.TenantID, res.CustomerID, res.PetID, nullIfEmpty(res.ResourceID),
				res.ServiceType, nullIfEmpty(string(res.SuiteType)), res.Status,
				res.StartDate, res.EndDate, res.Notes,
			).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create reservation query failed: %w", err)
		}

		if err := s.tx.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return mapWriteError(err, "create reservation")
		}
		return nil
	}

	query, args, err := psql.Update("public.reservations").
		Set("resource_id", nullIfEmpty(res.ResourceID)).
		Set("suite_type", nullIfEmpty(string(res.SuiteType))).
		Set("status", res.Status).
		Set("start_date", res.StartDate).
		Set("end_date", res.EndDate).
		Set("notes", res.Notes).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID, "tenant_id": res.TenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	ct, err := s.tx.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update reservation")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapWriteError translates constraint violations raised by reservation
// writes. The pet-exclusivity exclusion constraint is the storage-level
// backstop for races two application-level checks cannot see.
func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ExclusionViolation:
			return ErrPetConflict
		case pgerrcode.ForeignKeyViolation:
			switch {
			case strings.Contains(pgErr.ConstraintName, "pet"):
				return ErrPetNotFound
			case strings.Contains(pgErr.ConstraintName, "customer"):
				return ErrCustomerNotFound
			case strings.Contains(pgErr.ConstraintName, "resource"):
				return ErrResourceNotFound
			}
		case pgerrcode.CheckViolation:
			return ErrInvalidDateRange
		}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
