package waitlist

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

	"github.com/moosecreates/tailtown-sub004/internal/reservation"
)

// Partition identifies one independently ordered queue.
type Partition struct {
	TenantID    string
	ServiceType reservation.ServiceType
}

// QueueScope exposes the operations available inside a queue transaction.
// The open entries of the partition are locked FOR UPDATE until the
// transaction ends, so positions assigned inside stay consistent.
type QueueScope interface {
	// Entries returns the locked open (ACTIVE or NOTIFIED) entries of the
	// partition in priority order.
	Entries() []*Entry
	// InsertEntry adds a new entry to the partition within the transaction.
	InsertEntry(ctx context.Context, e *Entry) error
	// UpdateEntry persists the lifecycle fields of a locked entry.
	UpdateEntry(ctx context.Context, e *Entry) error
	// CreateNotification records an offer for one of the locked entries.
	CreateNotification(ctx context.Context, n *Notification) error
	// ListOpenNotifications returns the unresolved notifications belonging
	// to the partition's entries, terminal entries included.
	ListOpenNotifications(ctx context.Context) ([]*Notification, error)
	// ResolveNotification persists a notification's status and outcome.
	ResolveNotification(ctx context.Context, n *Notification) error
}

type Repository interface {
	GetByID(ctx context.Context, tenantID, id string) (*Entry, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Entry, int, error)
	// CountActive returns the number of ACTIVE entries in the partition.
	CountActive(ctx context.Context, tenantID string, serviceType reservation.ServiceType) (int, error)
	// ActiveStanding computes the live 1-based rank the given priority holds
	// among the partition's ACTIVE entries, plus the ACTIVE total. Stored
	// positions are a cache; this is the authoritative answer.
	ActiveStanding(ctx context.Context, tenantID string, serviceType reservation.ServiceType, priority time.Time) (int, int, error)

	// WithQueueLock runs fn in a transaction holding FOR UPDATE locks on
	// the partition's open entries. Concurrent writers for the same
	// partition serialize, other partitions never contend.
	WithQueueLock(ctx context.Context, tenantID string, serviceType reservation.ServiceType, fn func(scope QueueScope) error) error

	GetNotification(ctx context.Context, tenantID, id string) (*Notification, error)
	ListNotificationsByEntry(ctx context.Context, tenantID, entryID string) ([]*Notification, error)
	UpdateNotification(ctx context.Context, n *Notification) error

	// GetConfig returns the tenant's stored config, or nil when the tenant
	// has never written one. Callers apply their own defaults.
	GetConfig(ctx context.Context, tenantID string) (*Config, error)
	SaveConfig(ctx context.Context, cfg *Config) error

	// ListDuePartitions returns every partition holding an expired open
	// entry or an expired unresolved notification as of now.
	ListDuePartitions(ctx context.Context, now time.Time) ([]Partition, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var entryColumns = []string{
	"w.id", "w.tenant_id", "w.customer_id", "w.pet_id", "p.name", "c.name", "c.email",
	"w.service_type", "COALESCE(w.suite_type, '')",
	"COALESCE(w.preferred_resource_id::text, '')",
	"w.requested_start_date", "w.requested_end_date", "w.flexible_dates",
	"w.status", "w.priority", "w.queue_position", "w.expires_at",
	"w.notifications_sent", "COALESCE(w.converted_to_reservation_id::text, '')",
	"w.notes", "w.created_at", "w.updated_at",
}

func entrySelect() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(entryColumns...).
		From("public.waitlist_entries w").
		Join("public.pets p ON w.pet_id = p.id").
		Join("public.customers c ON w.customer_id = c.id")
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.TenantID, &e.CustomerID, &e.PetID, &e.PetName, &e.CustomerName, &e.CustomerEmail,
		&e.ServiceType, &e.SuiteType, &e.PreferredResourceID,
		&e.RequestedStartDate, &e.RequestedEndDate, &e.FlexibleDates,
		&e.Status, &e.Priority, &e.Position, &e.ExpiresAt,
		&e.NotificationsSent, &e.ConvertedToReservationID,
		&e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Entry, error) {
	query, args, err := entrySelect().
		Where(squirrel.Eq{"w.id": id, "w.tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get waitlist entry query failed: %w", err)
	}

	e, err := scanEntry(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get waitlist entry failed: %w", err)
	}
	return e, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Entry, int, error) {
	query := entrySelect().
		Column("count(*) OVER() as total_count").
		Where(squirrel.Eq{"w.tenant_id": tenantID})

	if filter.ServiceType != "" {
		query = query.Where(squirrel.Eq{"w.service_type": filter.ServiceType})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"w.status": filter.Status})
	}
	if filter.CustomerID != "" {
		query = query.Where(squirrel.Eq{"w.customer_id": filter.CustomerID})
	}

	query = query.OrderBy("w.priority ASC")

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
		return nil, 0, fmt.Errorf("build list waitlist entries query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list waitlist entries failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	var total int

	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.CustomerID, &e.PetID, &e.PetName, &e.CustomerName, &e.CustomerEmail,
			&e.ServiceType, &e.SuiteType, &e.PreferredResourceID,
			&e.RequestedStartDate, &e.RequestedEndDate, &e.FlexibleDates,
			&e.Status, &e.Priority, &e.Position, &e.ExpiresAt,
			&e.NotificationsSent, &e.ConvertedToReservationID,
			&e.Notes, &e.CreatedAt, &e.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan waitlist entry failed: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, total, nil
}

func (r *pgxRepository) CountActive(ctx context.Context, tenantID string, serviceType reservation.ServiceType) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.waitlist_entries").
		Where(squirrel.Eq{
			"tenant_id":    tenantID,
			"service_type": serviceType,
			"status":       EntryActive,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count active query failed: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active entries failed: %w", err)
	}
	return count, nil
}

const activeStandingQuery = `
	SELECT count(*) FILTER (WHERE priority <= $3), count(*)
	FROM public.waitlist_entries
	WHERE tenant_id = $1 AND service_type = $2 AND status = 'ACTIVE'
`

func (r *pgxRepository) ActiveStanding(ctx context.Context, tenantID string, serviceType reservation.ServiceType, priority time.Time) (int, int, error) {
	var position, total int
	if err := r.pool.QueryRow(ctx, activeStandingQuery, tenantID, serviceType, priority).Scan(&position, &total); err != nil {
		return 0, 0, fmt.Errorf("active standing query failed: %w", err)
	}
	return position, total, nil
}

const lockQueuePartition = `
	SELECT w.id, w.tenant_id, w.customer_id, w.pet_id, p.name, c.name, c.email,
		w.service_type, COALESCE(w.suite_type, ''),
		COALESCE(w.preferred_resource_id::text, ''),
		w.requested_start_date, w.requested_end_date, w.flexible_dates,
		w.status, w.priority, w.queue_position, w.expires_at,
		w.notifications_sent, COALESCE(w.converted_to_reservation_id::text, ''),
		w.notes, w.created_at, w.updated_at
	FROM public.waitlist_entries w
	JOIN public.pets p ON w.pet_id = p.id
	JOIN public.customers c ON w.customer_id = c.id
	WHERE w.tenant_id = $1 AND w.service_type = $2 AND w.status IN ('ACTIVE', 'NOTIFIED')
	ORDER BY w.priority ASC, w.created_at ASC
	FOR UPDATE OF w
`

func (r *pgxRepository) WithQueueLock(ctx context.Context, tenantID string, serviceType reservation.ServiceType, fn func(scope QueueScope) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin queue tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, lockQueuePartition, tenantID, serviceType)
	if err != nil {
		return fmt.Errorf("lock queue partition failed: %w", err)
	}

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.CustomerID, &e.PetID, &e.PetName, &e.CustomerName, &e.CustomerEmail,
			&e.ServiceType, &e.SuiteType, &e.PreferredResourceID,
			&e.RequestedStartDate, &e.RequestedEndDate, &e.FlexibleDates,
			&e.Status, &e.Priority, &e.Position, &e.ExpiresAt,
			&e.NotificationsSent, &e.ConvertedToReservationID,
			&e.Notes, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked entry failed: %w", err)
		}
		entries = append(entries, &e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock queue partition failed: %w", err)
	}

	scope := &txQueueScope{tx: tx, tenantID: tenantID, serviceType: serviceType, entries: entries}
	if err := fn(scope); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txQueueScope is the QueueScope backed by an open pgx transaction.
type txQueueScope struct {
	tx          pgx.Tx
	tenantID    string
	serviceType reservation.ServiceType
	entries     []*Entry
}

func (s *txQueueScope) Entries() []*Entry {
	return s.entries
}

func (s *txQueueScope) InsertEntry(ctx context.Context, e *Entry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.waitlist_entries").
		Columns(
			"tenant_id", "customer_id", "pet_id", "service_type", "suite_type",
			"preferred_resource_id", "requested_start_date", "requested_end_date",
			"flexible_dates", "status", "queue_position", "expires_at", "notes",
		).
		Values(
			e.TenantID, e.CustomerID, e.PetID, e.ServiceType, nullIfEmpty(string(e.SuiteType)),
			nullIfEmpty(e.PreferredResourceID), e.RequestedStartDate, e.RequestedEndDate,
			e.FlexibleDates, e.Status, e.Position, e.ExpiresAt, e.Notes,
		).
		Suffix("RETURNING id, priority, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create waitlist entry query failed: %w", err)
	}

	err = s.tx.QueryRow(ctx, query, args...).Scan(&e.ID, &e.Priority, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "create waitlist entry")
	}
	return nil
}

func (s *txQueueScope) UpdateEntry(ctx context.Context, e *Entry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.waitlist_entries").
		Set("status", e.Status).
		Set("queue_position", e.Position).
		Set("expires_at", e.ExpiresAt).
		Set("notifications_sent", e.NotificationsSent).
		Set("converted_to_reservation_id", nullIfEmpty(e.ConvertedToReservationID)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": e.ID, "tenant_id": e.TenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update waitlist entry query failed: %w", err)
	}

	ct, err := s.tx.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "update waitlist entry")
	}
	if ct.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *txQueueScope) CreateNotification(ctx context.Context, n *Notification) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.waitlist_notifications").
		Columns(
			"tenant_id", "entry_id", "recipient", "channel", "notification_type",
			"status", "resource_id", "window_start", "window_end", "expires_at",
		).
		Values(
			n.TenantID, n.EntryID, n.Recipient, n.Channel, n.Type,
			n.Status, nullIfEmpty(n.ResourceID), n.WindowStart, n.WindowEnd, n.ExpiresAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create notification query failed: %w", err)
	}

	err = s.tx.QueryRow(ctx, query, args...).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "create notification")
	}
	return nil
}

func (s *txQueueScope) ListOpenNotifications(ctx context.Context) ([]*Notification, error) {
	query, args, err := notificationSelect().
		Join("public.waitlist_entries w ON n.entry_id = w.id").
		Where(squirrel.Eq{"w.tenant_id": s.tenantID, "w.service_type": s.serviceType}).
		Where(squirrel.Eq{"n.status": []NotificationStatus{NotificationPending, NotificationSent}}).
		Where("n.action_taken IS NULL").
		OrderBy("n.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build open notifications query failed: %w", err)
	}

	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list open notifications failed: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

func (s *txQueueScope) ResolveNotification(ctx context.Context, n *Notification) error {
	return execNotificationUpdate(ctx, s.tx, n)
}

var notificationColumns = []string{
	"n.id", "n.tenant_id", "n.entry_id", "n.recipient", "n.channel",
	"n.notification_type", "n.status", "COALESCE(n.action_taken, '')",
	"COALESCE(n.resource_id::text, '')", "n.window_start", "n.window_end",
	"n.sent_at", "n.expires_at", "n.created_at", "n.updated_at",
}

func notificationSelect() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(notificationColumns...).
		From("public.waitlist_notifications n")
}

func scanNotifications(rows pgx.Rows) ([]*Notification, error) {
	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.TenantID, &n.EntryID, &n.Recipient, &n.Channel,
			&n.Type, &n.Status, &n.ActionTaken,
			&n.ResourceID, &n.WindowStart, &n.WindowEnd,
			&n.SentAt, &n.ExpiresAt, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification failed: %w", err)
		}
		out = append(out, &n)
	}
	return out, nil
}

func (r *pgxRepository) GetNotification(ctx context.Context, tenantID, id string) (*Notification, error) {
	query, args, err := notificationSelect().
		Where(squirrel.Eq{"n.id": id, "n.tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get notification query failed: %w", err)
	}

	var n Notification
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&n.ID, &n.TenantID, &n.EntryID, &n.Recipient, &n.Channel,
		&n.Type, &n.Status, &n.ActionTaken,
		&n.ResourceID, &n.WindowStart, &n.WindowEnd,
		&n.SentAt, &n.ExpiresAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification failed: %w", err)
	}
	return &n, nil
}

func (r *pgxRepository) ListNotificationsByEntry(ctx context.Context, tenantID, entryID string) ([]*Notification, error) {
	query, args, err := notificationSelect().
		Where(squirrel.Eq{"n.tenant_id": tenantID, "n.entry_id": entryID}).
		OrderBy("n.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notifications query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications failed: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

func (r *pgxRepository) UpdateNotification(ctx context.Context, n *Notification) error {
	return execNotificationUpdate(ctx, r.pool, n)
}

// execer is the subset of pgx shared by pools and transactions.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func execNotificationUpdate(ctx context.Context, db execer, n *Notification) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.waitlist_notifications").
		Set("status", n.Status).
		Set("action_taken", nullIfEmpty(string(n.ActionTaken))).
		Set("sent_at", n.SentAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": n.ID, "tenant_id": n.TenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update notification query failed: %w", err)
	}

	ct, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update notification failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *pgxRepository) GetConfig(ctx context.Context, tenantID string) (*Config, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"tenant_id", "entry_expiration_days", "notification_expiration_hours",
		"max_notifications_per_availability", "enabled_service_types", "updated_at",
	).
		From("public.waitlist_configs").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get config query failed: %w", err)
	}

	var cfg Config
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&cfg.TenantID, &cfg.EntryExpirationDays, &cfg.NotificationExpirationHours,
		&cfg.MaxNotificationsPerAvailability, &cfg.EnabledServiceTypes, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get waitlist config failed: %w", err)
	}
	return &cfg, nil
}

func (r *pgxRepository) SaveConfig(ctx context.Context, cfg *Config) error {
	const query = `
		INSERT INTO public.waitlist_configs
			(tenant_id, entry_expiration_days, notification_expiration_hours, max_notifications_per_availability, enabled_service_types)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			entry_expiration_days = EXCLUDED.entry_expiration_days,
			notification_expiration_hours = EXCLUDED.notification_expiration_hours,
			max_notifications_per_availability = EXCLUDED.max_notifications_per_availability,
			enabled_service_types = EXCLUDED.enabled_service_types,
			updated_at = now()
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		cfg.TenantID, cfg.EntryExpirationDays, cfg.NotificationExpirationHours,
		cfg.MaxNotificationsPerAvailability, cfg.EnabledServiceTypes,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save waitlist config failed: %w", err)
	}
	return nil
}

const duePartitionsQuery = `
	SELECT w.tenant_id, w.service_type
	FROM public.waitlist_entries w
	WHERE w.status IN ('ACTIVE', 'NOTIFIED') AND w.expires_at <= $1
	UNION
	SELECT w.tenant_id, w.service_type
	FROM public.waitlist_notifications n
	JOIN public.waitlist_entries w ON n.entry_id = w.id
	WHERE n.status IN ('PENDING', 'SENT') AND n.action_taken IS NULL AND n.expires_at <= $1
`

func (r *pgxRepository) ListDuePartitions(ctx context.Context, now time.Time) ([]Partition, error) {
	rows, err := r.pool.Query(ctx, duePartitionsQuery, now)
	if err != nil {
		return nil, fmt.Errorf("list due partitions failed: %w", err)
	}
	defer rows.Close()

	var out []Partition
	for rows.Next() {
		var p Partition
		if err := rows.Scan(&p.TenantID, &p.ServiceType); err != nil {
			return nil, fmt.Errorf("scan due partition failed: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// nullIfEmpty lets optional columns round-trip as SQL NULL.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch {
			case strings.Contains(pgErr.ConstraintName, "pet"):
				return ErrPetNotFound
			case strings.Contains(pgErr.ConstraintName, "customer"):
				return ErrCustomerNotFound
			}
		}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
