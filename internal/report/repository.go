package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// OccupancyRow aggregates one resource's bookings over a report window.
type OccupancyRow struct {
	ResourceID       string
	ResourceName     string
	SuiteType        string
	ReservationCount int
	ReservedNights   int
}

type Repository interface {
	// OccupancyRows returns one row per resource of the tenant with the
	// nights reserved inside [from, to), clipped to the window. Inactive
	// resources are included; their history still counts.
	OccupancyRows(ctx context.Context, tenantID string, from, to time.Time) ([]OccupancyRow, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// Completed stays count toward occupancy alongside the blocking statuses;
// the report looks backward as much as forward.
const occupancyQuery = `
	SELECT res.id, res.name, res.type,
		COUNT(r.id),
		COALESCE(SUM(LEAST(r.end_date, $3::date) - GREATEST(r.start_date, $2::date)), 0)
	FROM public.resources res
	LEFT JOIN public.reservations r
		ON r.resource_id = res.id
		AND r.tenant_id = res.tenant_id
		AND r.status IN ('CONFIRMED', 'CHECKED_IN', 'PENDING_PAYMENT', 'PARTIALLY_PAID', 'COMPLETED')
		AND r.start_date < $3 AND r.end_date > $2
	WHERE res.tenant_id = $1
	GROUP BY res.id, res.name, res.type
	ORDER BY res.type ASC, res.name ASC
`

func (r *pgxRepository) OccupancyRows(ctx context.Context, tenantID string, from, to time.Time) ([]OccupancyRow, error) {
	rows, err := r.pool.Query(ctx, occupancyQuery, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("occupancy query failed: %w", err)
	}
	defer rows.Close()

	var out []OccupancyRow
	for rows.Next() {
		var row OccupancyRow
		if err := rows.Scan(&row.ResourceID, &row.ResourceName, &row.SuiteType, &row.ReservationCount, &row.ReservedNights); err != nil {
			return nil, fmt.Errorf("scan occupancy row failed: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}
