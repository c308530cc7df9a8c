package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// btree_gist lets the pet-exclusivity exclusion constraint mix equality
// columns (tenant_id, pet_id) with the daterange overlap operator.
const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS tenants (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	slug TEXT UNIQUE NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_customers_tenant ON customers (tenant_id);

CREATE TABLE IF NOT EXISTS pets (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	customer_id UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	breed TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pets_tenant_customer ON pets (tenant_id, customer_id);

CREATE TABLE IF NOT EXISTS resources (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (tenant_id, name)
);

CREATE INDEX IF NOT EXISTS idx_resources_tenant_type ON resources (tenant_id, type) WHERE is_active;

CREATE TABLE IF NOT EXISTS reservations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	customer_id UUID NOT NULL REFERENCES customers(id),
	pet_id UUID NOT NULL REFERENCES pets(id),
	resource_id UUID REFERENCES resources(id),
	service_type TEXT NOT NULL,
	suite_type TEXT,
	status TEXT NOT NULL DEFAULT 'CONFIRMED',
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT reservations_dates_valid CHECK (start_date < end_date),
	CONSTRAINT reservations_pet_no_overlap EXCLUDE USING gist (
		tenant_id WITH =,
		pet_id WITH =,
		daterange(start_date, end_date) WITH &&
	) WHERE (status IN ('CONFIRMED', 'CHECKED_IN', 'PENDING_PAYMENT', 'PARTIALLY_PAID'))
);

CREATE INDEX IF NOT EXISTS idx_reservations_resource_window
	ON reservations (tenant_id, resource_id, start_date, end_date);
CREATE INDEX IF NOT EXISTS idx_reservations_pet ON reservations (tenant_id, pet_id);

CREATE TABLE IF NOT EXISTS waitlist_entries (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	customer_id UUID NOT NULL REFERENCES customers(id),
	pet_id UUID NOT NULL REFERENCES pets(id),
	service_type TEXT NOT NULL,
	suite_type TEXT,
	preferred_resource_id UUID REFERENCES resources(id),
	requested_start_date DATE NOT NULL,
	requested_end_date DATE,
	flexible_dates BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	priority TIMESTAMPTZ NOT NULL DEFAULT now(),
	queue_position INT NOT NULL DEFAULT 0,
	expires_at TIMESTAMPTZ NOT NULL,
	notifications_sent INT NOT NULL DEFAULT 0,
	converted_to_reservation_id UUID REFERENCES reservations(id),
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_waitlist_active
	ON waitlist_entries (tenant_id, service_type, priority) WHERE status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS waitlist_notifications (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	entry_id UUID NOT NULL REFERENCES waitlist_entries(id) ON DELETE CASCADE,
	recipient TEXT NOT NULL DEFAULT '',
	channel TEXT NOT NULL DEFAULT 'EMAIL',
	notification_type TEXT NOT NULL DEFAULT 'SPOT_AVAILABLE',
	status TEXT NOT NULL DEFAULT 'PENDING',
	action_taken TEXT,
	resource_id UUID REFERENCES resources(id),
	window_start DATE,
	window_end DATE,
	sent_at TIMESTAMPTZ,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_waitlist_notifications_entry ON waitlist_notifications (entry_id);
CREATE INDEX IF NOT EXISTS idx_waitlist_notifications_open
	ON waitlist_notifications (tenant_id, expires_at) WHERE status IN ('PENDING', 'SENT');

CREATE TABLE IF NOT EXISTS waitlist_configs (
	tenant_id UUID PRIMARY KEY REFERENCES tenants(id) ON DELETE CASCADE,
	entry_expiration_days INT NOT NULL DEFAULT 30,
	notification_expiration_hours INT NOT NULL DEFAULT 24,
	max_notifications_per_availability INT NOT NULL DEFAULT 3,
	enabled_service_types TEXT[] NOT NULL DEFAULT ARRAY['BOARDING', 'DAYCARE', 'GROOMING', 'TRAINING'],
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the schema. Statements are idempotent so this is safe to
// run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
