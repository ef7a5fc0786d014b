package crdb

// Schema is the ledger DDL, applied by Migrate and by the adapter tests.
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	external_link TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'OTHER',
	allow_multiple BOOL NOT NULL DEFAULT false,
	max_quantity INT NOT NULL DEFAULT 1 CHECK (max_quantity >= 1),
	purchase_count INT NOT NULL DEFAULT 0 CHECK (purchase_count >= 0),
	reserved BOOL NOT NULL DEFAULT false,
	reserved_by TEXT NOT NULL DEFAULT '',
	reserved_by_id UUID,
	reserved_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS guests (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	phone TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	confirmed_at TIMESTAMPTZ,
	gift_id UUID,
	gift_name TEXT NOT NULL DEFAULT '',
	pledge_amount_cents BIGINT,
	pledge_contribution_id UUID,
	message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pledge_contributions (
	id UUID PRIMARY KEY,
	guest_id UUID NOT NULL,
	guest_name TEXT NOT NULL,
	guest_phone TEXT NOT NULL,
	amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload_json BYTES NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ,
	status TEXT NOT NULL DEFAULT 'NEW',
	dedupe_key TEXT NOT NULL DEFAULT ''
);
`
