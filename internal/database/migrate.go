package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Events and sub-events share one id sequence so a ticket reference resolves
// unambiguously to either.
var migrations = []string{
	`CREATE SEQUENCE IF NOT EXISTS occasion_ids`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT PRIMARY KEY DEFAULT nextval('occasion_ids'),
		organiser TEXT NOT NULL,
		name TEXT NOT NULL,
		venue TEXT NOT NULL DEFAULT '',
		date BIGINT NOT NULL DEFAULT 0,
		ticket_price NUMERIC(78,0) NOT NULL,
		total_tickets INT NOT NULL,
		tickets_sold INT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		is_multi_day BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT events_sold_within_supply CHECK (tickets_sold <= total_tickets)
	)`,
	`CREATE TABLE IF NOT EXISTS sub_events (
		id BIGINT PRIMARY KEY DEFAULT nextval('occasion_ids'),
		event_id BIGINT NOT NULL REFERENCES events(id),
		day_index INT NOT NULL,
		venue TEXT NOT NULL,
		date BIGINT NOT NULL,
		total_tickets INT NOT NULL,
		tickets_sold INT NOT NULL DEFAULT 0,
		swappable BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT sub_events_sold_within_supply CHECK (tickets_sold <= total_tickets)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGSERIAL PRIMARY KEY,
		event_id BIGINT NOT NULL REFERENCES events(id),
		sub_event_id BIGINT REFERENCES sub_events(id),
		owner TEXT NOT NULL,
		holder TEXT NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS tickets_owner_idx ON tickets(owner)`,
	`CREATE TABLE IF NOT EXISTS operator_approvals (
		owner TEXT NOT NULL,
		operator TEXT NOT NULL,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (owner, operator)
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		ticket_id BIGINT PRIMARY KEY REFERENCES tickets(id),
		seller TEXT NOT NULL,
		price NUMERIC(78,0) NOT NULL,
		event_id BIGINT NOT NULL REFERENCES events(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS swap_offers (
		id BIGSERIAL PRIMARY KEY,
		maker TEXT NOT NULL,
		maker_ticket_id BIGINT NOT NULL REFERENCES tickets(id),
		desired_ticket_id BIGINT NOT NULL REFERENCES tickets(id),
		taker TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS loyalty_accounts (
		address TEXT PRIMARY KEY,
		balance NUMERIC(78,0) NOT NULL DEFAULT 0,
		allowance NUMERIC(78,0) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT loyalty_balance_non_negative CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS loyalty_spenders (
		address TEXT PRIMARY KEY,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS platform_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		id BIGSERIAL PRIMARY KEY,
		kind TEXT NOT NULL,
		from_addr TEXT NOT NULL,
		to_addr TEXT NOT NULL,
		amount NUMERIC(78,0) NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
