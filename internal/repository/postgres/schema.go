package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		external_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		external_id TEXT UNIQUE NOT NULL,
		customer_id UUID NOT NULL REFERENCES customers(id),
		service_name TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id),
		trigger_type TEXT NOT NULL,
		recipient TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		attempt_count INT NOT NULL DEFAULT 0,
		last_attempt_at TIMESTAMPTZ,
		last_error TEXT,
		feedback_token UUID UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (event_id, trigger_type)
	)`,
	`CREATE TABLE IF NOT EXISTS run_logs (
		id UUID PRIMARY KEY,
		trigger_type TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		attempted INT NOT NULL DEFAULT 0,
		sent INT NOT NULL DEFAULT 0,
		skipped INT NOT NULL DEFAULT 0,
		failed INT NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error_text TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS attempt_logs (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL,
		trigger_type TEXT NOT NULL,
		recipient TEXT NOT NULL,
		status TEXT NOT NULL,
		error_text TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_start_time ON events(start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_dispatch ON notifications(trigger_type, status)`,
	`CREATE INDEX IF NOT EXISTS idx_run_logs_trigger ON run_logs(trigger_type, started_at)`,
}

// InitSchema creates all tables and indexes if they do not exist. The
// unique index on notifications(event_id, trigger_type) is the
// deduplication guarantee; everything else is performance.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
