package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema for the broadcast catalog and its append-only metric/change
// tables. Snapshot and change rows are never updated after insert; the
// catalog row is the only mutable state. Statements are idempotent so the
// schema can be applied on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS broadcasts (
		id                   BIGSERIAL PRIMARY KEY,
		video_id             TEXT NOT NULL UNIQUE,
		title                TEXT,
		description          TEXT,
		thumbnail_url        TEXT,
		channel_id           TEXT,
		channel_title        TEXT,
		is_live              BOOLEAN NOT NULL DEFAULT FALSE,
		scheduled_start_time TIMESTAMPTZ,
		actual_start_time    TIMESTAMPTZ,
		actual_end_time      TIMESTAMPTZ,
		current_viewers      BIGINT,
		peak_viewers         BIGINT,
		like_count           BIGINT,
		last_fetched_at      TIMESTAMPTZ,
		deleted_at           TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// Serves the due-selection query: live broadcasts jump the re-poll
	// interval check.
	`CREATE INDEX IF NOT EXISTS idx_broadcasts_live
		ON broadcasts (is_live) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_broadcasts_last_fetched
		ON broadcasts (last_fetched_at) WHERE deleted_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS broadcast_metrics (
		id           BIGSERIAL PRIMARY KEY,
		broadcast_id BIGINT NOT NULL REFERENCES broadcasts(id),
		viewers      BIGINT,
		likes        BIGINT,
		views        BIGINT,
		recorded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_broadcast_metrics_range
		ON broadcast_metrics (broadcast_id, recorded_at)`,

	`CREATE TABLE IF NOT EXISTS broadcast_changes (
		id           BIGSERIAL PRIMARY KEY,
		broadcast_id BIGINT NOT NULL REFERENCES broadcasts(id),
		change_type  TEXT NOT NULL,
		old_value    TEXT,
		new_value    TEXT,
		detected_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		alert_sent   BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_broadcast_changes_range
		ON broadcast_changes (broadcast_id, detected_at)`,
	`CREATE INDEX IF NOT EXISTS idx_broadcast_changes_unsent
		ON broadcast_changes (alert_sent) WHERE alert_sent = FALSE`,
}

// ApplySchema creates the catalog, metrics, and changes tables if they do
// not exist yet.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
