package database

import (
	"context"
	"fmt"
)

// schema is applied idempotently by Migrate
var schema = []string{
	`CREATE TABLE IF NOT EXISTS load_points (
		id          TEXT PRIMARY KEY,
		parent_id   TEXT NOT NULL DEFAULT '',
		start_day   SMALLINT NOT NULL DEFAULT 0,
		hourly_kw   DOUBLE PRECISION[] NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS synthesis_runs (
		id              UUID PRIMARY KEY,
		load_point_id   TEXT NOT NULL,
		config_hash     TEXT NOT NULL,
		config_yaml     TEXT NOT NULL DEFAULT '',
		curve_variant   TEXT NOT NULL,
		deviation_mode  TEXT NOT NULL,
		seed            BIGINT,
		metric          DOUBLE PRECISION NOT NULL,
		synthetic_peak  DOUBLE PRECISION NOT NULL,
		synthetic       DOUBLE PRECISION[] NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_synthesis_runs_load_point
		ON synthesis_runs (load_point_id, created_at DESC)`,
}

// Migrate creates the tables used by the load point and run repositories
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
