package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the cache and history tables. The DDL is shared by
// sqlite and postgres.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTimezoneCacheQuery := `
	CREATE TABLE IF NOT EXISTS timezone_cache (
		cache_key TEXT PRIMARY KEY,
		zone_name TEXT NOT NULL,
		abbreviation TEXT NOT NULL DEFAULT '',
		country_code TEXT NOT NULL DEFAULT '',
		country_name TEXT NOT NULL DEFAULT '',
		gmt_offset INTEGER NOT NULL,
		dst INTEGER NOT NULL DEFAULT 0,
		zone_start BIGINT NOT NULL DEFAULT 0,
		zone_end BIGINT NOT NULL DEFAULT 0,
		expires_at BIGINT NOT NULL
	);
	`

	createCacheIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_timezone_cache_expires_at
	ON timezone_cache(expires_at);
	`

	createLookupsQuery := `
	CREATE TABLE IF NOT EXISTS lookups (
		id TEXT PRIMARY KEY,
		requested_at BIGINT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		resolved_lat DOUBLE PRECISION NOT NULL,
		resolved_lng DOUBLE PRECISION NOT NULL,
		zone_name TEXT NOT NULL,
		cached INTEGER NOT NULL DEFAULT 0
	);
	`

	createLookupsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_lookups_requested_at
	ON lookups(requested_at);
	`

	statements := []string{
		createTimezoneCacheQuery,
		createCacheIndexQuery,
		createLookupsQuery,
		createLookupsIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
