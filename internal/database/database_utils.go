// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"fmt"
	"time"
)

// defaultQueryTimeout bounds queries whose callers did not set a deadline.
const defaultQueryTimeout = 30 * time.Second

// ensureContext adds a default timeout to the context if none is set.
// Returns the (possibly wrapped) context and a cancel func the caller
// must defer.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// Checkpoint forces DuckDB to flush the write-ahead log into the database
// file. Called after schema creation, after committed ingestion runs, and
// on shutdown so an unclean exit loses at most the WAL tail.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// GetDatabasePath returns the configured database file path
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// GetRecordCounts returns row counts per table, used by the stats endpoint
// and shutdown logging.
func (db *DB) GetRecordCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	counts := make(map[string]int64)
	tables := []string{"tracks", "track_snapshots", "popularity_changes", "ingestion_runs"}

	for _, table := range tables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table) //nolint:gosec // table names from fixed list
		if err := db.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}

	return counts, nil
}
