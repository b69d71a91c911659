// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/trackscope/internal/logging"
)

// schemaTimeout bounds DDL statements during startup.
const schemaTimeout = 60 * time.Second

// schemaContext returns a context with the schema creation timeout
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), schemaTimeout)
}

// getTableCreationQueries returns the DDL statements for the catalog schema,
// in dependency order. All statements are idempotent.
//
// Schema notes:
//   - tracks is the mutable current-state table, keyed by the external
//     catalog identifier. popularity is nullable: the catalog may omit it.
//   - track_snapshots is append-only history; rows are never updated or
//     deleted. Surrogate ids come from a sequence.
//   - popularity_changes is the derived change feed written by the events
//     consumer; the ingestion pipeline never depends on it.
//   - ingestion_runs is the supplemental run log written after each commit.
func getTableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS track_snapshots_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS popularity_changes_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS tracks (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			artist VARCHAR NOT NULL,
			album VARCHAR NOT NULL,
			popularity INTEGER,
			first_seen TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS track_snapshots (
			id BIGINT PRIMARY KEY DEFAULT nextval('track_snapshots_id_seq'),
			track_id VARCHAR NOT NULL,
			popularity INTEGER,
			observed_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS popularity_changes (
			id BIGINT PRIMARY KEY DEFAULT nextval('popularity_changes_id_seq'),
			track_id VARCHAR NOT NULL,
			track_name VARCHAR NOT NULL,
			previous_popularity INTEGER,
			current_popularity INTEGER,
			delta INTEGER NOT NULL,
			run_id VARCHAR NOT NULL,
			changed_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingestion_runs (
			run_id VARCHAR PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			duration_ms BIGINT NOT NULL,
			tracks_processed INTEGER NOT NULL,
			snapshots_created INTEGER NOT NULL,
			errors INTEGER NOT NULL
		)`,
	}
}

// createTables executes the schema DDL statements in order
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement %q: %w", truncateQuery(query), err)
		}
	}

	logging.Debug().Msg("Database tables created")
	return nil
}

// createIndexes creates secondary indexes for the API read paths.
// Index creation failures are logged but not fatal: the schema remains
// correct without them, only slower.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_snapshots_track_observed ON track_snapshots (track_id, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_observed_at ON track_snapshots (observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_changed_at ON popularity_changes (changed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_changes_track_id ON popularity_changes (track_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_popularity ON tracks (popularity)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks (artist)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON ingestion_runs (started_at)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			logging.Warn().Err(err).Str("query", truncateQuery(query)).Msg("Failed to create index")
		}
	}

	return nil
}

// truncateQuery shortens a DDL statement for log and error messages
func truncateQuery(query string) string {
	const maxLen = 60
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
