// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

// InsertPopularityChanges writes a batch of change-feed rows in a single
// transaction.
//
// The change feed is derived data written by the events consumer, never by
// the ingestion pipeline, so a failure here cannot affect ingestion
// correctness. Callers are expected to retry the whole batch; the rows
// carry sequence-assigned ids, so a retried batch produces duplicate feed
// entries rather than conflicts, which the consumer's dedup layer prevents.
func (db *DB) InsertPopularityChanges(ctx context.Context, changes []models.PopularityChange) error {
	if len(changes) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin change batch transaction: %w", err)
	}

	for _, change := range changes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO popularity_changes
				(track_id, track_name, previous_popularity, current_popularity, delta, run_id, changed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, change.TrackID, change.TrackName, change.Previous, change.Current, change.Delta, change.RunID, change.ChangedAt)
		if err != nil {
			rollbackQuietly(tx)
			metrics.RecordDBQuery("insert", "popularity_changes", time.Since(start), err)
			return fmt.Errorf("failed to insert change for track %s: %w", change.TrackID, err)
		}
	}

	err = tx.Commit()
	metrics.RecordDBQuery("insert", "popularity_changes", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to commit change batch: %w", err)
	}

	return nil
}

// GetPopularityChanges returns a page of the change feed, newest first
func (db *DB) GetPopularityChanges(ctx context.Context, limit, offset int) ([]models.PopularityChange, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, track_id, track_name, previous_popularity, current_popularity, delta, run_id, changed_at
		FROM popularity_changes
		ORDER BY changed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	metrics.RecordDBQuery("select", "popularity_changes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query popularity changes: %w", err)
	}
	defer closeWithLog(rows, "change rows")

	var changes []models.PopularityChange
	for rows.Next() {
		var change models.PopularityChange
		var previous, current sql.NullInt32
		if err := rows.Scan(
			&change.ID,
			&change.TrackID,
			&change.TrackName,
			&previous,
			&current,
			&change.Delta,
			&change.RunID,
			&change.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		change.Previous = nullableInt(previous)
		change.Current = nullableInt(current)
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("change row iteration failed: %w", err)
	}

	return changes, nil
}

// CountPopularityChanges returns the total number of change-feed rows
func (db *DB) CountPopularityChanges(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM popularity_changes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count popularity changes: %w", err)
	}
	return count, nil
}

// rollbackQuietly discards a transaction on an error path where the
// original error is already being returned
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
