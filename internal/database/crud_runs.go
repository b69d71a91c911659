// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

// RecordIngestionRun persists the summary of a committed run.
//
// This is written after the run's own transaction has committed: the run
// log is supplemental, and losing a row (crash between commit and this
// insert) costs only a line in the /runs listing, never catalog data.
func (db *DB) RecordIngestionRun(ctx context.Context, result *models.IngestionResult) error {
	if result == nil {
		return errors.New("nil ingestion result")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ingestion_runs
			(run_id, started_at, duration_ms, tracks_processed, snapshots_created, errors)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.RunID.String(), result.StartedAt, result.Duration.Milliseconds(),
		result.TracksProcessed, result.SnapshotsCreated, result.Errors)
	metrics.RecordDBQuery("insert", "ingestion_runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record ingestion run %s: %w", result.RunID, err)
	}

	return nil
}

// GetIngestionRuns returns the most recent run summaries, newest first
func (db *DB) GetIngestionRuns(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, started_at, duration_ms, tracks_processed, snapshots_created, errors
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	metrics.RecordDBQuery("select", "ingestion_runs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingestion runs: %w", err)
	}
	defer closeWithLog(rows, "run rows")

	var runs []models.IngestionRun
	for rows.Next() {
		var run models.IngestionRun
		if err := rows.Scan(
			&run.RunID,
			&run.StartedAt,
			&run.DurationMS,
			&run.TracksProcessed,
			&run.SnapshotsCreated,
			&run.Errors,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run row iteration failed: %w", err)
	}

	return runs, nil
}

// GetLastIngestionRun returns the most recent run summary, or (nil, nil)
// when no run has completed yet.
func (db *DB) GetLastIngestionRun(ctx context.Context) (*models.IngestionRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var run models.IngestionRun
	err := db.conn.QueryRowContext(ctx, `
		SELECT run_id, started_at, duration_ms, tracks_processed, snapshots_created, errors
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&run.RunID,
		&run.StartedAt,
		&run.DurationMS,
		&run.TracksProcessed,
		&run.SnapshotsCreated,
		&run.Errors,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last ingestion run: %w", err)
	}

	return &run, nil
}
