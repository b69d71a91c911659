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

// GetTrackSnapshots returns the popularity history for one track, most
// recent observation first.
//
// The history is append-only: each ingestion run that successfully fetched
// the track contributes exactly one row, so the number of snapshots equals
// the number of runs that observed it.
func (db *DB) GetTrackSnapshots(ctx context.Context, trackID string, limit int) ([]models.TrackSnapshot, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	stmt, err := db.getOrPrepare(ctx, `
		SELECT id, track_id, popularity, observed_at
		FROM track_snapshots
		WHERE track_id = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, trackID, limit)
	metrics.RecordDBQuery("select", "track_snapshots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for track %s: %w", trackID, err)
	}
	defer closeWithLog(rows, "snapshot rows")

	var snapshots []models.TrackSnapshot
	for rows.Next() {
		var snap models.TrackSnapshot
		var popularity sql.NullInt32
		if err := rows.Scan(&snap.ID, &snap.TrackID, &popularity, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.Popularity = nullableInt(popularity)
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot row iteration failed: %w", err)
	}

	return snapshots, nil
}

// GetRecentSnapshots returns the latest observations across all tracks,
// joined with track names so clients need no second lookup.
func (db *DB) GetRecentSnapshots(ctx context.Context, limit int) ([]models.SnapshotWithTrack, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.track_id, t.name, t.artist, s.popularity, s.observed_at
		FROM track_snapshots s
		JOIN tracks t ON t.id = s.track_id
		ORDER BY s.observed_at DESC, s.id DESC
		LIMIT ?
	`, limit)
	metrics.RecordDBQuery("select", "track_snapshots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent snapshots: %w", err)
	}
	defer closeWithLog(rows, "recent snapshot rows")

	var snapshots []models.SnapshotWithTrack
	for rows.Next() {
		var snap models.SnapshotWithTrack
		var popularity sql.NullInt32
		if err := rows.Scan(&snap.ID, &snap.TrackID, &snap.TrackName, &snap.Artist, &popularity, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent snapshot row: %w", err)
		}
		snap.Popularity = nullableInt(popularity)
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent snapshot row iteration failed: %w", err)
	}

	return snapshots, nil
}

// CountSnapshots returns the total number of history rows
func (db *DB) CountSnapshots(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}
