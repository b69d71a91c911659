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

// nullableInt converts a scanned nullable column to the model representation
func nullableInt(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

// GetTrack retrieves the current state of a single track by its catalog
// identifier.
//
// Returns (nil, nil) when no track with the given id exists, so callers can
// distinguish "not found" from a query failure without inspecting sentinel
// errors.
func (db *DB) GetTrack(ctx context.Context, id string) (*models.Track, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	stmt, err := db.getOrPrepare(ctx, `
		SELECT id, name, artist, album, popularity, first_seen, updated_at
		FROM tracks
		WHERE id = ?
	`)
	if err != nil {
		return nil, err
	}

	var track models.Track
	var popularity sql.NullInt32
	err = stmt.QueryRowContext(ctx, id).Scan(
		&track.ID,
		&track.Name,
		&track.Artist,
		&track.Album,
		&popularity,
		&track.FirstSeen,
		&track.UpdatedAt,
	)
	metrics.RecordDBQuery("select", "tracks", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}

	track.Popularity = nullableInt(popularity)
	return &track, nil
}

// GetTracks returns a page of tracks ordered by most recently updated.
//
// Parameters:
//   - limit: maximum number of rows to return
//   - offset: number of rows to skip, for pagination
func (db *DB) GetTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, artist, album, popularity, first_seen, updated_at
		FROM tracks
		ORDER BY updated_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	metrics.RecordDBQuery("select", "tracks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer closeWithLog(rows, "tracks rows")

	return scanTracks(rows)
}

// GetTopTracks returns the highest-popularity tracks, ties broken by name.
// Tracks whose popularity the catalog never reported are excluded.
func (db *DB) GetTopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, artist, album, popularity, first_seen, updated_at
		FROM tracks
		WHERE popularity IS NOT NULL
		ORDER BY popularity DESC, name
		LIMIT ?
	`, limit)
	metrics.RecordDBQuery("select", "tracks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tracks: %w", err)
	}
	defer closeWithLog(rows, "top tracks rows")

	return scanTracks(rows)
}

// CountTracks returns the total number of tracked catalog items
func (db *DB) CountTracks(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// scanTracks drains a track result set
func scanTracks(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		var popularity sql.NullInt32
		if err := rows.Scan(
			&track.ID,
			&track.Name,
			&track.Artist,
			&track.Album,
			&popularity,
			&track.FirstSeen,
			&track.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		track.Popularity = nullableInt(popularity)
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("track row iteration failed: %w", err)
	}
	return tracks, nil
}
