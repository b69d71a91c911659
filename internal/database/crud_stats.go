// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/trackscope/internal/models"
)

// GetStats returns catalog-wide totals for the stats endpoint.
//
// The totals come from COUNT(*) over each table rather than maintained
// counters, trading a little query cost for counts that are always
// consistent with the visible data - an aborted ingestion run can never
// leave the totals out of step with the rows, because its rows were never
// committed.
//
// LastIngestTime and LastRun are taken from the supplemental run log and
// are nil until the first run commits.
func (db *DB) GetStats(ctx context.Context) (*models.Stats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	counts, err := db.GetRecordCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get record counts: %w", err)
	}

	stats := &models.Stats{
		TotalTracks:    int(counts["tracks"]),
		TotalSnapshots: int(counts["track_snapshots"]),
		TotalChanges:   int(counts["popularity_changes"]),
	}

	lastRun, err := db.GetLastIngestionRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}
	if lastRun != nil {
		stats.LastRun = lastRun
		stats.LastIngestTime = &lastRun.StartedAt
	}

	return stats, nil
}
