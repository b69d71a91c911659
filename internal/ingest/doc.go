// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
Package ingest orchestrates catalog ingestion from Spotify into the database.

This package implements the core business logic for discovering new releases,
fetching per-track detail, and persisting both current state (tracks) and
append-only history (track_snapshots) inside a single transactional scope. It
provides automatic periodic ingestion, manual triggers, and post-commit fanout
of popularity-change events.

Key Components:

  - Pipeline: One ingestion run - fetch, map, batch, flush, commit
  - Manager: Periodic scheduling, single-flight run serialization, lifecycle
  - EventPublisher: Optional post-commit publication of popularity changes
  - Archiver: Optional raw-payload archival per run (off the hot path)

Run Anatomy:

One run walks a single page of new releases strictly sequentially:

 1. Begin a transactional ingestion scope (one tx per run).
 2. Fetch up to releaseLimit albums (one request, no pagination).
 3. For each album, list its tracks; a failing album costs one error and the
    walk continues with the next album.
 4. For each track, fetch full detail; a failing track costs one error and
    the walk continues with the next track. A successful detail yields a
    paired upsert + snapshot, buffered in the scope.
 5. Buffered writes flush every batchFlushSize tracks; the final commit on
    scope close flushes the remainder.

Failure Isolation:

Catalog fetch failures never abort a run - they are counted and logged.
Persistence failures always abort: the scope rolls back and the caller
receives the error instead of a result. A completed run therefore reports
tracks_processed == snapshots_created, with errors counted independently.

Usage Example:

	import (
	    "context"

	    "github.com/tomtom215/trackscope/internal/catalog"
	    "github.com/tomtom215/trackscope/internal/ingest"
	)

	client := catalog.NewSpotifyClient(&cfg.Spotify)
	pipeline := ingest.NewPipeline(client, db)
	manager := ingest.NewManager(pipeline, db, cfg, wsHub)

	manager.SetOnIngestCompleted(func(result *models.IngestionResult) {
	    log.Printf("Ingested %d tracks (%d errors)", result.TracksProcessed, result.Errors)
	})

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
	    log.Fatal(err)
	}

	// Manual trigger (HTTP POST /api/v1/ingest maps 202/409 onto this).
	if err := manager.TriggerIngest(); err != nil {
	    log.Printf("Trigger rejected: %v", err)
	}

Concurrency:

Runs are strictly single-threaded internally - no parallelism across albums
or tracks. Whole runs are serialized by the manager's ingest mutex; a trigger
that arrives while a run is in flight is rejected with ErrIngestInProgress
rather than queued.
*/
package ingest
