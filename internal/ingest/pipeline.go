// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
pipeline.go - Core Ingestion Run

This file implements one ingestion run end to end: fetch a page of new
releases, walk albums and tracks strictly sequentially, map each track
detail into the paired persistence shapes, buffer writes in a
transactional scope, flush at the batch threshold, and commit on scope
close.

Error Handling Contract:
  - Catalog fetch failures (album listing, track detail) are counted,
    logged with the failing id, and never abort the run.
  - Persistence failures (upsert, snapshot, flush, commit) abort the run:
    the scope rolls back and the caller receives no result.
  - Supplemental work (archival, event publishing, run recording) happens
    after commit and can only log - it never changes the run outcome.
*/

//nolint:staticcheck // File documentation, not package doc
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/trackscope/internal/archive"
	"github.com/tomtom215/trackscope/internal/catalog"
	"github.com/tomtom215/trackscope/internal/database"
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

// Default run bounds, used when a caller passes a non-positive value.
const (
	DefaultReleaseLimit   = 20
	DefaultBatchFlushSize = 50
)

// Store is the persistence gateway the pipeline writes through.
// Implemented by database.DB.
type Store interface {
	BeginIngestion(ctx context.Context) (*database.IngestionScope, error)
	RecordIngestionRun(ctx context.Context, result *models.IngestionResult) error
	CountTracks(ctx context.Context) (int64, error)
}

// Pipeline executes ingestion runs against the catalog client and the
// persistence gateway. The zero value is not usable; construct with
// NewPipeline. A single Pipeline is safe for use by the Manager, which
// serializes runs; the optional publisher and archiver may be attached
// at any time.
type Pipeline struct {
	client catalog.Client
	store  Store

	mu            sync.RWMutex
	publisher     EventPublisher
	archiver      archive.Store
	archivePrefix string

	publishWg sync.WaitGroup
	archiveWg sync.WaitGroup
}

// NewPipeline creates a pipeline over the given catalog client and store.
func NewPipeline(client catalog.Client, store Store) *Pipeline {
	return &Pipeline{
		client: client,
		store:  store,
	}
}

// SetArchiver attaches the optional archival sink. Each run's raw
// new-releases page is uploaded under prefix; upload failures never
// affect run outcomes.
func (p *Pipeline) SetArchiver(sink archive.Store, prefix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.archiver = sink
	p.archivePrefix = prefix
}

// archiveDocument is the per-run payload written to the archive sink.
type archiveDocument struct {
	RunID     string          `json:"run_id"`
	FetchedAt time.Time       `json:"fetched_at"`
	Albums    []catalog.Album `json:"albums"`
}

// IngestNewReleases executes one ingestion run.
//
// releaseLimit bounds how many albums the single new-releases request
// returns; batchFlushSize is the number of processed tracks buffered
// before an intermediate flush - a memory knob with no effect on the
// committed outcome. Non-positive values fall back to the defaults.
//
// On success the returned result carries the run counters; on any
// persistence failure the scope rolls back and the error is returned
// with no result. Fetch failures are absorbed into result.Errors.
func (p *Pipeline) IngestNewReleases(ctx context.Context, releaseLimit, batchFlushSize int) (result *models.IngestionResult, err error) {
	if releaseLimit <= 0 {
		releaseLimit = DefaultReleaseLimit
	}
	if batchFlushSize <= 0 {
		batchFlushSize = DefaultBatchFlushSize
	}

	scope, err := p.store.BeginIngestion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ingestion scope: %w", err)
	}
	runID := scope.RunID()
	start := scope.StartedAt()

	tracksProcessed := 0
	snapshotsCreated := 0
	errorCount := 0

	// Registered first so it runs last, after the scope defer below has
	// settled err: records the run whether it completed or aborted.
	defer func() {
		metrics.RecordIngestRun(time.Since(start), tracksProcessed, snapshotsCreated, errorCount, err)
	}()

	// Guaranteed scope exit on every path. Close is idempotent, so after
	// the explicit commit below this is a no-op; on an error return it
	// rolls the whole run back.
	defer func() {
		if cerr := scope.Close(err); cerr != nil && err == nil {
			result = nil
			err = cerr
		}
	}()

	logging.Info().
		Str("run_id", runID.String()).
		Int("release_limit", releaseLimit).
		Int("batch_size", batchFlushSize).
		Msg("Starting ingestion run")

	albums, err := p.client.NewReleases(ctx, releaseLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new releases: %w", err)
	}

	p.archiveRun(ctx, runID.String(), start, albums)

	pending := 0
	for i := range albums {
		album := &albums[i]

		if cerr := ctx.Err(); cerr != nil {
			err = fmt.Errorf("ingestion canceled: %w", cerr)
			return nil, err
		}

		refs, ferr := p.client.AlbumTracks(ctx, album.ID)
		if ferr != nil {
			// One error per failing album; none of its tracks are touched.
			errorCount++
			logging.Error().Err(ferr).Str("album_id", album.ID).Msg("Error processing album")
			continue
		}

		for j := range refs {
			ref := &refs[j]

			if cerr := ctx.Err(); cerr != nil {
				err = fmt.Errorf("ingestion canceled: %w", cerr)
				return nil, err
			}

			detail, ferr := p.client.Track(ctx, ref.ID)
			if ferr != nil {
				errorCount++
				logging.Error().Err(ferr).Str("track_id", ref.ID).Msg("Error processing track")
				continue
			}

			track, snapshot := mapTrack(detail, album.Name, time.Now().UTC())

			if err = scope.UpsertTrack(ctx, track); err != nil {
				return nil, fmt.Errorf("failed to upsert track %s: %w", track.ID, err)
			}
			tracksProcessed++

			if err = scope.AppendSnapshot(ctx, snapshot); err != nil {
				return nil, fmt.Errorf("failed to append snapshot for track %s: %w", track.ID, err)
			}
			snapshotsCreated++

			pending++
			if pending >= batchFlushSize {
				if err = scope.Flush(ctx); err != nil {
					return nil, fmt.Errorf("failed to flush batch: %w", err)
				}
				pending = 0
				logging.Debug().Int("processed", tracksProcessed).Msg("Flushed batch")
			}
		}
	}

	// Commit. Flushes the remainder below the threshold; the deferred
	// Close becomes a no-op afterwards.
	if err = scope.Close(nil); err != nil {
		return nil, err
	}

	result = &models.IngestionResult{
		RunID:            runID,
		TracksProcessed:  tracksProcessed,
		SnapshotsCreated: snapshotsCreated,
		Errors:           errorCount,
		StartedAt:        start,
		Duration:         time.Since(start),
	}

	// Post-commit, supplemental: the committed rows are durable
	// regardless of what happens below.
	if rerr := p.store.RecordIngestionRun(ctx, result); rerr != nil {
		logging.Warn().Err(rerr).Str("run_id", runID.String()).Msg("Failed to record ingestion run")
	}
	p.publishChanges(ctx, scope.Changes())

	logging.Info().
		Str("run_id", runID.String()).
		Int("tracks", result.TracksProcessed).
		Int("snapshots", result.SnapshotsCreated).
		Int("errors", result.Errors).
		Dur("duration", result.Duration).
		Msg("Ingestion complete")

	return result, nil
}

// mapTrack converts one track detail into the paired persistence shapes.
// observedAt is assigned here, at mapping time, so a snapshot records
// when the observation was taken rather than when it was flushed. The
// album name comes from the release being walked, matching how the track
// was discovered.
func mapTrack(detail *catalog.TrackDetail, albumName string, observedAt time.Time) (*models.Track, *models.TrackSnapshot) {
	track := &models.Track{
		ID:         detail.ID,
		Name:       detail.Name,
		Artist:     detail.PrimaryArtist(),
		Album:      albumName,
		Popularity: detail.Popularity,
		FirstSeen:  observedAt,
		UpdatedAt:  observedAt,
	}
	snapshot := &models.TrackSnapshot{
		TrackID:    detail.ID,
		Popularity: detail.Popularity,
		ObservedAt: observedAt,
	}
	return track, snapshot
}

// archiveRun uploads the fetched page in the background. Failures are
// logged here and metered by the sink; they never affect the run.
func (p *Pipeline) archiveRun(ctx context.Context, runID string, startedAt time.Time, albums []catalog.Album) {
	p.mu.RLock()
	sink := p.archiver
	prefix := p.archivePrefix
	p.mu.RUnlock()

	if sink == nil {
		return
	}

	doc := &archiveDocument{
		RunID:     runID,
		FetchedAt: time.Now().UTC(),
		Albums:    albums,
	}
	key := archive.RunKey(prefix, startedAt, runID)

	p.archiveWg.Add(1)
	go func() {
		defer p.archiveWg.Done()
		if err := sink.Put(ctx, key, doc); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Failed to archive new-releases payload")
		}
	}()
}

// Drain blocks until background work from completed runs (event
// publishes, archive uploads) has finished or ctx ends. Called on
// shutdown so uploads are not torn mid-flight.
func (p *Pipeline) Drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		p.publishWg.Wait()
		p.archiveWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn().Msg("Timed out draining background ingest work")
	}
}
