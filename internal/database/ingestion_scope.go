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

	"github.com/google/uuid"

	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

// ErrScopeClosed is returned when an IngestionScope is used after Close.
var ErrScopeClosed = errors.New("ingestion scope already closed")

// IngestionScope is the unit of work for a single ingestion run.
//
// It owns one transaction spanning the whole run: buffered track upserts and
// snapshot appends are written through the transaction on Flush, and nothing
// becomes visible to readers until Close commits. A run that fails rolls the
// transaction back, leaving the catalog exactly as it was before the run.
//
// Usage contract:
//   - The pipeline buffers writes with UpsertTrack and AppendSnapshot, calls
//     Flush at its batch boundary to bound memory, and finishes with Close.
//   - Close(nil) performs a final Flush and commits; Close(err) rolls back.
//     Close is safe to call more than once - subsequent calls are no-ops -
//     so the pipeline can both defer it and call it explicitly before its
//     post-commit work.
//   - A scope is not safe for concurrent use. Ingestion runs are serialized
//     by the manager, and the pipeline walks the catalog sequentially.
//
// Flush detects popularity transitions while upserting (the previously
// stored value is read inside the transaction before being overwritten).
// Detected changes accumulate on the scope and are exposed through Changes
// for event publication after a successful commit; they are never written
// to the database by the scope itself.
type IngestionScope struct {
	db *DB
	tx *sql.Tx
	//nolint:containedctx // the tx is already bound to this ctx; Close reuses it for the final flush
	ctx       context.Context
	runID     uuid.UUID
	startedAt time.Time

	pendingTracks    []*models.Track
	pendingSnapshots []*models.TrackSnapshot
	changes          []models.PopularityChange

	tracksUpserted   int
	snapshotsCreated int

	done bool
}

// BeginIngestion starts a new ingestion unit of work.
// The returned scope owns a transaction bound to ctx; if ctx is canceled
// the transaction is rolled back by database/sql.
func (db *DB) BeginIngestion(ctx context.Context) (*IngestionScope, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ingestion transaction: %w", err)
	}

	scope := &IngestionScope{
		db:        db,
		tx:        tx,
		ctx:       ctx,
		runID:     uuid.New(),
		startedAt: time.Now().UTC(),
	}

	logging.Debug().
		Str("run_id", scope.runID.String()).
		Msg("Ingestion scope opened")

	return scope, nil
}

// RunID returns the identifier assigned to this run
func (s *IngestionScope) RunID() uuid.UUID {
	return s.runID
}

// StartedAt returns when the scope was opened
func (s *IngestionScope) StartedAt() time.Time {
	return s.startedAt
}

// TracksUpserted returns the number of track rows written so far
func (s *IngestionScope) TracksUpserted() int {
	return s.tracksUpserted
}

// SnapshotsCreated returns the number of snapshot rows written so far
func (s *IngestionScope) SnapshotsCreated() int {
	return s.snapshotsCreated
}

// Buffered returns the number of rows waiting for the next Flush
func (s *IngestionScope) Buffered() int {
	return len(s.pendingTracks) + len(s.pendingSnapshots)
}

// Changes returns the popularity transitions detected by flushes so far.
// Only meaningful after a successful Close(nil); on rollback the detected
// changes never became durable and must be discarded.
func (s *IngestionScope) Changes() []models.PopularityChange {
	return s.changes
}

// UpsertTrack buffers a current-state write for the track.
// The row is not written until the next Flush.
func (s *IngestionScope) UpsertTrack(ctx context.Context, track *models.Track) error {
	if s.done {
		return ErrScopeClosed
	}
	if track == nil {
		return errors.New("nil track")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pendingTracks = append(s.pendingTracks, track)
	return nil
}

// AppendSnapshot buffers a history append for the track.
// The row is not written until the next Flush.
func (s *IngestionScope) AppendSnapshot(ctx context.Context, snapshot *models.TrackSnapshot) error {
	if s.done {
		return ErrScopeClosed
	}
	if snapshot == nil {
		return errors.New("nil snapshot")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pendingSnapshots = append(s.pendingSnapshots, snapshot)
	return nil
}

// Flush writes all buffered rows through the transaction and resets the
// buffers. Flushing bounds the pipeline's memory, not durability: rows
// remain invisible to readers until Close commits.
func (s *IngestionScope) Flush(ctx context.Context) error {
	if s.done {
		return ErrScopeClosed
	}
	if len(s.pendingTracks) == 0 && len(s.pendingSnapshots) == 0 {
		return nil
	}

	start := time.Now()
	batchSize := len(s.pendingTracks)

	for _, track := range s.pendingTracks {
		if err := s.upsertTrackTx(ctx, track); err != nil {
			return fmt.Errorf("failed to upsert track %s: %w", track.ID, err)
		}
		s.tracksUpserted++
	}

	for _, snapshot := range s.pendingSnapshots {
		if err := s.appendSnapshotTx(ctx, snapshot); err != nil {
			return fmt.Errorf("failed to append snapshot for track %s: %w", snapshot.TrackID, err)
		}
		s.snapshotsCreated++
	}

	s.pendingTracks = nil
	s.pendingSnapshots = nil

	metrics.RecordBatchFlush(time.Since(start), batchSize)
	logging.Debug().
		Str("run_id", s.runID.String()).
		Int("batch_size", batchSize).
		Dur("duration", time.Since(start)).
		Msg("Ingestion batch flushed")

	return nil
}

// upsertTrackTx writes one track row, reading the previously stored
// popularity first so transitions can be reported through Changes.
// first_seen is set on insert and preserved on update.
func (s *IngestionScope) upsertTrackTx(ctx context.Context, track *models.Track) error {
	var stored sql.NullInt32
	existed := true
	err := s.tx.QueryRowContext(ctx, `SELECT popularity FROM tracks WHERE id = ?`, track.ID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		existed = false
	} else if err != nil {
		return fmt.Errorf("failed to read stored popularity: %w", err)
	}

	_, err = s.tx.ExecContext(ctx, `
		INSERT INTO tracks (id, name, artist, album, popularity, first_seen, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			artist = EXCLUDED.artist,
			album = EXCLUDED.album,
			popularity = EXCLUDED.popularity,
			updated_at = EXCLUDED.updated_at
	`, track.ID, track.Name, track.Artist, track.Album, track.Popularity, track.FirstSeen, track.UpdatedAt)
	if err != nil {
		return err
	}

	previous := nullableInt(stored)
	if transitioned(existed, previous, track.Popularity) {
		s.changes = append(s.changes, models.PopularityChange{
			TrackID:   track.ID,
			TrackName: track.Name,
			Previous:  previous,
			Current:   track.Popularity,
			Delta:     intOrZero(track.Popularity) - intOrZero(previous),
			RunID:     s.runID.String(),
			ChangedAt: track.UpdatedAt,
		})
	}

	return nil
}

// appendSnapshotTx writes one snapshot row; ids come from the sequence
func (s *IngestionScope) appendSnapshotTx(ctx context.Context, snapshot *models.TrackSnapshot) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO track_snapshots (track_id, popularity, observed_at)
		VALUES (?, ?, ?)
	`, snapshot.TrackID, snapshot.Popularity, snapshot.ObservedAt)
	return err
}

// transitioned reports whether an upsert represents a popularity change
// worth surfacing: a first observation with a known popularity, or a
// stored value differing from the fetched one.
func transitioned(existed bool, previous, current *int) bool {
	if !existed {
		return current != nil
	}
	if previous == nil || current == nil {
		return previous != current
	}
	return *previous != *current
}

// intOrZero treats a missing popularity as zero for delta arithmetic
func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Close finalizes the scope. Exactly one of commit or rollback happens:
//
//   - runErr == nil: remaining buffered rows are flushed and the
//     transaction committed. A flush or commit failure rolls back and is
//     returned to the caller.
//   - runErr != nil: the transaction is rolled back and Close returns nil,
//     so the caller's original error is preserved. Rollback failures are
//     logged, never returned.
//
// Calling Close on an already-closed scope is a no-op returning nil, which
// lets callers both defer Close for crash safety and call it explicitly
// before post-commit work.
func (s *IngestionScope) Close(runErr error) error {
	if s.done {
		return nil
	}

	if runErr != nil {
		s.done = true
		s.rollback()
		logging.Debug().
			Str("run_id", s.runID.String()).
			Err(runErr).
			Msg("Ingestion scope rolled back")
		return nil
	}

	if err := s.Flush(s.ctx); err != nil {
		s.done = true
		s.rollback()
		return fmt.Errorf("final flush failed: %w", err)
	}

	s.done = true
	if err := s.tx.Commit(); err != nil {
		s.rollback()
		return fmt.Errorf("failed to commit ingestion run: %w", err)
	}

	logging.Debug().
		Str("run_id", s.runID.String()).
		Int("tracks_upserted", s.tracksUpserted).
		Int("snapshots_created", s.snapshotsCreated).
		Msg("Ingestion scope committed")

	// Flush the WAL so a crash after the run loses nothing
	if err := s.db.Checkpoint(s.ctx); err != nil {
		logging.Warn().Err(err).Msg("Post-ingestion checkpoint failed")
	}

	return nil
}

// rollback discards the transaction, tolerating the already-finished case
func (s *IngestionScope) rollback() {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn().
			Str("run_id", s.runID.String()).
			Err(err).
			Msg("Failed to roll back ingestion transaction")
	}
}
