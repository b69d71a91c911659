// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package models defines data structures used throughout the Trackscope application.
// These models represent catalog tracks, popularity history, ingestion run summaries,
// and API responses.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Track represents the current state of a single catalog track.
//
// This is the mutable half of the data model: every ingestion run that observes
// a track overwrites its attributes in place, keyed by the stable external
// catalog identifier. Tracks are never deleted by the ingestion pipeline.
//
// Key Fields:
//   - ID: External catalog identifier (stable, primary key)
//   - Name: Track title as reported by the catalog
//   - Artist: Primary artist attribution (first listed artist)
//   - Album: Name of the release the track belongs to
//   - Popularity: Catalog popularity score 0-100; nil when the catalog did not
//     report one
//
// FirstSeen is set on the run that first observes the track and preserved by
// subsequent upserts; UpdatedAt reflects the most recent observing run.
type Track struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	Popularity *int      `json:"popularity"`
	FirstSeen  time.Time `json:"first_seen"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TrackSnapshot represents one timestamped popularity observation for a track.
//
// This is the immutable half of the data model: snapshots are append-only,
// never updated or deleted, and many snapshots may reference the same track.
// Recency queries order by ObservedAt descending.
//
// Fields:
//   - ID: Surrogate identifier assigned by the store
//   - TrackID: Foreign key to Track.ID
//   - Popularity: Observed popularity 0-100; nil when unknown at observation time
//   - ObservedAt: When the observation was taken (ingestion time)
type TrackSnapshot struct {
	ID         int64     `json:"id"`
	TrackID    string    `json:"track_id"`
	Popularity *int      `json:"popularity"`
	ObservedAt time.Time `json:"observed_at"`
}

// SnapshotWithTrack is a TrackSnapshot joined with its track's display name.
// Used by the recent-snapshots endpoint so clients need no second lookup.
type SnapshotWithTrack struct {
	ID         int64     `json:"id"`
	TrackID    string    `json:"track_id"`
	TrackName  string    `json:"track_name"`
	Artist     string    `json:"artist"`
	Popularity *int      `json:"popularity"`
	ObservedAt time.Time `json:"observed_at"`
}

// IngestionResult is the run summary returned by a completed ingestion run.
//
// The three counters carry the contract the rest of the system relies on:
//   - TracksProcessed: number of successful track upserts
//   - SnapshotsCreated: number of successful history appends; always equal to
//     TracksProcessed for a completed run (each successful track yields exactly
//     one paired upsert+snapshot)
//   - Errors: number of per-track and per-album fetch failures; independent of
//     the other two counters
//
// A run that aborts on a persistence failure produces no IngestionResult at
// all - callers see the error instead of a partial summary.
type IngestionResult struct {
	RunID            uuid.UUID     `json:"run_id"`
	TracksProcessed  int           `json:"tracks_processed"`
	SnapshotsCreated int           `json:"snapshots_created"`
	Errors           int           `json:"errors"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration_ns"`
}

// IngestionRun is the persisted record of a completed run, written to the
// ingestion_runs table after commit. Unlike IngestionResult it survives
// restarts and backs the /api/v1/runs endpoint.
type IngestionRun struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	DurationMS       int64     `json:"duration_ms"`
	TracksProcessed  int       `json:"tracks_processed"`
	SnapshotsCreated int       `json:"snapshots_created"`
	Errors           int       `json:"errors"`
}

// PopularityChange records one observed popularity transition for a track.
//
// Changes are derived from ingestion runs by the event-feed consumer: when a
// run observes a popularity different from the stored value, a change row is
// produced. The feed is supplemental - the ingestion pipeline's correctness
// never depends on it.
//
// Previous is nil for a track's first observation; Current is nil when the
// catalog stopped reporting a popularity. Delta is Current-Previous treating
// nil as zero.
type PopularityChange struct {
	ID        int64     `json:"id"`
	TrackID   string    `json:"track_id"`
	TrackName string    `json:"track_name"`
	Previous  *int      `json:"previous"`
	Current   *int      `json:"current"`
	Delta     int       `json:"delta"`
	RunID     string    `json:"run_id"`
	ChangedAt time.Time `json:"changed_at"`
}
