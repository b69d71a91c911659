// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/trackscope/internal/models"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to ChangeEvent.
const SchemaVersion = 1

// Subject layout. Every event publishes under the popularity prefix with
// its direction as the final token, so consumers can subscribe to the
// whole feed (TopicWildcard) or a single direction ("popularity.down").
const (
	// TopicPrefix is the common prefix of all change subjects.
	TopicPrefix = "popularity."
	// TopicWildcard matches every change subject. Used by the consumer
	// subscription and the stream definition.
	TopicWildcard = "popularity.>"
)

// Direction constants for NATS subjects.
const (
	// DirectionUp indicates the popularity score rose.
	DirectionUp = "up"
	// DirectionDown indicates the popularity score fell.
	DirectionDown = "down"
	// DirectionNew indicates the track was observed for the first time.
	DirectionNew = "new"
	// DirectionRemoved indicates the catalog stopped reporting a score.
	DirectionRemoved = "removed"
)

// ChangeEvent is the wire form of one committed popularity change. It
// carries the change row plus an envelope: a unique event ID (doubles as
// the Nats-Msg-Id for broker-side dedup), the emission time, and a schema
// version for forward compatibility.
//
// Previous and Current deliberately lack omitempty: null is a value here,
// marking a track entering (Previous null) or leaving (Current null) the
// scored catalog.
type ChangeEvent struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	TrackID   string    `json:"track_id"`
	TrackName string    `json:"track_name,omitempty"`
	Previous  *int      `json:"previous"`
	Current   *int      `json:"current"`
	Delta     int       `json:"delta"`
	RunID     string    `json:"run_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewChangeEvent wraps a committed change in a fresh envelope.
func NewChangeEvent(change *models.PopularityChange) *ChangeEvent {
	return &ChangeEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		EmittedAt:     time.Now().UTC(),
		TrackID:       change.TrackID,
		TrackName:     change.TrackName,
		Previous:      change.Previous,
		Current:       change.Current,
		Delta:         change.Delta,
		RunID:         change.RunID,
		ChangedAt:     change.ChangedAt,
	}
}

// GetSchemaVersion returns the schema version, defaulting to 1 for
// events emitted before the field existed.
func (e *ChangeEvent) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// EnsureSchemaVersion sets the schema version if not already set.
func (e *ChangeEvent) EnsureSchemaVersion() {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
}

// Validate checks required envelope fields.
func (e *ChangeEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.TrackID == "" {
		return &ValidationError{Field: "track_id", Message: "required"}
	}
	if e.RunID == "" {
		return &ValidationError{Field: "run_id", Message: "required"}
	}
	return nil
}

// Direction classifies the change for subject routing. Entering and
// leaving the scored catalog take precedence over the delta sign.
func (e *ChangeEvent) Direction() string {
	switch {
	case e.Previous == nil:
		return DirectionNew
	case e.Current == nil:
		return DirectionRemoved
	case e.Delta > 0:
		return DirectionUp
	default:
		return DirectionDown
	}
}

// Topic returns the NATS subject for this event.
// Format: popularity.<direction>
// Example: popularity.down
func (e *ChangeEvent) Topic() string {
	return TopicPrefix + e.Direction()
}

// Change converts the event back into the persistence shape. The ID is
// left zero; the change-feed sequence assigns it on insert.
func (e *ChangeEvent) Change() models.PopularityChange {
	return models.PopularityChange{
		TrackID:   e.TrackID,
		TrackName: e.TrackName,
		Previous:  e.Previous,
		Current:   e.Current,
		Delta:     e.Delta,
		RunID:     e.RunID,
		ChangedAt: e.ChangedAt,
	}
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
