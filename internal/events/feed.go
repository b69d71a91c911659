// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package events

import (
	"context"
	"fmt"

	"github.com/tomtom215/trackscope/internal/models"
)

// ChangeWriter persists accepted popularity changes. Implemented by
// *database.DB.
type ChangeWriter interface {
	InsertPopularityChanges(ctx context.Context, changes []models.PopularityChange) error
}

// Broadcaster fans a typed message out to connected WebSocket clients.
// Implemented by *websocket.Hub.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

// DirectFeed writes popularity changes straight to the database and the
// WebSocket hub, bypassing NATS. It is the change-feed path when event
// distribution is disabled: the ingestion pipeline publishes into it
// exactly as it would into a broker-backed Publisher, so the /changes
// feed and live broadcasts behave the same either way.
type DirectFeed struct {
	db  ChangeWriter
	hub Broadcaster
}

// NewDirectFeed creates a direct change feed. hub may be nil, in which
// case changes are persisted without a live broadcast.
func NewDirectFeed(db ChangeWriter, hub Broadcaster) *DirectFeed {
	return &DirectFeed{
		db:  db,
		hub: hub,
	}
}

// PublishPopularityChange persists a single change and broadcasts it.
func (f *DirectFeed) PublishPopularityChange(ctx context.Context, change *models.PopularityChange) error {
	if change == nil {
		return ErrNilChange
	}

	if err := f.db.InsertPopularityChanges(ctx, []models.PopularityChange{*change}); err != nil {
		return fmt.Errorf("insert popularity change: %w", err)
	}

	if f.hub != nil {
		f.hub.BroadcastJSON("popularity_changed", change)
	}

	return nil
}
