// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build !nats

package main

import (
	"context"

	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/database"
	"github.com/tomtom215/trackscope/internal/ingest"
	"github.com/tomtom215/trackscope/internal/logging"
	ws "github.com/tomtom215/trackscope/internal/websocket"
)

// EventsComponents is a stub for non-NATS builds.
type EventsComponents struct{}

// InitEvents is a no-op stub for non-NATS builds.
// Returns nil to indicate event distribution is not available; main
// falls back to the direct change feed.
func InitEvents(cfg *config.Config, _ *ingest.Pipeline, _ *ws.Hub, _ *database.DB) (*EventsComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
	}
	return nil, nil
}

// Start is a no-op stub for non-NATS builds.
func (c *EventsComponents) Start(_ context.Context) error {
	return nil
}

// Shutdown is a no-op stub for non-NATS builds.
func (c *EventsComponents) Shutdown(_ context.Context) {}

// IsRunning returns false for non-NATS builds.
func (c *EventsComponents) IsRunning() bool {
	return false
}
