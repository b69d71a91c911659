// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build nats

// This file provides NATS integration with the supervisor tree.
// It is only compiled when the "nats" build tag is enabled.
//
// Build with NATS support:
//
//	go build -tags nats -o trackscope ./cmd/server

package main

import (
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/supervisor"
	"github.com/tomtom215/trackscope/internal/supervisor/services"
)

// AddEventsToSupervisor adds the event distribution service to the
// supervisor tree's messaging layer for automatic lifecycle management.
//
// The components include:
//   - Embedded NATS server (if configured)
//   - JetStream publisher for popularity-change events
//   - Change consumer for event persistence and WebSocket broadcasts
//   - Dedup tracker (memory or Badger-backed)
//
// When added to the supervisor tree:
//   - Start() is called when the supervisor starts
//   - Shutdown() is called when the supervisor stops
//   - The service is automatically restarted on failure
//
// This function is a no-op if eventsComponents is nil (NATS disabled via config).
//
// Example usage in main.go:
//
//	eventsComponents, _ := InitEvents(cfg, pipeline, wsHub, db)
//	AddEventsToSupervisor(tree, eventsComponents)
func AddEventsToSupervisor(tree *supervisor.SupervisorTree, eventsComponents *EventsComponents) {
	if eventsComponents == nil {
		return
	}
	tree.AddMessagingService(services.NewEventsService(eventsComponents))
	logging.Info().Msg("Event distribution added to supervisor tree (messaging layer)")
}
