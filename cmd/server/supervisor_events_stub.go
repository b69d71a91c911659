// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build !nats

// This file provides a no-op stub for NATS supervisor integration.
// It is only compiled when the "nats" build tag is NOT enabled.
//
// Build without NATS support (default):
//
//	go build -o trackscope ./cmd/server

package main

import (
	"github.com/tomtom215/trackscope/internal/supervisor"
)

// AddEventsToSupervisor is a no-op stub for non-NATS builds.
//
// When NATS support is not compiled in (no -tags nats), this function
// does nothing. This allows main.go to call AddEventsToSupervisor
// unconditionally without build tag conditionals.
//
// The EventsComponents parameter will be nil from the stub InitEvents
// function in events_init_stub.go.
func AddEventsToSupervisor(_ *supervisor.SupervisorTree, _ *EventsComponents) {
	// No-op: NATS not compiled in
}
