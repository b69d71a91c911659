// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build nats

package services

import (
	"context"
	"fmt"
	"time"
)

// EventsRunner matches the lifecycle of the assembled NATS event
// components.
//
// This interface lets the service wrapper manage the components
// without importing the main package, avoiding circular dependencies.
//
// Satisfied by *EventsComponents from cmd/server/events_init.go:
//   - Start(ctx context.Context) error - starts the change consumer
//   - Shutdown(ctx context.Context) - stops consumer, publisher, server
//   - IsRunning() bool - returns running state
type EventsRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// EventsService wraps the NATS event components as a supervised service.
//
// It adapts the Start/Shutdown lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin all event components
//  2. Waits for context cancellation
//  3. Calls Shutdown(ctx) for graceful cleanup
//
// The components include the embedded NATS server (if configured), the
// JetStream publisher, the deduplication tracker, and the change
// consumer that writes popularity changes to DuckDB.
//
// Example usage:
//
//	components, _ := InitEvents(cfg, pipeline, wsHub, db)
//	svc := services.NewEventsService(components)
//	tree.AddMessagingService(svc)
type EventsService struct {
	components      EventsRunner
	shutdownTimeout time.Duration
	name            string
}

// NewEventsService creates a new events service wrapper with a
// 10-second shutdown timeout.
func NewEventsService(components EventsRunner) *EventsService {
	return &EventsService{
		components:      components,
		shutdownTimeout: 10 * time.Second,
		name:            "events-components",
	}
}

// NewEventsServiceWithTimeout creates an events service with a custom
// shutdown timeout.
func NewEventsServiceWithTimeout(components EventsRunner, shutdownTimeout time.Duration) *EventsService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventsService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		name:            "events-components",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture
// to restart the service according to its backoff policy.
func (s *EventsService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("events components start failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Shutdown with timeout - use fresh context since original is canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.components.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *EventsService) String() string {
	return s.name
}
