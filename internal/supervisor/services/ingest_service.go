// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package services

import (
	"context"
	"fmt"
)

// StartStopManager matches the ingest manager's lifecycle.
//
// This interface abstracts the Start/Stop pattern so the IngestService
// wrapper can adapt it to suture's Serve pattern without importing the
// ingest package.
//
// Satisfied by *ingest.Manager:
//   - Start(ctx context.Context) error
//   - Stop() error
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// IngestService wraps the ingest manager as a supervised service.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the scheduled ingestion loop
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown
//
// The ingest manager handles its own goroutines internally via
// WaitGroup, so this wrapper simply orchestrates the lifecycle
// transitions.
type IngestService struct {
	manager StartStopManager
	name    string
}

// NewIngestService creates a new ingest service wrapper.
//
// Example usage:
//
//	manager := ingest.NewManager(pipeline, store, cfg, wsHub)
//	svc := services.NewIngestService(manager)
//	tree.AddDataService(svc)
func NewIngestService(manager StartStopManager) *IngestService {
	return &IngestService{
		manager: manager,
		name:    "ingest-manager",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture
// to restart the service according to its backoff policy. A Stop()
// failure is reported the same way so the operator sees it, even
// though shutdown is already in progress.
func (s *IngestService) Serve(ctx context.Context) error {
	// Start spawns the manager's internal goroutines and returns immediately
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("ingest manager start failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Stop blocks until all internal goroutines complete
	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("ingest manager stop failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *IngestService) String() string {
	return s.name
}
