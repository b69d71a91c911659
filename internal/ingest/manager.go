// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
manager.go - Ingest Manager Lifecycle and Scheduling

This file contains the manager struct, initialization, and lifecycle
methods for scheduling ingestion runs.

Lifecycle Methods:
  - NewManager(): Initialize manager with pipeline and configuration
  - Start(): Begin periodic ingestion plus the startup-run decision
  - Stop(): Gracefully shut down and wait for in-flight work
  - TriggerIngest(): Manual run, rejected with ErrIngestInProgress when busy
  - LastIngestTime()/LastResult(): Query the most recent completed run

Thread Safety:
  - ingestMu: Serializes whole runs (scheduled, manual, startup)
  - mu: Protects shared state (running, lastIngest, lastResult)
  - All goroutines tracked in a WaitGroup for coordinated shutdown
*/

//nolint:staticcheck // File documentation, not package doc
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/models"
)

// ErrIngestInProgress is returned by TriggerIngest when a run is already
// executing. The API maps it to HTTP 409.
var ErrIngestInProgress = errors.New("ingestion already in progress")

// publishDrainTimeout bounds how long finalization and shutdown wait for
// async publishes and uploads before moving on.
const publishDrainTimeout = 30 * time.Second

// WebSocketHub broadcasts messages to connected frontend clients.
// Implemented by internal/websocket.Hub.
type WebSocketHub interface {
	BroadcastJSON(messageType string, data interface{})
}

// Manager schedules ingestion runs and owns their lifecycle.
type Manager struct {
	pipeline          *Pipeline
	store             Store
	cfg               *config.Config
	lastIngest        time.Time
	lastResult        *models.IngestionResult
	running           bool
	mu                sync.RWMutex
	ingestMu          sync.Mutex // serializes run execution
	stopChan          chan struct{}
	wg                sync.WaitGroup
	onIngestCompleted func(result *models.IngestionResult)
	wsHub             WebSocketHub
}

// NewManager creates an ingest manager.
//
// Parameters:
//   - pipeline: executes individual runs
//   - store: read access for the startup-run decision
//   - cfg: full application configuration
//   - wsHub: WebSocket hub for run notifications (optional, can be nil)
func NewManager(pipeline *Pipeline, store Store, cfg *config.Config, wsHub WebSocketHub) *Manager {
	m := &Manager{
		pipeline: pipeline,
		store:    store,
		cfg:      cfg,
		wsHub:    wsHub,
		stopChan: make(chan struct{}),
	}

	logging.Info().
		Dur("interval", cfg.Ingest.Interval).
		Int("release_limit", cfg.Ingest.ReleaseLimit).
		Int("batch_size", cfg.Ingest.BatchSize).
		Bool("on_startup", cfg.Ingest.OnStartup).
		Msg("Ingest manager config loaded")

	return m
}

// SetOnIngestCompleted sets the callback invoked after each completed run.
func (m *Manager) SetOnIngestCompleted(callback func(result *models.IngestionResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onIngestCompleted = callback
}

// Start begins the periodic ingestion process.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("ingest manager is already running")
	}

	logging.Info().Msg("Starting ingest manager...")

	m.running = true
	m.mu.Unlock()

	// Add all goroutines to the WaitGroup BEFORE starting them so Stop
	// cannot call Wait before the Adds complete.
	m.wg.Add(2)

	// Startup run in the background to avoid blocking server startup.
	go func() {
		defer m.wg.Done()
		m.performStartupIngest()
	}()

	go m.ingestLoop(ctx)

	return nil
}

// performStartupIngest runs one ingestion at startup when configured to,
// or when the database holds no tracks yet (first boot).
func (m *Manager) performStartupIngest() {
	ctx := context.Background()

	if m.cfg.Ingest.OnStartup {
		logging.Info().Msg("Performing startup ingest...")
	} else {
		count, err := m.store.CountTracks(ctx)
		if err != nil {
			logging.Warn().Err(err).Msg("Skipping startup ingest, track count unavailable")
			return
		}
		if count > 0 {
			logging.Debug().Int64("tracks", count).Msg("Skipping startup ingest, catalog already populated")
			return
		}
		logging.Info().Msg("Database empty, performing startup ingest...")
	}

	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()

	if _, err := m.ingest(ctx); err != nil {
		logging.Warn().Err(err).Msg("Startup ingest failed (periodic runs will retry)")
	}
}

// ingestLoop runs the periodic ingestion schedule.
func (m *Manager) ingestLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Ingest.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			// A still-running previous run wins over the schedule.
			if !m.ingestMu.TryLock() {
				logging.Debug().Msg("Skipping scheduled ingest, previous run still in progress")
				continue
			}
			_, err := m.ingest(context.Background())
			m.ingestMu.Unlock()

			if err != nil {
				logging.Error().Err(err).Msg("Scheduled ingest failed")
			}
		}
	}
}

// TriggerIngest starts a manual ingestion run in the background and
// returns immediately: ErrIngestInProgress when a run is executing, an
// error when the manager is stopped, nil once the run is launched.
func (m *Manager) TriggerIngest() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("ingest manager is not running")
	}
	if !m.ingestMu.TryLock() {
		m.mu.Unlock()
		return ErrIngestInProgress
	}
	// wg.Add while holding mu orders it before Stop's Wait: Stop flips
	// running under the same lock before it waits.
	m.wg.Add(1)
	m.mu.Unlock()

	logging.Info().Msg("Manual ingest triggered")

	go func() {
		defer m.wg.Done()
		defer m.ingestMu.Unlock()
		if _, err := m.ingest(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Manual ingest failed")
		}
	}()

	return nil
}

// ingest executes one run and finalizes shared state. Callers must hold
// ingestMu.
func (m *Manager) ingest(ctx context.Context) (*models.IngestionResult, error) {
	result, err := m.pipeline.IngestNewReleases(ctx, m.cfg.Ingest.ReleaseLimit, m.cfg.Ingest.BatchSize)
	if err != nil {
		return nil, err
	}

	m.finalizeIngest(ctx, result)
	return result, nil
}

// finalizeIngest records shared state, then fans the completed run out
// to observers.
func (m *Manager) finalizeIngest(ctx context.Context, result *models.IngestionResult) {
	m.mu.Lock()
	m.lastIngest = result.StartedAt
	m.lastResult = result
	callback := m.onIngestCompleted
	hub := m.wsHub
	m.mu.Unlock()

	// Let in-flight change publishes settle so consumers observe the
	// complete run before the completion broadcast.
	drainCtx, cancel := context.WithTimeout(ctx, publishDrainTimeout)
	m.pipeline.waitForPublishes(drainCtx)
	cancel()

	if callback != nil {
		callback(result)
	}
	if hub != nil {
		hub.BroadcastJSON("ingest_completed", result)
	}
}

// Stop gracefully stops the manager and waits for in-flight runs and
// their background work to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("ingest manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping ingest manager...")

	close(m.stopChan)
	m.wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), publishDrainTimeout)
	m.pipeline.Drain(drainCtx)
	cancel()

	logging.Info().Msg("Ingest manager stopped")
	return nil
}

// LastIngestTime returns the start time of the most recent completed run.
func (m *Manager) LastIngestTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastIngest
}

// LastResult returns the most recent completed run summary, or nil
// before the first completed run.
func (m *Manager) LastResult() *models.IngestionResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastResult
}
