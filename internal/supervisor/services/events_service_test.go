// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build nats

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// MockEventsComponents simulates the assembled event components for
// testing. Implements the EventsRunner interface.
type MockEventsComponents struct {
	running  atomic.Bool
	started  atomic.Bool
	startErr error
}

func NewMockEventsComponents() *MockEventsComponents {
	return &MockEventsComponents{}
}

func (m *MockEventsComponents) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started.Store(true)
	m.running.Store(true)
	return nil
}

func (m *MockEventsComponents) Shutdown(ctx context.Context) {
	m.running.Store(false)
}

func (m *MockEventsComponents) IsRunning() bool {
	return m.running.Load()
}

func (m *MockEventsComponents) SetStartError(err error) {
	m.startErr = err
}

func TestEventsService(t *testing.T) {
	t.Run("implements suture.Service interface", func(t *testing.T) {
		var _ suture.Service = (*EventsService)(nil)
	})

	t.Run("starts underlying event components", func(t *testing.T) {
		mock := NewMockEventsComponents()
		svc := NewEventsService(mock)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		// Poll for startup; fixed sleeps are flaky on loaded CI runners
		var started bool
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if mock.started.Load() {
				started = true
				break
			}
		}

		if !started {
			t.Error("event components should have been started")
		}
		if !mock.IsRunning() {
			t.Error("event components should be running")
		}

		cancel()
		<-done
	})

	t.Run("stops components on context cancellation", func(t *testing.T) {
		mock := NewMockEventsComponents()
		svc := NewEventsService(mock)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if mock.started.Load() {
				break
			}
		}
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("service did not stop in time")
		}

		if mock.IsRunning() {
			t.Error("event components should have been stopped")
		}
	})

	t.Run("propagates start error for restart", func(t *testing.T) {
		mock := NewMockEventsComponents()
		mock.SetStartError(errors.New("NATS connection refused"))
		svc := NewEventsService(mock)

		err := svc.Serve(context.Background())
		if err == nil {
			t.Error("expected error to be propagated")
		}
		if !errors.Is(err, mock.startErr) && err.Error() != "events components start failed: NATS connection refused" {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("String returns service name", func(t *testing.T) {
		mock := NewMockEventsComponents()
		svc := NewEventsService(mock)

		if svc.String() != "events-components" {
			t.Errorf("expected 'events-components', got '%s'", svc.String())
		}
	})
}

func TestEventsServiceWithTimeout(t *testing.T) {
	t.Run("respects shutdown timeout", func(t *testing.T) {
		mock := NewMockEventsComponents()
		timeout := 5 * time.Second
		svc := NewEventsServiceWithTimeout(mock, timeout)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- svc.Serve(ctx)
		}()

		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if mock.started.Load() {
				break
			}
		}
		cancel()

		select {
		case <-done:
			// Success
		case <-time.After(time.Second):
			t.Error("service did not stop in time")
		}
	})

	t.Run("zero timeout falls back to default", func(t *testing.T) {
		mock := NewMockEventsComponents()
		svc := NewEventsServiceWithTimeout(mock, 0)

		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("expected default timeout 10s, got %v", svc.shutdownTimeout)
		}
	})
}
