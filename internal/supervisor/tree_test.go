// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		if tree.config.FailureThreshold != 5.0 {
			t.Errorf("expected default FailureThreshold 5.0, got %f", tree.config.FailureThreshold)
		}
		if tree.config.FailureDecay != 30.0 {
			t.Errorf("expected default FailureDecay 30.0, got %f", tree.config.FailureDecay)
		}
		if tree.config.FailureBackoff != 15*time.Second {
			t.Errorf("expected default FailureBackoff 15s, got %v", tree.config.FailureBackoff)
		}
		if tree.config.ShutdownTimeout != 10*time.Second {
			t.Errorf("expected default ShutdownTimeout 10s, got %v", tree.config.ShutdownTimeout)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	t.Run("tree starts and stops gracefully", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   100 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		tree.AddDataService(NewMockService("mock-ingest"))
		tree.AddMessagingService(NewMockService("mock-hub"))
		tree.AddAPIService(NewMockService("mock-http"))

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- tree.Serve(ctx)
		}()

		// Let it run briefly
		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down in time")
		}
	})

	t.Run("ServeBackground returns channel", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(time.Second):
			t.Error("did not receive from error channel")
		}
	})
}

func TestSupervisorTreeServiceManagement(t *testing.T) {
	layers := []struct {
		name string
		add  func(*SupervisorTree, suture.Service) suture.ServiceToken
	}{
		{"data layer", (*SupervisorTree).AddDataService},
		{"messaging layer", (*SupervisorTree).AddMessagingService},
		{"api layer", (*SupervisorTree).AddAPIService},
	}

	for _, layer := range layers {
		t.Run("services in "+layer.name+" are started", func(t *testing.T) {
			tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

			svc := NewMockService(layer.name + " service")
			layer.add(tree, svc)

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			go tree.Serve(ctx)
			time.Sleep(100 * time.Millisecond)

			if svc.StartCount() < 1 {
				t.Errorf("service in %s was not started", layer.name)
			}
		})
	}

	t.Run("messaging service can be removed by token", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

		svc := NewMockService("removable")
		token := tree.AddMessagingService(svc)

		ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
		defer cancel()

		go tree.Serve(ctx)
		time.Sleep(100 * time.Millisecond)

		// Tokens are scoped to the supervisor that issued them, so the
		// removal has to go through the messaging layer, not the root.
		if err := tree.RemoveMessagingService(token); err != nil {
			t.Errorf("failed to remove messaging service: %v", err)
		}
	})
}

func TestSupervisorTreeFailureHandling(t *testing.T) {
	t.Run("failing service in one layer is restarted", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  time.Second,
		})

		failingSvc := NewMockService("failing")
		failingSvc.SetFailCount(2) // Fail twice, then succeed

		stableSvc := NewMockService("stable")

		tree.AddMessagingService(failingSvc)
		tree.AddAPIService(stableSvc)

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		go tree.Serve(ctx)
		time.Sleep(200 * time.Millisecond)

		// Failing service should have been restarted
		if failingSvc.StartCount() < 3 {
			t.Errorf("expected at least 3 starts for failing service, got %d", failingSvc.StartCount())
		}

		// Stable service should have started normally
		if stableSvc.StartCount() < 1 {
			t.Error("stable service was not started")
		}
	})
}

func TestDefaultTreeConfig(t *testing.T) {
	config := DefaultTreeConfig()

	if config.FailureThreshold != 5.0 {
		t.Errorf("expected FailureThreshold 5.0, got %f", config.FailureThreshold)
	}
	if config.FailureDecay != 30.0 {
		t.Errorf("expected FailureDecay 30.0, got %f", config.FailureDecay)
	}
	if config.FailureBackoff != 15*time.Second {
		t.Errorf("expected FailureBackoff 15s, got %v", config.FailureBackoff)
	}
	if config.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected ShutdownTimeout 10s, got %v", config.ShutdownTimeout)
	}
}
