// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/trackscope/internal/models"
)

// fakeChangeWriter records inserted batches and optionally fails.
// Shared with the consumer tests.
type fakeChangeWriter struct {
	mu      sync.Mutex
	batches [][]models.PopularityChange
	err     error
}

func (w *fakeChangeWriter) InsertPopularityChanges(_ context.Context, changes []models.PopularityChange) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	batch := make([]models.PopularityChange, len(changes))
	copy(batch, changes)
	w.batches = append(w.batches, batch)
	return nil
}

func (w *fakeChangeWriter) insertedRows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, b := range w.batches {
		total += len(b)
	}
	return total
}

// fakeBroadcaster records broadcast calls. Shared with the consumer tests.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []broadcastCall
}

type broadcastCall struct {
	messageType string
	data        interface{}
}

func (b *fakeBroadcaster) BroadcastJSON(messageType string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, broadcastCall{messageType: messageType, data: data})
}

func (b *fakeBroadcaster) calls() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broadcastCall, len(b.messages))
	copy(out, b.messages)
	return out
}

func TestNewDirectFeed(t *testing.T) {
	writer := &fakeChangeWriter{}
	hub := &fakeBroadcaster{}

	feed := NewDirectFeed(writer, hub)
	if feed == nil {
		t.Fatal("Expected feed to be created")
	}
}

func TestDirectFeed_PublishPopularityChange(t *testing.T) {
	ctx := context.Background()

	t.Run("writes_and_broadcasts", func(t *testing.T) {
		writer := &fakeChangeWriter{}
		hub := &fakeBroadcaster{}
		feed := NewDirectFeed(writer, hub)

		change := &models.PopularityChange{
			TrackID:   "track-abc",
			TrackName: "Test Track",
			Previous:  intPtr(50),
			Current:   intPtr(55),
			Delta:     5,
			RunID:     "run-1",
			ChangedAt: time.Now().UTC(),
		}

		err := feed.PublishPopularityChange(ctx, change)
		if err != nil {
			t.Fatalf("PublishPopularityChange failed: %v", err)
		}

		if writer.insertedRows() != 1 {
			t.Errorf("Expected 1 row inserted, got %d", writer.insertedRows())
		}

		writer.mu.Lock()
		stored := writer.batches[0][0]
		writer.mu.Unlock()
		if stored.TrackID != "track-abc" {
			t.Errorf("Expected TrackID track-abc, got %q", stored.TrackID)
		}
		if stored.Delta != 5 {
			t.Errorf("Expected Delta 5, got %d", stored.Delta)
		}

		calls := hub.calls()
		if len(calls) != 1 {
			t.Fatalf("Expected 1 broadcast, got %d", len(calls))
		}
		if calls[0].messageType != "popularity_changed" {
			t.Errorf("Expected message type popularity_changed, got %q", calls[0].messageType)
		}
		if calls[0].data != change {
			t.Error("Expected broadcast payload to be the change itself")
		}
	})

	t.Run("nil_change", func(t *testing.T) {
		feed := NewDirectFeed(&fakeChangeWriter{}, &fakeBroadcaster{})

		err := feed.PublishPopularityChange(ctx, nil)
		if !errors.Is(err, ErrNilChange) {
			t.Errorf("Expected ErrNilChange, got: %v", err)
		}
	})

	t.Run("write_failure_skips_broadcast", func(t *testing.T) {
		writer := &fakeChangeWriter{err: errors.New("disk full")}
		hub := &fakeBroadcaster{}
		feed := NewDirectFeed(writer, hub)

		change := &models.PopularityChange{
			TrackID: "track-fail",
			Current: intPtr(10),
			RunID:   "run-1",
		}

		err := feed.PublishPopularityChange(ctx, change)
		if err == nil {
			t.Fatal("Expected error from failed insert")
		}
		if !strings.Contains(err.Error(), "insert popularity change") {
			t.Errorf("Expected wrapped insert error, got: %v", err)
		}

		if len(hub.calls()) != 0 {
			t.Error("Expected no broadcast after failed insert")
		}
	})

	t.Run("nil_hub_tolerated", func(t *testing.T) {
		writer := &fakeChangeWriter{}
		feed := NewDirectFeed(writer, nil)

		change := &models.PopularityChange{
			TrackID: "track-nohub",
			Current: intPtr(42),
			RunID:   "run-2",
		}

		err := feed.PublishPopularityChange(ctx, change)
		if err != nil {
			t.Fatalf("PublishPopularityChange failed with nil hub: %v", err)
		}
		if writer.insertedRows() != 1 {
			t.Errorf("Expected 1 row inserted, got %d", writer.insertedRows())
		}
	})
}

func TestDirectFeed_ImplementsEventPublisher(t *testing.T) {
	// DirectFeed and Publisher both satisfy the ingest pipeline's
	// publisher dependency; only one is wired at a time.
	type eventPublisher interface {
		PublishPopularityChange(ctx context.Context, change *models.PopularityChange) error
	}
	var _ eventPublisher = (*DirectFeed)(nil)
	var _ eventPublisher = (*Publisher)(nil)
}
