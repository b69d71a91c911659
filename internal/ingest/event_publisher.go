// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package ingest

import (
	"context"
	"sync/atomic"

	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/models"
)

// asyncPublishErrors tracks the number of async publish failures. The
// counter gives monitoring visibility into errors that are deliberately
// not propagated: by the time a change is published its rows are already
// committed, so a failed publish costs a notification, not data.
var asyncPublishErrors atomic.Int64

// GetAsyncPublishErrors returns the total count of async publish errors.
func GetAsyncPublishErrors() int64 {
	return asyncPublishErrors.Load()
}

// ResetAsyncPublishErrors resets the async publish error counter. This
// should ONLY be used in tests to ensure deterministic runs.
func ResetAsyncPublishErrors() {
	asyncPublishErrors.Store(0)
}

// EventPublisher publishes popularity changes to the event bus. The
// abstraction keeps NATS optional: the pipeline works unchanged with no
// publisher attached.
type EventPublisher interface {
	// PublishPopularityChange publishes one committed change. Errors are
	// logged and counted but never block or fail ingestion.
	PublishPopularityChange(ctx context.Context, change *models.PopularityChange) error
}

// SetEventPublisher attaches the optional event publisher. Passing nil
// disables publishing.
func (p *Pipeline) SetEventPublisher(publisher EventPublisher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publisher = publisher
}

// publishChanges publishes each committed change asynchronously. Called
// after commit so subscribers only ever see durable state.
func (p *Pipeline) publishChanges(ctx context.Context, changes []models.PopularityChange) {
	p.mu.RLock()
	publisher := p.publisher
	p.mu.RUnlock()

	if publisher == nil || len(changes) == 0 {
		return
	}

	for i := range changes {
		change := changes[i]
		p.publishWg.Add(1)

		go func() {
			defer p.publishWg.Done()
			if err := publisher.PublishPopularityChange(ctx, &change); err != nil {
				asyncPublishErrors.Add(1)
				logging.Warn().
					Err(err).
					Str("track_id", change.TrackID).
					Int64("total_errors", asyncPublishErrors.Load()).
					Msg("Async publish failed")
			}
		}()
	}

	logging.Debug().Int("changes", len(changes)).Msg("Publishing popularity changes")
}

// waitForPublishes blocks until in-flight publish goroutines complete or
// ctx ends. Run finalization uses it so consumers observe the complete
// run before the completion broadcast.
func (p *Pipeline) waitForPublishes(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		p.publishWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn().Msg("Timed out waiting for event publishes")
	}
}
