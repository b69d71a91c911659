// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build nats

package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

// MessageSource defines the interface for receiving messages.
// This abstraction allows the consumer to work with different message sources.
type MessageSource interface {
	// Subscribe subscribes to a topic and returns a channel of messages.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close closes the message source.
	Close() error
}

// ConsumerStats holds runtime statistics for monitoring.
type ConsumerStats struct {
	MessagesReceived  int64     // Total messages received
	MessagesProcessed int64     // Messages written and acked
	ParseErrors       int64     // JSON parse failures
	DuplicatesSkipped int64     // Messages skipped as already processed
	WriteFailures     int64     // Failed batch writes (messages nacked)
	LastMessageTime   time.Time // Time of last received message
}

// ChangeConsumer consumes popularity change events from JetStream and
// writes them to the popularity_changes table. It is the only writer of
// that table: the ingestion pipeline publishes events, the consumer
// persists them.
//
// Messages accumulate into a batch and are acked only after the batch
// insert succeeds, so a crash before the write leads to redelivery, not
// loss. The DedupTracker records event IDs after the write, so the
// redelivery of an already-written event is acked without a second
// insert.
type ChangeConsumer struct {
	source MessageSource
	db     ChangeWriter
	hub    Broadcaster // nil disables live broadcasts
	dedup  DedupTracker
	config ConsumerConfig

	// pending is owned by the consume goroutine; no lock needed.
	pending []pendingChange

	// State
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Metrics
	messagesReceived  atomic.Int64
	messagesProcessed atomic.Int64
	parseErrors       atomic.Int64
	duplicatesSkipped atomic.Int64
	writeFailures     atomic.Int64
	lastMessageTime   atomic.Value // stores time.Time
}

type pendingChange struct {
	event    *ChangeEvent
	msg      *message.Message
	received time.Time
}

// NewChangeConsumer creates a change consumer. hub may be nil; a nil
// dedup tracker falls back to an in-memory one.
func NewChangeConsumer(source MessageSource, db ChangeWriter, hub Broadcaster, dedup DedupTracker, cfg *ConsumerConfig) (*ChangeConsumer, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if db == nil {
		return nil, fmt.Errorf("change writer required")
	}
	if cfg == nil {
		defaults := DefaultConsumerConfig()
		cfg = &defaults
	}
	if dedup == nil {
		dedup = NewMemoryDedupTracker()
	}

	c := &ChangeConsumer{
		source: source,
		db:     db,
		hub:    hub,
		dedup:  dedup,
		config: *cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	c.lastMessageTime.Store(time.Time{})

	return c, nil
}

// Start begins consuming messages from the source.
// Returns immediately - consumption happens in a goroutine.
func (c *ChangeConsumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return nil // Already running
	}

	messages, err := c.source.Subscribe(ctx, c.config.Topic)
	if err != nil {
		c.running.Store(false)
		return fmt.Errorf("subscribe to %s: %w", c.config.Topic, err)
	}

	go c.consumeLoop(ctx, messages)
	go c.dedupCleanupLoop(ctx)

	logging.Info().
		Str("topic", c.config.Topic).
		Int("batch_size", c.config.BatchSize).
		Dur("flush_interval", c.config.FlushInterval).
		Msg("Change consumer started")
	return nil
}

// Stop gracefully stops the consumer, draining buffered messages and
// flushing the pending batch first.
func (c *ChangeConsumer) Stop() {
	if !c.running.Swap(false) {
		return // Already stopped
	}

	close(c.stopCh)
	<-c.doneCh

	logging.Info().Msg("Change consumer stopped")
}

// IsRunning returns whether the consumer is currently running.
func (c *ChangeConsumer) IsRunning() bool {
	return c.running.Load()
}

// Stats returns current runtime statistics.
func (c *ChangeConsumer) Stats() ConsumerStats {
	var lastTime time.Time
	if t, ok := c.lastMessageTime.Load().(time.Time); ok {
		lastTime = t
	}
	return ConsumerStats{
		MessagesReceived:  c.messagesReceived.Load(),
		MessagesProcessed: c.messagesProcessed.Load(),
		ParseErrors:       c.parseErrors.Load(),
		DuplicatesSkipped: c.duplicatesSkipped.Load(),
		WriteFailures:     c.writeFailures.Load(),
		LastMessageTime:   lastTime,
	}
}

// consumeLoop processes messages from the subscription. On shutdown it
// drains buffered messages and flushes the pending batch so accepted
// events are not left unwritten.
func (c *ChangeConsumer) consumeLoop(ctx context.Context, messages <-chan *message.Message) {
	defer func() {
		c.running.Store(false)
		close(c.doneCh)
	}()

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.drainMessages(messages)
			c.flushPending(context.Background())
			return
		case <-c.stopCh:
			c.drainMessages(messages)
			c.flushPending(context.Background())
			return
		case <-ticker.C:
			c.flushPending(ctx)
		case msg, ok := <-messages:
			if !ok {
				c.flushPending(context.Background())
				return
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// drainMessages processes all remaining messages in the channel before
// shutdown. Uses a timeout to avoid blocking indefinitely if the channel
// keeps receiving.
func (c *ChangeConsumer) drainMessages(messages <-chan *message.Message) {
	drainTimeout := time.After(100 * time.Millisecond)
	drainedCount := 0

	for {
		select {
		case <-drainTimeout:
			if drainedCount > 0 {
				logging.Info().Int("count", drainedCount).Msg("Change consumer drained messages during shutdown")
			}
			return
		case msg, ok := <-messages:
			if !ok {
				if drainedCount > 0 {
					logging.Info().Int("count", drainedCount).Msg("Change consumer drained messages during shutdown (channel closed)")
				}
				return
			}
			// Use a background context since the original context is canceled
			c.handleMessage(context.Background(), msg)
			drainedCount++
		default:
			// No more messages in buffer
			if drainedCount > 0 {
				logging.Info().Int("count", drainedCount).Msg("Change consumer drained messages during shutdown")
			}
			return
		}
	}
}

// handleMessage parses and buffers a single message. The message is only
// acked here when it will never be written: malformed payloads and
// already-processed duplicates. Everything else is acked by flushPending
// after the batch insert succeeds.
func (c *ChangeConsumer) handleMessage(ctx context.Context, msg *message.Message) {
	startTime := time.Now()
	c.messagesReceived.Add(1)
	c.lastMessageTime.Store(startTime)

	metrics.RecordNATSConsume()

	event, err := DeserializeEvent(msg.Payload)
	if err != nil {
		c.parseErrors.Add(1)
		metrics.RecordNATSParseFailed()
		logging.Warn().
			Str("message_uuid", msg.UUID).
			Err(err).
			Msg("Failed to parse change event")

		msg.Ack() // Ack to prevent redelivery of malformed messages
		return
	}
	event.EnsureSchemaVersion()

	seen, err := c.dedup.IsSeen(ctx, event.EventID)
	if err != nil {
		// Treat lookup failure as unseen; a duplicate insert is caught
		// by the tracker on the redelivery path, not worth dropping the
		// event over.
		logging.Warn().
			Str("event_id", event.EventID).
			Err(err).
			Msg("Dedup lookup failed")
	}
	if seen {
		c.duplicatesSkipped.Add(1)
		metrics.RecordNATSDeduplicated()
		msg.Ack()
		return
	}

	c.pending = append(c.pending, pendingChange{event: event, msg: msg, received: startTime})

	if len(c.pending) >= c.config.BatchSize {
		c.flushPending(ctx)
	}
}

// flushPending writes the buffered batch. On success every message is
// recorded in the dedup tracker, acked, and broadcast; on failure the
// whole batch is nacked for redelivery. Nothing was recorded in the
// tracker before the write, so redelivered events are reprocessed.
func (c *ChangeConsumer) flushPending(ctx context.Context) {
	if len(c.pending) == 0 {
		return
	}

	batch := c.pending
	c.pending = nil

	changes := make([]models.PopularityChange, 0, len(batch))
	for _, p := range batch {
		changes = append(changes, p.event.Change())
	}

	if err := c.db.InsertPopularityChanges(ctx, changes); err != nil {
		c.writeFailures.Add(1)
		logging.Warn().
			Int("batch_size", len(batch)).
			Err(err).
			Msg("Failed to write change batch")

		for _, p := range batch {
			p.msg.Nack()
		}
		return
	}

	for i, p := range batch {
		entry := &DedupEntry{
			EventID: p.event.EventID,
			TrackID: p.event.TrackID,
			RunID:   p.event.RunID,
		}
		if err := c.dedup.CheckAndStore(ctx, entry, c.config.DedupTTL); err != nil && !errors.Is(err, ErrDuplicateEvent) {
			logging.Warn().
				Str("event_id", p.event.EventID).
				Err(err).
				Msg("Failed to record processed event")
		}

		p.msg.Ack()

		if c.hub != nil {
			c.hub.BroadcastJSON("popularity_changed", &changes[i])
		}

		c.messagesProcessed.Add(1)
		metrics.RecordNATSProcessed()
		metrics.RecordNATSProcessingDuration(time.Since(p.received))
	}
}

// dedupCleanupLoop periodically removes expired dedup entries.
func (c *ChangeConsumer) dedupCleanupLoop(ctx context.Context) {
	interval := c.config.DedupTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			removed, err := c.dedup.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Dedup cleanup failed")
				continue
			}
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Expired dedup entries removed")
			}
		}
	}
}
