// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build nats

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/database"
	"github.com/tomtom215/trackscope/internal/events"
	"github.com/tomtom215/trackscope/internal/ingest"
	"github.com/tomtom215/trackscope/internal/logging"
	ws "github.com/tomtom215/trackscope/internal/websocket"
)

// EventsComponents holds all event-distribution components for lifecycle
// management: the embedded NATS server, JetStream publisher, and the
// change consumer that persists and broadcasts popularity changes.
type EventsComponents struct {
	server            *events.EmbeddedServer
	natsConn          *natsgo.Conn
	streamInitializer *events.StreamInitializer
	publisher         *events.Publisher
	subscriber        *events.Subscriber
	consumer          *events.ChangeConsumer
	dedup             events.DedupTracker

	shutdownComplete chan struct{}
	mu               sync.Mutex
	running          bool
}

// InitEvents initializes event distribution when NATS_ENABLED=true.
//
// The pipeline's committed popularity changes flow through JetStream:
// the publisher writes them to the TRACK_EVENTS stream, and the change
// consumer reads them back, deduplicates, batches them into DuckDB, and
// broadcasts to WebSocket clients. The indirection buys durability and
// replay; with NATS disabled main wires a DirectFeed instead.
//
// Parameters:
//   - cfg: Application configuration with NATS settings
//   - pipeline: Ingestion pipeline to attach the publisher to
//   - wsHub: WebSocket hub for real-time broadcasts
//   - db: Database the consumer persists changes into
//
// Returns nil, nil when NATS is disabled via config.
func InitEvents(cfg *config.Config, pipeline *ingest.Pipeline, wsHub *ws.Hub, db *database.DB) (*EventsComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS event distribution disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	logging.Info().Msg("Initializing NATS event distribution...")

	components := &EventsComponents{
		shutdownComplete: make(chan struct{}),
	}

	var natsURL string

	// Step 1: Initialize embedded NATS server if enabled
	if cfg.NATS.EmbeddedServer {
		serverCfg := events.DefaultServerConfig()
		if cfg.NATS.StoreDir != "" {
			serverCfg.StoreDir = cfg.NATS.StoreDir
		}
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}

		server, err := events.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		natsURL = cfg.NATS.URL
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	// Step 2: Connect to NATS
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc
	logging.Info().Msg("NATS connection established")

	// Step 3: Initialize JetStream and ensure the stream exists
	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := events.DefaultStreamConfig()
	streamCfg.MaxAge = time.Duration(cfg.NATS.StreamRetentionDays) * 24 * time.Hour

	streamInitializer, err := events.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}
	components.streamInitializer = streamInitializer

	ctx := context.Background()
	stream, err := streamInitializer.EnsureStream(ctx)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	streamInfo := stream.CachedInfo()
	logging.Info().
		Str("name", streamInfo.Config.Name).
		Strs("subjects", streamInfo.Config.Subjects).
		Dur("max_age", streamInfo.Config.MaxAge).
		Msg("JetStream stream ready")

	// Step 4: Create publisher with circuit breaker protection and
	// attach it to the ingestion pipeline
	publisherCfg := events.DefaultPublisherConfig(natsURL)
	publisher, err := events.NewPublisher(publisherCfg, nil)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, err
	}
	publisher.SetCircuitBreaker(events.NewCircuitBreaker(events.DefaultCircuitBreakerConfig("nats-publisher")))
	components.publisher = publisher

	pipeline.SetEventPublisher(publisher)
	logging.Info().Msg("JetStream publisher wired to ingestion pipeline")

	// Step 5: Create dedup tracker for the consumer. JetStream redelivers
	// on missed acks, so the consumer remembers processed event IDs.
	dedup, err := events.NewDedupTracker(cfg.NATS.DedupStore, cfg.NATS.DedupStorePath)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create dedup tracker: %w", err)
	}
	components.dedup = dedup
	logging.Info().Str("store", cfg.NATS.DedupStore).Msg("Dedup tracker created")

	// Step 6: Create subscriber bound to the stream
	subscriberCfg := events.DefaultSubscriberConfig(natsURL)
	subscriberCfg.StreamName = streamCfg.Name
	subscriber, err := events.NewSubscriber(&subscriberCfg, nil)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	components.subscriber = subscriber

	// Step 7: Create the change consumer (persistence + broadcast path)
	consumerCfg := events.DefaultConsumerConfig()
	if cfg.NATS.DedupTTL > 0 {
		consumerCfg.DedupTTL = cfg.NATS.DedupTTL
	}
	consumer, err := events.NewChangeConsumer(subscriber, db, wsHub, dedup, &consumerCfg)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create change consumer: %w", err)
	}
	components.consumer = consumer
	logging.Info().
		Str("topic", consumerCfg.Topic).
		Int("batch_size", consumerCfg.BatchSize).
		Msg("Change consumer created")

	components.mu.Lock()
	components.running = true
	components.mu.Unlock()

	logging.Info().Msg("NATS event distribution initialized successfully")
	return components, nil
}

// Start begins consuming popularity-change events. Called by the
// supervisor after InitEvents; publishing needs no start step.
func (c *EventsComponents) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.consumer != nil {
		if err := c.consumer.Start(ctx); err != nil {
			return fmt.Errorf("start change consumer: %w", err)
		}
	}

	logging.Info().Msg("All event distribution components started")
	return nil
}

// Shutdown gracefully stops all event distribution components.
//
// Shutdown order is critical for clean termination:
//  1. Stop the consumer first (flushes its pending batch)
//  2. Close the subscriber
//  3. Close the publisher
//  4. Close the dedup tracker
//  5. Close the NATS connection
//  6. Shutdown the embedded server last
func (c *EventsComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	logging.Info().Msg("Shutting down event distribution components...")

	if c.consumer != nil {
		c.consumer.Stop()
	}
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing subscriber")
		}
		logging.Info().Msg("Subscriber closed")
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
		logging.Info().Msg("Publisher closed")
	}
	if c.dedup != nil {
		if err := c.dedup.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dedup tracker")
		}
	}
	if c.natsConn != nil {
		c.natsConn.Close()
		logging.Info().Msg("NATS connection closed")
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down NATS server")
		}
		logging.Info().Msg("Embedded NATS server stopped")
	}

	close(c.shutdownComplete)
	logging.Info().Msg("Event distribution shutdown complete")
}

// IsRunning returns whether event distribution components are active.
func (c *EventsComponents) IsRunning() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
