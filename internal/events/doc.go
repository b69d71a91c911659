// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package events distributes popularity changes over Watermill and NATS
// JetStream. It is an optional layer: ingestion commits catalog rows with
// or without it, and the default build (no -tags=nats) compiles stubs
// that return errors from every broker-backed constructor.
//
// # Architecture
//
// The ingestion pipeline publishes one event per committed popularity
// change; the consumer materializes the change feed and fans out to the
// WebSocket hub:
//
//	┌──────────────┐
//	│  Ingestion   │  publishes after commit
//	│  Pipeline    │
//	└──────┬───────┘
//	       │ ChangeEvent ("popularity.up", "popularity.down", ...)
//	       ▼
//	┌──────────────────┐
//	│  NATS JetStream  │  TRACK_EVENTS stream, Nats-Msg-Id dedup
//	└──────┬───────────┘
//	       │
//	       ▼
//	┌──────────────────┐      ┌────────────────────┐
//	│  ChangeConsumer  │────▶ │ popularity_changes │
//	│  (dedup, batch)  │      │     (DuckDB)       │
//	└──────┬───────────┘      └────────────────────┘
//	       │
//	       ▼
//	┌──────────────────┐
//	│  WebSocket Hub   │  "popularity_changed" messages
//	└──────────────────┘
//
// The broker decouples the write: a run's events survive a consumer
// restart (JetStream retention), and the change feed can be rebuilt by a
// consumer in another process. When events are disabled entirely, the
// DirectFeed takes the publisher's place and writes each change straight
// through to the database and the hub - same outcome, no broker.
//
// # Key Components
//
//   - EmbeddedServer: in-process NATS JetStream server for single-binary
//     deployments (nats.embedded_server=true)
//   - StreamInitializer: idempotent create-or-update of the TRACK_EVENTS
//     stream before publishers and subscribers start
//   - Publisher: Watermill NATS publisher with circuit breaker protection
//     and reconnect handling; satisfies ingest.EventPublisher
//   - Subscriber: durable JetStream consumer bound to the stream
//   - ChangeConsumer: deduplicates, batches, and writes accepted changes;
//     acks only after the batch insert committed
//   - DedupTracker: processed-event memory (in-memory or BadgerDB with
//     TTL entries)
//   - DirectFeed: broker-free fallback publisher for disabled deployments
//
// # Delivery Semantics
//
// Publishing sets Nats-Msg-Id to the event UUID so JetStream drops
// duplicates inside the stream's duplicate window. The consumer adds its
// own DedupTracker spanning redeliveries beyond that window, and only
// acks a message after its change row is durably inserted - a crash
// between insert and ack costs a redelivery that the tracker absorbs,
// never a lost or doubled row.
//
// # Usage
//
//	server, err := events.NewEmbeddedServer(&serverCfg)
//	if err != nil {
//	    return err
//	}
//	defer server.Shutdown(ctx)
//
//	pub, err := events.NewPublisher(events.DefaultPublisherConfig(server.ClientURL()), nil)
//	if err != nil {
//	    return err
//	}
//	defer pub.Close()
//
//	pipeline.SetEventPublisher(pub)
package events
