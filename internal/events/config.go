// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package events

import (
	"time"
)

// Component configuration lives here; runtime values come from the nats
// section of the application config (internal/config), which main maps
// onto these structs. Defaults below are the production values used when
// the application config leaves a knob unset.

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   1 << 30,  // 1GB
		JetStreamMaxStore: 10 << 30, // 10GB
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds subscriber configuration.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
	// StreamName is the JetStream stream to bind to. When set,
	// AutoProvision is disabled and the subscriber binds with
	// nats.BindStream(). Required for wildcard topics such as
	// "popularity.>" because stream names cannot contain wildcards.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for the subscriber.
// SubscribersCount defaults to 1: the change feed is low-rate and a
// single consumer goroutine keeps insert order matching publish order.
// Raise it only when throughput matters more than ordering.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "change-processor",
		QueueGroup:       "processors",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,    // Max redelivery attempts
		MaxAckPending:    1000, // Flow control
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		StreamName:       "TRACK_EVENTS",
	}
}

// StreamConfig defines the popularity-change stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the production stream configuration.
// Change events are a few hundred bytes each, so 1GB of file storage
// holds years of history; MaxAge is the operative retention bound.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "TRACK_EVENTS",
		Subjects:        []string{TopicWildcard},
		MaxAge:          7 * 24 * time.Hour, // 7 days
		MaxBytes:        1 << 30,            // 1GB
		MaxMsgs:         -1,                 // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1, // Increase for clustering
	}
}

// ConsumerConfig holds change-consumer configuration.
type ConsumerConfig struct {
	// Topic is the NATS subject pattern to subscribe to.
	Topic string

	// BatchSize is the number of accepted changes buffered before an
	// insert. Messages are acked only after their batch committed.
	BatchSize int

	// FlushInterval bounds how long an accepted change waits in the
	// buffer before a partial batch is inserted anyway.
	FlushInterval time.Duration

	// DedupTTL is how long processed event IDs are remembered. Must
	// exceed the broker's redelivery horizon to absorb crash-replays.
	DedupTTL time.Duration
}

// DefaultConsumerConfig returns production defaults for the consumer.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:         TopicWildcard,
		BatchSize:     100,
		FlushInterval: 2 * time.Second,
		DedupTTL:      10 * time.Minute,
	}
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
