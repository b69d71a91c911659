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

	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the subset of jetstream.JetStream the initializer
// needs. Kept narrow so tests can substitute a fake.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer manages the change-event stream lifecycle. It runs
// before the publisher and consumer start so every event published during
// an ingestion run lands in a stream with the intended retention and
// deduplication window.
type StreamInitializer struct {
	js     JetStreamContext
	config StreamConfig
}

// NewStreamInitializer creates a stream initializer.
// Returns an error if the JetStream context or config is nil.
func NewStreamInitializer(js JetStreamContext, cfg *StreamConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("stream config required")
	}

	return &StreamInitializer{
		js:     js,
		config: *cfg,
	}, nil
}

// EnsureStream creates the stream, or updates its configuration when it
// already exists. Idempotent: safe to call on every startup.
//
// The stream uses:
//   - File storage for durability across restarts
//   - LimitsPolicy retention (oldest events discarded at the limits)
//   - A duplicate window matching the publisher's Nats-Msg-Id dedup
//   - AllowDirect for efficient direct get operations
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:        s.config.Name,
		Subjects:    s.config.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.config.MaxAge,
		MaxBytes:    s.config.MaxBytes,
		MaxMsgs:     s.config.MaxMsgs,
		Duplicates:  s.config.DuplicateWindow,
		Replicas:    s.config.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
		AllowRollup: true,
	}

	_, err := s.js.Stream(ctx, s.config.Name)
	if err == nil {
		// Stream exists, reconcile its configuration
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.config.Name, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", s.config.Name, err)
}

// GetStreamInfo retrieves current stream state and configuration.
// Returns an error if the stream doesn't exist.
func (s *StreamInitializer) GetStreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	stream, err := s.js.Stream(ctx, s.config.Name)
	if err != nil {
		return nil, fmt.Errorf("get stream %s: %w", s.config.Name, err)
	}
	return stream.Info(ctx)
}

// IsHealthy reports whether the stream exists and is accessible.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	_, err := s.js.Stream(ctx, s.config.Name)
	return err == nil
}

// Config returns the current stream configuration.
func (s *StreamInitializer) Config() StreamConfig {
	return s.config
}
