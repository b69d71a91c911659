// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build !nats

package events

import (
	"context"
	"fmt"
)

// Subscriber is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable full Watermill subscriber support.
type Subscriber struct {
	// stub - no fields needed
}

// NewSubscriber returns an error when NATS dependencies are not available.
// Build with -tags=nats to enable full Watermill subscriber support.
func NewSubscriber(cfg *SubscriberConfig, logger interface{}) (*Subscriber, error) {
	return nil, fmt.Errorf("NATS subscriber not available: build with -tags=nats")
}

// Subscribe is a stub that returns an error.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan interface{}, error) {
	return nil, fmt.Errorf("NATS subscriber not available: build with -tags=nats")
}

// Close is a no-op stub.
func (s *Subscriber) Close() error {
	return nil
}
