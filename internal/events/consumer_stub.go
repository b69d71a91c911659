// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build !nats

package events

import (
	"context"
	"time"
)

// ConsumerStats holds runtime statistics.
// This is a stub for non-NATS builds.
type ConsumerStats struct {
	MessagesReceived  int64
	MessagesProcessed int64
	ParseErrors       int64
	DuplicatesSkipped int64
	WriteFailures     int64
	LastMessageTime   time.Time
}

// ChangeConsumer is a stub for non-NATS builds. Deployments without
// NATS use DirectFeed to keep the change feed populated.
type ChangeConsumer struct{}

// NewChangeConsumer returns an error in non-NATS builds.
func NewChangeConsumer(_ interface{}, _ ChangeWriter, _ Broadcaster, _ DedupTracker, _ *ConsumerConfig) (*ChangeConsumer, error) {
	return nil, ErrNATSNotEnabled
}

// Start is a stub for non-NATS builds.
func (c *ChangeConsumer) Start(_ context.Context) error {
	return ErrNATSNotEnabled
}

// Stop is a stub for non-NATS builds.
func (c *ChangeConsumer) Stop() {}

// IsRunning is a stub for non-NATS builds.
func (c *ChangeConsumer) IsRunning() bool {
	return false
}

// Stats is a stub for non-NATS builds.
func (c *ChangeConsumer) Stats() ConsumerStats {
	return ConsumerStats{}
}
