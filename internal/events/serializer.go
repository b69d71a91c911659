// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package events

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer handles event encoding/decoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal converts an event to JSON bytes.
func (s *Serializer) Marshal(event *ChangeEvent) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return data, nil
}

// Unmarshal converts JSON bytes to an event.
func (s *Serializer) Unmarshal(data []byte) (*ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	return &event, nil
}

// SerializeEvent is a convenience function that marshals an event to JSON.
func SerializeEvent(event *ChangeEvent) ([]byte, error) {
	return NewSerializer().Marshal(event)
}

// DeserializeEvent is a convenience function that unmarshals JSON to an event.
func DeserializeEvent(data []byte) (*ChangeEvent, error) {
	return NewSerializer().Unmarshal(data)
}
