// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package events

import "errors"

// ErrNATSNotEnabled is returned when broker features are used without the nats build tag.
var ErrNATSNotEnabled = errors.New("NATS event distribution not enabled (build with -tags nats)")

// ErrPublisherClosed is returned when publishing through a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrNilChange is returned when publishing a nil popularity change.
var ErrNilChange = errors.New("popularity change cannot be nil")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")
