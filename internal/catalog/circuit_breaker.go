// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
)

// breakerName labels the catalog breaker in logs and metrics
const breakerName = "spotify-api"

// CircuitBreakerClient wraps a catalog Client with the circuit breaker
// pattern, preventing cascading failures when the catalog API is down or
// slow. It implements Client itself, so callers are oblivious to the
// protection layer.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its open-period calculation. This is intentional for production
// resilience: the timing determines when to probe for recovery, not data
// integrity. Tests should fake the wrapped client, not the breaker.
type CircuitBreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker[interface{}]
}

// NewCircuitBreakerClient wraps the given client with a circuit breaker.
// Breaker configuration:
//   - Opens after 3 consecutive failures
//   - Stays open for 60 seconds before probing
//   - One probe request allowed in half-open state
func NewCircuitBreakerClient(client Client) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     60 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= 3
			if shouldTrip {
				logging.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
	}
}

// State returns the breaker's current state, exposed for the readiness probe
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

// execute wraps a catalog call with circuit breaker protection
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Ping verifies connectivity with circuit breaker protection
func (cbc *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.Ping(ctx)
	})
	return err
}

// NewReleases fetches one page of new releases with circuit breaker protection
func (cbc *CircuitBreakerClient) NewReleases(ctx context.Context, limit int) ([]Album, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.NewReleases(ctx, limit)
	})
	return castResult[[]Album](result, err)
}

// AlbumTracks fetches an album's track listing with circuit breaker protection
func (cbc *CircuitBreakerClient) AlbumTracks(ctx context.Context, albumID string) ([]TrackRef, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.AlbumTracks(ctx, albumID)
	})
	return castResult[[]TrackRef](result, err)
}

// Track fetches one track's detail with circuit breaker protection
func (cbc *CircuitBreakerClient) Track(ctx context.Context, trackID string) (*TrackDetail, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Track(ctx, trackID)
	})
	return castResult[*TrackDetail](result, err)
}

// Search finds tracks with circuit breaker protection
func (cbc *CircuitBreakerClient) Search(ctx context.Context, query string, limit int) ([]TrackDetail, error) {
	result, err := cbc.execute(func() (interface{}, error) {
		return cbc.client.Search(ctx, query, limit)
	})
	return castResult[[]TrackDetail](result, err)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
