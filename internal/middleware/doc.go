// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking and
Prometheus metrics integration. These components work alongside the
authentication and authorization middleware to create a complete middleware
stack for HTTP request processing. Response compression is handled by the Chi
router's built-in Compress middleware.

Key Components:

  - Request ID: UUID-based request tracking for distributed tracing
  - Prometheus Metrics: HTTP request/response instrumentation

Usage Example - Request ID:

	http.HandleFunc("/api/v1/tracks",
	    middleware.RequestID(handler),
	)

	// Access request ID in handler
	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    log.Printf("[%s] Processing request", requestID)
	}

Usage Example - Prometheus Metrics:

	http.HandleFunc("/api/v1/stats",
	    middleware.PrometheusMetrics(handler),
	)

	// Records api_requests_total and api_request_duration_seconds with
	// method, endpoint, and status labels, plus an active-request gauge.

Thread Safety:

All middleware components are thread-safe:
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations
*/
package middleware
