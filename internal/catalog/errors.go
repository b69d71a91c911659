// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is the error type for every catalog API failure: transport
// errors, non-2xx statuses, token failures, and malformed responses.
//
// The ingestion pipeline treats these as per-item fetch failures - counted
// and skipped, never fatal to a run - so the fields exist for logging and
// diagnostics, not control flow.
type RequestError struct {
	Op         string // logical operation: "token", "new_releases", "album_tracks", "track", "search"
	ID         string // album or track id involved, when applicable
	StatusCode int    // HTTP status, 0 for transport and decode failures
	Err        error  // underlying cause
}

// Error implements the error interface
func (e *RequestError) Error() string {
	switch {
	case e.ID != "" && e.StatusCode != 0:
		return fmt.Sprintf("catalog %s %s: status %d: %v", e.Op, e.ID, e.StatusCode, e.Err)
	case e.ID != "":
		return fmt.Sprintf("catalog %s %s: %v", e.Op, e.ID, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("catalog %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As chains
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error is a catalog 404
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether the error is a catalog 429 that survived
// the client's internal retries
func IsRateLimited(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusTooManyRequests
}

// IsAuthFailure reports whether the error is a 401/403, which usually means
// bad credentials or an expired token the refresh could not replace
func IsAuthFailure(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.StatusCode == http.StatusUnauthorized || reqErr.StatusCode == http.StatusForbidden
}
