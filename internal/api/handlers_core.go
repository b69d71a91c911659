// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/trackscope/internal/logging"
)

// This file contains the request guards and shared parameter parsing used
// by all data handlers, plus the root status endpoint.
//
// All data handlers follow a consistent pattern:
//  1. Method validation (GET/POST)
//  2. Parameter parsing and validation
//  3. Database query with context
//  4. JSON response with metadata

// requireMethod validates HTTP method and returns true if valid, false if error was sent
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return false
	}
	return true
}

// requireDB checks database availability and returns true if available, false if error was sent
func (h *Handler) requireDB(w http.ResponseWriter) bool {
	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Database not available", nil)
		return false
	}
	return true
}

// getPageSizeConfig returns the configured page size limits with fallbacks
func (h *Handler) getPageSizeConfig() (defaultPageSize, maxPageSize int) {
	defaultPageSize = 20
	maxPageSize = 100

	if h.config != nil {
		if h.config.API.DefaultPageSize > 0 {
			defaultPageSize = h.config.API.DefaultPageSize
		}
		if h.config.API.MaxPageSize > 0 {
			maxPageSize = h.config.API.MaxPageSize
		}
	}
	return defaultPageSize, maxPageSize
}

// parseListParams extracts and validates limit/offset for list endpoints.
// The default limit comes from config; the maximum is enforced against
// the configured cap.
func (h *Handler) parseListParams(r *http.Request) (limit, offset int, err error) {
	defaultPageSize, maxPageSize := h.getPageSizeConfig()

	limit = getIntParam(r, "limit", defaultPageSize)
	offset = getIntParam(r, "offset", 0)

	req := ListRequest{
		Limit:  limit,
		Offset: offset,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		return 0, 0, fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}

	if limit > maxPageSize {
		return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
	}

	return limit, offset, nil
}

// parseLimitParam extracts and validates a bare limit parameter with an
// endpoint-specific default.
func (h *Handler) parseLimitParam(r *http.Request, defaultLimit int) (int, error) {
	_, maxPageSize := h.getPageSizeConfig()

	limit := getIntParam(r, "limit", defaultLimit)

	req := LimitRequest{Limit: limit}
	if apiErr := validateRequest(&req); apiErr != nil {
		return 0, fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}

	if limit > maxPageSize {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
	}

	return limit, nil
}

// Root reports service identity at GET /.
//
// The body intentionally predates the standard envelope and is kept
// as-is for compatibility with existing probes.
//
// @Summary Service status
// @Description Returns a static status line confirming the API is running
// @Tags Core
// @Produce json
// @Success 200 {object} map[string]string "Service is running"
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok","message":"Trackscope API is running"}`)); err != nil {
		logging.Error().Err(err).Msg("Failed to write root response")
	}
}
