// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/trackscope/internal/models"
)

// Health handles health check requests
//
// @Summary Get system health status
// @Description Returns comprehensive health status including database connectivity, catalog API connectivity, last ingest time, and uptime
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	// Check database connectivity (nil means not connected)
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	// Check catalog API connectivity with a live request. This endpoint is
	// operator-facing and infrequent; the readiness probe below uses the
	// passive breaker state instead.
	catalogConnected := h.catalog != nil && h.catalog.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected || !catalogConnected {
		status = "degraded"
	}

	var lastIngestPtr *time.Time
	if h.ingest != nil {
		lastIngest := h.ingest.LastIngestTime()
		if !lastIngest.IsZero() {
			lastIngestPtr = &lastIngest
		}
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           "1.0.0",
		DatabaseConnected: dbConnected,
		CatalogConnected:  catalogConnected,
		LastIngestTime:    lastIngestPtr,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Description Returns 200 OK if the process is alive, regardless of external dependencies. Used for Kubernetes liveness probes.
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if the service is ready to handle traffic
//
// @Summary Kubernetes readiness probe
// @Description Returns 200 OK only if the service is ready to handle traffic (database reachable and catalog circuit breaker not open). Returns 503 if not ready.
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Service is ready"
// @Failure 503 {object} models.APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	// Check database connectivity (nil means not connected)
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	// The catalog check reads the breaker state rather than calling the
	// remote API; readiness probes fire too often to spend quota on them.
	catalogAvailable := h.catalog != nil && h.catalog.State() != "open"
	ready := dbConnected && catalogAvailable

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"catalog_available":  catalogAvailable,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
