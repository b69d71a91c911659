// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package models

import (
	"time"
)

// APIResponse represents the standardized response wrapper used by all HTTP endpoints.
// It provides a consistent structure for both successful and error responses, with
// metadata for observability.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"total_tracks": 120, "total_snapshots": 3400},
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z", "query_time_ms": 4}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "TRACK_NOT_FOUND", "message": "Track not found"},
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when the response was generated (RFC3339)
//   - QueryTimeMS: Database query execution time in milliseconds (omitted when zero)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - DATABASE_ERROR: Query execution failure
//   - TRACK_NOT_FOUND: Requested track id does not exist
//   - INGEST_IN_PROGRESS: A manual trigger arrived while a run is active
//   - AUTHENTICATION_ERROR: Invalid or missing credentials
//   - AUTHORIZATION_ERROR: Insufficient role for the operation
//   - SERVICE_ERROR: A required collaborator (database, archive) is unavailable
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Stats represents overall system statistics served by /api/v1/stats.
type Stats struct {
	TotalTracks    int           `json:"total_tracks"`
	TotalSnapshots int           `json:"total_snapshots"`
	TotalChanges   int           `json:"total_changes"`
	LastIngestTime *time.Time    `json:"last_ingest_time,omitempty"`
	LastRun        *IngestionRun `json:"last_run,omitempty"`
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	CatalogConnected  bool       `json:"catalog_connected"`
	LastIngestTime    *time.Time `json:"last_ingest_time,omitempty"`
	Uptime            float64    `json:"uptime_seconds"`
}

// LoginRequest represents a login request for JWT authentication.
//
// Security:
//   - Password is transmitted in plaintext (HTTPS required)
//   - The configured admin password is bcrypt-hashed at startup and compared
//     in constant time
//   - JWT tokens are returned in an HTTP-only cookie
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response with a signed JWT token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Roles recognised by the authorization layer.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// ArchiveObject describes one archived raw-payload object for listing responses.
type ArchiveObject struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
