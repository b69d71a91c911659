// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
Package api provides the HTTP REST API layer for Trackscope.

This package implements the read and admin endpoints over the tracked catalog:
track listings, popularity snapshots, the change feed, ingestion run history,
archive access, and the manual ingestion trigger. It is the primary interface
between API consumers and the ingestion pipeline's output.

Key Components:

  - Router: Chi route configuration and middleware stack integration
  - Handler: Request handlers for all API endpoints
  - Response formatting: Standardized JSON envelope with metadata
  - Error handling: Consistent error responses with machine-readable codes
  - Authentication integration: JWT and Basic Auth support via middleware
  - Rate limiting: Per-IP limits via go-chi/httprate
  - CORS: Cross-Origin Resource Sharing via go-chi/cors

API Categories:

1. Core Endpoints (/api/v1/):
  - Health checks (health, health/live, health/ready)
  - Authentication (auth/login)
  - Statistics (stats)

2. Catalog Endpoints (/api/v1/):
  - Track listings (tracks, tracks/top, tracks/{id})
  - Popularity snapshots (tracks/{id}/snapshots, snapshots/recent)
  - Popularity change feed (changes)
  - Ingestion run history (runs)

3. Admin Endpoints (/api/v1/):
  - Manual ingestion trigger (POST ingest)
  - Raw payload archive (archive, archive/{key})

4. WebSocket Endpoint (/api/v1/ws):
  - Ingestion completion broadcasts
  - Popularity change notifications

Usage Example:

	import (
	    "github.com/tomtom215/trackscope/internal/api"
	    "github.com/tomtom215/trackscope/internal/auth"
	    "github.com/tomtom215/trackscope/internal/database"
	)

	// Create dependencies
	db, _ := database.New(&cfg.Database)
	middleware := auth.NewMiddleware(jwtManager, basicAuthManager, ...)

	// Create handler and router
	handler := api.NewHandler(db, ingestMgr, catalogClient, cfg, jwtManager, credentials, wsHub, archiveStore)
	router := api.NewRouter(handler, middleware)

	// Setup routes and start server
	http.ListenAndServe(":4440", router.SetupChi())

Response Envelope:

All JSON endpoints share one envelope (models.APIResponse). Successful
responses carry Status "success", the payload under Data, and Metadata with
the response timestamp and query duration. Errors carry Status "error" and
an APIError with a machine-readable Code and human-readable Message.

Thread Safety:

All handlers are thread-safe and designed for concurrent request handling.
Shared resources (database, ingestion manager, WebSocket hub) are protected
by their respective synchronization primitives.

Security:

  - JWT token validation on protected routes
  - Casbin RBAC enforcement on admin routes (ingest, archive)
  - Rate limiting per client IP
  - Input validation via go-playground/validator
  - SQL injection prevention via parameterized queries

See Also:

  - internal/auth: Authentication and token management
  - internal/authz: Role-based authorization
  - internal/database: Data access layer
  - internal/models: Request/response data structures
  - internal/middleware: HTTP middleware components
*/
package api
