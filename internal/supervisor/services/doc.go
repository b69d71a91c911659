// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
Package services provides suture.Service wrappers for Trackscope components.

This package adapts application components to the suture v4 supervision
model, translating their native lifecycle patterns (Start/Stop,
RunWithContext, ListenAndServe) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (Start/Stop to Serve pattern)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

WebSocket Hub (WebSocketHubService):
  - Wraps websocket.Hub with context support
  - Handles client connection cleanup on shutdown

Ingest Manager (IngestService):
  - Wraps ingest.Manager with Start/Stop lifecycle
  - Schedules Spotify catalog ingestion runs
  - The pipeline's circuit breaker limits retry storms against the API

Events Components (EventsService):
  - Wraps the NATS JetStream pipeline (server, publisher, consumer)
  - Handles message processing and acknowledgment
  - Build tag: nats (disabled by default)

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/tomtom215/trackscope/internal/supervisor"
	    "github.com/tomtom215/trackscope/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, hub *websocket.Hub, manager *ingest.Manager) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 30s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 30*time.Second)
	    tree.AddAPIService(httpSvc)

	    // WebSocket hub
	    wsSvc := services.NewWebSocketHubService(hub)
	    tree.AddMessagingService(wsSvc)

	    // Ingest manager
	    ingestSvc := services.NewIngestService(manager)
	    tree.AddDataService(ingestSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging. Suture uses the name
in its event log messages:

	INFO http-server: starting
	ERROR ingest-manager: restarting after failure

# Thread Safety

All service wrappers are safe for concurrent use. Calling Serve more
than once on the same wrapper instance is not supported.

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
*/
package services
