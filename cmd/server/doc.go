// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
Package main is the entry point for the Trackscope server application.

Trackscope is a self-hosted daemon that tracks how track popularity on
Spotify evolves over time. It periodically pulls new releases from the
Spotify Web API, snapshots per-track popularity, detects changes between
runs, and serves the accumulated history through a REST API with
real-time WebSocket notifications.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("trackscope")
	├── DataSupervisor ("data-layer")
	│   └── Ingestion Manager (periodic Spotify catalog pulls)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (real-time updates)
	│   └── Event distribution (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST endpoints + Swagger)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with tracks, snapshots, changes, and run history
 4. Catalog Client: Spotify Web API with circuit breaker protection
 5. Supervisor Tree: Suture v4 process supervision
 6. WebSocket Hub: Real-time popularity-change notifications
 7. Ingestion Manager: Interval scheduler over the ingestion pipeline
 8. Authentication: JWT, Basic Auth, or no-auth mode
 9. Event Distribution: NATS JetStream change feed (optional)
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Spotify Web API (required)
	SPOTIFY_CLIENT_ID=<client-id>
	SPOTIFY_CLIENT_SECRET=<client-secret>
	SPOTIFY_MARKET=US            # Optional market filter for new releases

	# Server
	HTTP_PORT=4440               # HTTP server port (A440 tuning reference)
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Ingestion
	INGEST_INTERVAL=6h           # Time between catalog pulls
	INGEST_RELEASE_LIMIT=20      # Albums fetched per run (1-50)
	INGEST_ON_STARTUP=true       # Run an ingestion immediately at boot

	# Authentication (choose one mode)
	AUTH_MODE=jwt                # jwt, basic, or none
	JWT_SECRET=<32+ chars>       # Required for JWT mode
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>

See .env.example for complete configuration reference.

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server              # Standard build (direct change feed)
	go build -tags nats ./cmd/server   # Enable NATS JetStream events

Build tags affect supervisor tree composition:
  - nats: Adds EventsService to the messaging layer

Without the nats tag the change feed runs in direct mode: committed
popularity changes are written straight to DuckDB and broadcast to
WebSocket clients, with no broker in between.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Broadcasts shutdown to WebSocket clients
 3. Waits for in-flight requests (10s timeout)
 4. Stops the ingestion scheduler (in-progress run completes)
 5. Flushes pending changes and closes the database
 6. Reports any services that failed to stop

# Usage Examples

Development (no auth):

	export SPOTIFY_CLIENT_ID=xxx SPOTIFY_CLIENT_SECRET=xxx
	export AUTH_MODE=none
	go run ./cmd/server

Production (JWT):

	export SPOTIFY_CLIENT_ID=xxx SPOTIFY_CLIENT_SECRET=xxx
	export AUTH_MODE=jwt
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin ADMIN_PASSWORD=secure-password
	./trackscope

Docker:

	docker run -d \
	  -e SPOTIFY_CLIENT_ID=xxx \
	  -e SPOTIFY_CLIENT_SECRET=xxx \
	  -e AUTH_MODE=none \
	  -p 4440:4440 \
	  ghcr.io/tomtom215/trackscope

# Port 4440

The default port 4440 references A440 (440 Hz), the ISO 16 standard
tuning pitch for the musical note A above middle C.

# API Documentation

Swagger documentation is available at /swagger/index.html when the server
is running. The API provides endpoints organized into categories:

  - Core: Health checks, server info, statistics
  - Tracks: Track listing, top-by-popularity, snapshot history
  - Changes: Popularity change feed and ingestion run history
  - Archive: Raw ingestion payload access (when enabled)
  - WebSocket: Real-time popularity-change notifications
  - Admin: Manual ingestion triggers

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/ingest: Catalog ingestion pipeline
  - internal/events: NATS JetStream change distribution
*/
package main
