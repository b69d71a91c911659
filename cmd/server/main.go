// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package main is the entry point for the Trackscope server application.
//
// Trackscope is a self-hosted daemon that tracks Spotify catalog
// popularity over time. It periodically ingests new releases, records
// per-track popularity snapshots, and serves the accumulated history
// through a REST API with real-time WebSocket notifications.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB for track, snapshot, and change storage
//  3. Catalog Client: Spotify Web API client with circuit breaker protection
//  4. WebSocket Hub: Enable real-time updates to connected clients
//  5. Ingestion Manager: Periodic catalog ingestion scheduler
//  6. Authentication: Configure JWT, Basic Auth, or no-auth mode
//  7. NATS (optional): Event distribution with JetStream persistence
//  8. HTTP Server: REST API with Swagger documentation
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (see .env.example)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required settings:
//   - SPOTIFY_CLIENT_ID: OAuth client ID from the Spotify developer dashboard
//   - SPOTIFY_CLIENT_SECRET: OAuth client secret
//
// For JWT authentication (default):
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME: Admin username
//   - ADMIN_PASSWORD: Admin password (8+ characters)
//
// # Build Tags
//
// Optional build tags enable additional functionality:
//
//	go build -tags nats ./cmd/server  # Enable NATS JetStream event distribution
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the ingestion scheduler and flushes pending changes
//   - Shuts down NATS components if enabled
//
// # Example Usage
//
// Development (no auth):
//
//	export SPOTIFY_CLIENT_ID=your-client-id
//	export SPOTIFY_CLIENT_SECRET=your-client-secret
//	export AUTH_MODE=none  # For development
//	./trackscope
//
// Production with JWT:
//
//	export SPOTIFY_CLIENT_ID=your-client-id
//	export SPOTIFY_CLIENT_SECRET=your-client-secret
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./trackscope
//
// Docker:
//
//	docker run -d \
//	  -e SPOTIFY_CLIENT_ID=your-client-id \
//	  -e SPOTIFY_CLIENT_SECRET=your-client-secret \
//	  -e AUTH_MODE=none \
//	  -p 4440:4440 \
//	  ghcr.io/tomtom215/trackscope
//
// # Port 4440
//
// The default port 4440 references A440 (440 Hz), the ISO 16 standard
// tuning pitch for the musical note A above middle C.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/trackscope/docs" // Import generated swagger docs
	"github.com/tomtom215/trackscope/internal/api"
	"github.com/tomtom215/trackscope/internal/archive"
	"github.com/tomtom215/trackscope/internal/auth"
	"github.com/tomtom215/trackscope/internal/authz"
	"github.com/tomtom215/trackscope/internal/catalog"
	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/database"
	"github.com/tomtom215/trackscope/internal/events"
	"github.com/tomtom215/trackscope/internal/ingest"
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/supervisor"
	"github.com/tomtom215/trackscope/internal/supervisor/services"
	ws "github.com/tomtom215/trackscope/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().Msg("Starting Trackscope with supervisor tree")

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Dur("ingest_interval", cfg.Ingest.Interval).
		Int("release_limit", cfg.Ingest.ReleaseLimit).
		Msg("Configuration loaded")

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Initialize Spotify catalog client with circuit breaker for fault tolerance.
	// The circuit breaker prevents cascading failures when the Spotify API
	// is unavailable; ingestion runs fail fast and retry on the next cycle.
	catalogClient := catalog.NewCircuitBreakerClient(catalog.NewSpotifyClient(&cfg.Spotify))
	if err := catalogClient.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to reach Spotify API (will retry)")
	} else {
		logging.Info().Msg("Connected to Spotify API successfully")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Create WebSocket hub for real-time updates (before ingestion manager)
	// This must be created early so the manager can broadcast run notifications
	wsHub := ws.NewHub()

	// Create ingestion pipeline and manager (not started here - supervisor will start it)
	pipeline := ingest.NewPipeline(catalogClient, db)
	ingestManager := ingest.NewManager(pipeline, db, cfg, wsHub)

	// Initialize raw payload archival (optional)
	var archiveStore archive.Store
	if cfg.Archive.Enabled {
		gcsStore, err := archive.NewGCSStore(ctx, &cfg.Archive)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize archive store")
		}
		defer func() {
			if err := gcsStore.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing archive store")
			}
		}()
		archiveStore = gcsStore
		pipeline.SetArchiver(gcsStore, cfg.Archive.Prefix)
		logging.Info().
			Str("bucket", cfg.Archive.Bucket).
			Str("prefix", cfg.Archive.Prefix).
			Msg("Raw payload archival enabled")
	} else {
		logging.Info().Msg("Raw payload archival disabled (ARCHIVE_ENABLED=false)")
	}

	var jwtManager *auth.JWTManager
	var basicAuthManager *auth.BasicAuthManager

	if cfg.Security.AuthMode == "jwt" {
		var err error
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	} else if cfg.Security.AuthMode == "basic" {
		var err error
		basicAuthManager, err = auth.NewBasicAuthManager(
			cfg.Security.AdminUsername,
			cfg.Security.AdminPassword,
		)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Basic Auth manager")
		}
		logging.Info().Msg("Basic authentication enabled")
		logging.Warn().Msg("Basic Auth transmits credentials with each request. Use HTTPS in production!")
	} else if cfg.Security.AuthMode == "none" {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}

	middleware := auth.NewMiddleware(
		jwtManager,
		basicAuthManager,
		cfg.Security.AuthMode,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
		cfg.Security.CORSOrigins,
		cfg.Security.TrustedProxies,
		cfg.Security.Casbin.DefaultRole,
		cfg.Security.AdminUsername, // Admin username gets admin role for RBAC
	)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
		logging.Warn().Msg("This should only be used for load testing!")
	}

	// Warn about wildcard CORS when authentication is enabled
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: CORS is configured with wildcard origin (CORS_ORIGINS=*)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  This allows ANY website to make cross-origin requests to your API.")
		logging.Warn().Msg("  With authentication enabled, this creates a security vulnerability:")
		logging.Warn().Msg("  attackers can steal credentials via malicious websites.")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  RECOMMENDED: Set specific origins in production:")
		logging.Warn().Msg("    CORS_ORIGINS=https://yourdomain.com,https://app.yourdomain.com")
		logging.Warn().Msg("============================================================")
	}

	handler := api.NewHandler(db, ingestManager, catalogClient, cfg, jwtManager, basicAuthManager, wsHub, archiveStore)

	// Initialize NATS event distribution (optional - requires build with -tags nats)
	// Wires the JetStream publisher into the pipeline and runs the change
	// consumer that persists and broadcasts popularity changes.
	eventsComponents, err := InitEvents(cfg, pipeline, wsHub, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event distribution")
	}

	// Add events components to supervisor tree (if enabled)
	// Note: components are started/managed by the supervisor, not manually
	AddEventsToSupervisor(tree, eventsComponents)

	// Without a broker the change feed runs in direct mode: the pipeline
	// writes committed changes straight to the database and WebSocket hub.
	if eventsComponents == nil {
		pipeline.SetEventPublisher(events.NewDirectFeed(db, wsHub))
		logging.Info().Msg("Change feed running in direct mode")
	}

	router := api.NewRouter(handler, middleware)

	// Initialize Casbin RBAC authorization for admin routes. Skipped in
	// no-auth mode, where there is no identity to authorize against.
	if cfg.Security.AuthMode != "none" {
		enforcerConfig := authz.DefaultEnforcerConfig()
		enforcerConfig.ModelPath = cfg.Security.Casbin.ModelPath
		enforcerConfig.PolicyPath = cfg.Security.Casbin.PolicyPath
		if cfg.Security.Casbin.DefaultRole != "" {
			enforcerConfig.DefaultRole = cfg.Security.Casbin.DefaultRole
		}

		enforcer, err := authz.NewEnforcer(ctx, enforcerConfig)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Casbin enforcer")
		}
		router.ConfigureAuthz(authz.NewMiddleware(enforcer))
		logging.Info().
			Str("default_role", enforcerConfig.DefaultRole).
			Bool("cache", enforcerConfig.CacheEnabled).
			Msg("Casbin RBAC authorization initialized")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer services
	tree.AddDataService(services.NewIngestService(ingestManager))
	logging.Info().Msg("Ingestion manager added to supervisor tree")

	// Messaging layer services
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
