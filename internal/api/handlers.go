// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/trackscope/internal/archive"
	"github.com/tomtom215/trackscope/internal/auth"
	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/database"
	"github.com/tomtom215/trackscope/internal/ingest"
	"github.com/tomtom215/trackscope/internal/logging"
	ws "github.com/tomtom215/trackscope/internal/websocket"
)

// CatalogStatus is the view of the catalog client the health endpoints
// need: the circuit breaker state and on-demand connectivity checks.
// Satisfied by catalog.CircuitBreakerClient.
type CatalogStatus interface {
	Ping(ctx context.Context) error
	State() string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket plumbing (this file)
//   - handlers_helpers.go: Shared helper functions
//   - handlers_core.go: Guards, root status, parameter helpers
//   - handlers_health.go: Health/monitoring endpoints
//   - handlers_tracks.go: Track listing and snapshot endpoints
//   - handlers_changes.go: Popularity change feed, stats, run history
//   - handlers_ingest.go: Manual ingestion trigger
//   - handlers_archive.go: Raw payload archive access
//   - handlers_auth.go: JWT login
type Handler struct {
	db          *database.DB
	ingest      *ingest.Manager
	catalog     CatalogStatus
	config      *config.Config
	jwtManager  *auth.JWTManager
	credentials *auth.BasicAuthManager
	wsHub       *ws.Hub
	archive     archive.Store
	startTime   time.Time
}

// NewHandler creates a new API handler with all required dependencies.
//
// Dependencies:
//   - db: Database connection for data access
//   - ingestMgr: Ingestion manager for manual triggers and run status
//   - catalog: Catalog client status view for readiness checks
//   - cfg: Application configuration
//   - jwtManager: JWT token manager for authentication (nil when auth disabled)
//   - credentials: Admin credential verifier for login (nil when auth disabled)
//   - wsHub: WebSocket hub for real-time broadcasts
//   - archiveStore: Raw payload archive (nil when the sink is disabled)
//
// Example:
//
//	handler := api.NewHandler(db, ingestMgr, catalogClient, cfg, jwtManager, credentials, wsHub, archiveStore)
//	router := api.NewRouter(handler, middleware)
//	http.ListenAndServe(":4440", router.SetupChi())
func NewHandler(db *database.DB, ingestMgr *ingest.Manager, catalog CatalogStatus, cfg *config.Config, jwtManager *auth.JWTManager, credentials *auth.BasicAuthManager, wsHub *ws.Hub, archiveStore archive.Store) *Handler {
	return &Handler{
		db:          db,
		ingest:      ingestMgr,
		catalog:     catalog,
		config:      cfg,
		jwtManager:  jwtManager,
		credentials: credentials,
		wsHub:       wsHub,
		archive:     archiveStore,
		startTime:   time.Now(),
	}
}

// WebSocket handles WebSocket upgrade requests
//
// @Summary WebSocket connection
// @Description Upgrades the connection for real-time ingestion and popularity-change notifications
// @Tags Core
// @Success 101 "Switching Protocols"
// @Failure 503 {object} models.APIResponse "WebSocket service unavailable"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection attempted but hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}

// getUpgrader returns a WebSocket upgrader with origin checking
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin header against allowed CORS origins.
// Connections without an Origin header are rejected: browsers always send one,
// so its absence means a non-browser client trying to skip the CORS check.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// Fail open when no config is present (tests construct bare handlers)
	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
