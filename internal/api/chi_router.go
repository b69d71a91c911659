// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/trackscope/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows our existing middleware to work with Chi's r.Use().
// Used for Authenticate (auth logic), authorizeRequest (RBAC), and PrometheusMetrics.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(chimiddleware.Compress(5))   // Gzip responses when the client accepts it
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Root Status
	// ========================
	r.Get("/", router.handler.Root)

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting (1000/min): monitoring systems poll these
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	// Strict rate limiting for auth endpoints (brute force prevention)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Use(APISecurityHeaders())

		// Login has strictest rate limiting (5 attempts per 5 minutes)
		r.With(router.chiMiddleware.RateLimitLogin()).Post("/login", router.handler.Login)
	})

	// ========================
	// Catalog Data Endpoints
	// ========================
	// All data endpoints require authentication when auth is enabled
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(RequestLogger())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Use(chiMiddleware(router.authorizeRequest))

		r.Get("/stats", router.handler.Stats)
		r.Get("/tracks", router.handler.Tracks)
		r.Get("/tracks/top", router.handler.TopTracks)
		r.Get("/snapshots/recent", router.handler.RecentSnapshots)
		r.Get("/changes", router.handler.Changes)
		r.Get("/runs", router.handler.Runs)

		r.Route("/tracks/{id}", func(r chi.Router) {
			r.Use(chiPathValue) // Bridge Chi URL params to r.PathValue()
			r.Get("/", router.handler.TrackByID)
			r.Get("/snapshots", router.handler.TrackSnapshots)
		})
	})

	// ========================
	// WebSocket Endpoint
	// ========================
	// Own group: none of these middlewares wrap the ResponseWriter, so
	// the connection hijack during the upgrade keeps working.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitWebSocket())
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Use(chiMiddleware(router.authorizeRequest))

		r.Get("/", router.handler.WebSocket)
	})

	// ========================
	// Ingestion Trigger
	// ========================
	// Strict rate limiting (10/min - each run fans out many catalog
	// requests); admin-only when authorization is configured
	r.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitIngest())
		r.Use(APISecurityHeaders())
		r.Use(RequestLogger())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Use(chiMiddleware(router.authorizeRequest))

		r.Post("/", router.handler.TriggerIngest)
	})

	// ========================
	// Archive Endpoints
	// ========================
	// Raw payload archive access; admin-only when authorization is
	// configured. The wildcard route carries the object key, which
	// contains slashes that a {key} placeholder cannot match.
	r.Route("/api/v1/archive", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitArchive())
		r.Use(APISecurityHeaders())
		r.Use(RequestLogger())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Use(chiMiddleware(router.authorizeRequest))

		r.Get("/", router.handler.ArchiveList)
		r.Get("/*", router.handleChiArchiveGet)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}

// handleChiArchiveGet extracts the archive object key from the wildcard
// URL param and delegates to the archive fetch handler.
func (router *Router) handleChiArchiveGet(w http.ResponseWriter, req *http.Request) {
	key := chi.URLParam(req, "*")
	if key == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Archive object key required", nil)
		return
	}
	router.handler.ArchiveGet(w, req, key)
}

// chiPathValue middleware injects Chi URL params into the request so
// handlers using r.PathValue() continue to work. This bridges Chi's
// chi.URLParam() with Go 1.22+'s r.PathValue().
func chiPathValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if i < len(rctx.URLParams.Values) {
					r.SetPathValue(key, rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
