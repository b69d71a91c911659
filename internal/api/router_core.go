// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"net/http"

	"github.com/tomtom215/trackscope/internal/auth"
	"github.com/tomtom215/trackscope/internal/authz"
	"github.com/tomtom215/trackscope/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware

	// authzMiddleware enforces role-based access on admin routes.
	// Optional: when nil (auth disabled), admin routes are open.
	authzMiddleware *authz.Middleware
}

// NewRouter creates a new router with all routes configured.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	// Build Chi middleware from the existing auth config so both
	// stacks share one source of truth for CORS and rate limits.
	reqsPerWindow, rateLimitDisabled := authMiddleware.GetRateLimitConfig()
	chiMw := NewChiMiddlewareFromAuth(
		authMiddleware.GetCORSOrigins(),
		reqsPerWindow,
		authMiddleware.GetRateLimitWindow(),
		rateLimitDisabled,
	)

	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		chiMiddleware: chiMw,
	}
}

// ConfigureAuthz sets the role-based authorization middleware for admin
// routes. Called from main after the Casbin enforcer is built; admin
// routes stay open when never called (auth_mode=none).
func (router *Router) ConfigureAuthz(m *authz.Middleware) {
	router.authzMiddleware = m
}

// GetAuthzMiddleware returns the authorization middleware (for external components).
func (router *Router) GetAuthzMiddleware() *authz.Middleware {
	return router.authzMiddleware
}

// authorizeRequest wraps next with the path-based RBAC check (object =
// request path, action derived from the method) when authorization is
// configured, and passes through otherwise.
func (router *Router) authorizeRequest(next http.HandlerFunc) http.HandlerFunc {
	if router.authzMiddleware == nil {
		return next
	}
	return router.authzMiddleware.AuthorizeRequest(next)
}

// wrap applies common middlewares (CORS, RateLimit, RequestID, Prometheus)
// to a handler. This is used by tests and provides the standard middleware
// stack for individual HTTP handlers.
func (router *Router) wrap(handler http.HandlerFunc) http.HandlerFunc {
	return router.middleware.CORS(
		router.middleware.RateLimit(
			middleware.RequestID(
				middleware.PrometheusMetrics(handler),
			),
		),
	)
}
