// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package authz

import (
	"net/http"
	"time"

	"github.com/tomtom215/trackscope/internal/auth"
	"github.com/tomtom215/trackscope/internal/logging"
)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{
		enforcer: enforcer,
	}
}

// Authorize is middleware that enforces authorization for a specific object and action.
func (m *Middleware) Authorize(object, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
			return
		}

		start := time.Now()
		allowed, err := m.enforcer.EnforceWithRoles(claims.Username, []string{claims.Role}, object, action)
		if err != nil {
			logging.Error().Err(err).Msg("Authorization error")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		RecordDecision(claims.Role, object, action, allowed, time.Since(start))

		if !allowed {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

// AuthorizeRequest is middleware that determines the action from the HTTP method
// and authorizes based on the request path.
func (m *Middleware) AuthorizeRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
			return
		}

		// Map HTTP method to action
		action := methodToAction(r.Method)
		object := r.URL.Path

		start := time.Now()
		allowed, err := m.enforcer.EnforceWithRoles(claims.Username, []string{claims.Role}, object, action)
		if err != nil {
			logging.Error().Err(err).Msg("Authorization error")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		RecordDecision(claims.Role, object, action, allowed, time.Since(start))

		if !allowed {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
