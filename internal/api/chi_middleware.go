// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/trackscope/internal/logging"
)

// ChiMiddlewareConfig configures the production middleware stack.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// RateLimitKeyFunc determines the rate limit key (default: by IP)
	RateLimitKeyFunc httprate.KeyFunc

	// RateLimitOnLimit is called when rate limit is exceeded
	RateLimitOnLimit http.HandlerFunc
}

// DefaultChiMiddlewareConfig returns production-ready defaults.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{}, // Empty = same-origin only; requires explicit configuration
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSExposedHeaders:   []string{},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400, // 24 hours
		RateLimitRequests:    100,
		RateLimitWindow:      time.Minute,
		RateLimitDisabled:    false,
	}
}

// ChiMiddleware provides production-hardened middleware using Chi ecosystem.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates middleware from config.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   config.CORSExposedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsMiddleware,
	}
}

// CORS returns the battle-tested go-chi/cors middleware.
// Replaces hand-rolled CORS with proper preflight handling,
// Vary headers, and origin validation.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns production-grade rate limiting middleware.
// Uses httprate's sliding window algorithm (more accurate than token bucket).
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		// No-op middleware when disabled
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	keyFunc := m.config.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	options := []httprate.Option{
		httprate.WithKeyFuncs(keyFunc),
	}

	if m.config.RateLimitOnLimit != nil {
		options = append(options, httprate.WithLimitHandler(m.config.RateLimitOnLimit))
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		options...,
	)
}

// RateLimitByIP returns rate limiting keyed by IP address.
func (m *ChiMiddleware) RateLimitByIP() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(m.config.RateLimitRequests, m.config.RateLimitWindow)
}

// RateLimitByRealIP returns rate limiting keyed by real IP
// (respects X-Forwarded-For when behind a trusted proxy).
func (m *ChiMiddleware) RateLimitByRealIP() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByRealIP(m.config.RateLimitRequests, m.config.RateLimitWindow)
}

// RequestIDWithLogging returns Chi's RequestID middleware enhanced with
// our logging context integration.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Chain Chi's RequestID with our logging context
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract or generate request ID
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}

			// Add to response headers
			w.Header().Set("X-Request-ID", requestID)

			// Add to logging context
			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithNewCorrelationID(ctx)

			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewChiMiddlewareFromAuth creates ChiMiddleware from existing auth config.
// This bridges the existing auth.Middleware configuration to Chi middleware.
func NewChiMiddlewareFromAuth(corsOrigins []string, rateLimitReqs int, rateLimitWindow time.Duration, rateLimitDisabled bool) *ChiMiddleware {
	config := DefaultChiMiddlewareConfig()
	config.CORSAllowedOrigins = corsOrigins
	config.RateLimitRequests = rateLimitReqs
	config.RateLimitWindow = rateLimitWindow
	config.RateLimitDisabled = rateLimitDisabled

	return NewChiMiddleware(config)
}

// RateLimitConfig holds per-endpoint-type rate limit settings.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Per-endpoint-type rate limit presets. Tighter budgets on auth and
// write endpoints, generous ones on cheap read paths.
var (
	// RateLimitAuth is for authentication endpoints (brute force prevention)
	RateLimitAuth = RateLimitConfig{Requests: 5, Window: time.Minute}

	// RateLimitLogin is specifically for login attempts
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitIngest is for manual ingestion triggers (resource intensive)
	RateLimitIngest = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitArchive is for archive access (object store round trips)
	RateLimitArchive = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitWebSocket is for WebSocket upgrade requests
	RateLimitWebSocket = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitAPI is the standard API rate limit
	RateLimitAPI = RateLimitConfig{Requests: 100, Window: time.Minute}
)

// RateLimitHealth is permissive for health check endpoints (monitoring)
var RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}

// RateLimitCustom returns rate limiting with custom configuration.
func (m *ChiMiddleware) RateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(config.Requests, config.Window)
}

// RateLimitAuth returns strict rate limiting for auth endpoints.
func (m *ChiMiddleware) RateLimitAuth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitAuth)
}

// RateLimitLogin returns the strictest rate limiting for login.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitLogin)
}

// RateLimitIngest returns rate limiting for ingestion trigger endpoints.
func (m *ChiMiddleware) RateLimitIngest() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitIngest)
}

// RateLimitArchive returns rate limiting for archive endpoints.
func (m *ChiMiddleware) RateLimitArchive() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitArchive)
}

// RateLimitWebSocket returns rate limiting for WebSocket connections.
func (m *ChiMiddleware) RateLimitWebSocket() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWebSocket)
}

// RateLimitHealth returns permissive rate limiting for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// APISecurityHeaders adds security headers appropriate for JSON API endpoints.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// HSTS only over TLS
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs request completion with method, path, status, and
// duration at debug level. Kept at debug so production logs stay quiet
// unless the level is lowered for diagnosis.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sw, r)

			logging.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.statusCode).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("Request completed")
		})
	}
}

// statusResponseWriter captures the response status code for logging.
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
