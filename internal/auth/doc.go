// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package auth provides authentication for the Trackscope HTTP API.
//
// Three modes are supported, selected by AUTH_MODE:
//
//   - none: every request passes through unauthenticated (development only;
//     refused in production by config validation)
//   - jwt: stateless HS256 tokens issued by POST /api/v1/auth/login and
//     carried in the Authorization header or the "token" cookie
//   - basic: HTTP Basic Authentication against the configured admin
//     credential, verified with bcrypt
//
// The Middleware type wraps http.HandlerFunc handlers and, on success, stores
// a *Claims value in the request context under ClaimsContextKey for the
// authorization layer to consume.
package auth
