// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package authz provides authorization functionality using Casbin.
//
// This package implements Role-Based Access Control (RBAC) for the Trackscope
// API, enforcing access policies on endpoints using the Casbin authorization
// library. It supports role inheritance, path-based permissions, decision
// caching, and automatic policy reload from file.
//
// # Architecture
//
//	Request -> Auth Middleware -> Authz Middleware -> Handler
//	               |                    |
//	          Authenticate         Authorize (Casbin)
//	           (internal/auth)      (this package)
//
// Authentication establishes who the caller is (claims with a username and
// role); authorization decides what that role may do.
//
// # RBAC Model
//
// The package uses Casbin's ACL model with role inheritance:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
//
// # Policy Definition
//
// Policies are defined in CSV format:
//
//	# Role permissions
//	p, admin, /*, *
//	p, viewer, /api/v1/*, read
//
//	# Role assignments
//	g, alice, admin
//
// The embedded default policy grants admins everything and viewers
// read-only access to the API.
//
// # Usage Example
//
// Creating an enforcer:
//
//	cfg := authz.DefaultEnforcerConfig()
//	enforcer, err := authz.NewEnforcer(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer enforcer.Close()
//
//	// Check permission
//	allowed, err := enforcer.Enforce("alice", "/api/v1/ingest", "write")
//
// Using middleware:
//
//	middleware := authz.NewMiddleware(enforcer)
//
//	// Dynamic authorization based on request path and method
//	http.HandleFunc("/api/v1/",
//	    middleware.AuthorizeRequest(apiHandler))
//
// # HTTP Method Mapping
//
// The AuthorizeRequest middleware maps HTTP methods to actions:
//   - GET, HEAD, OPTIONS -> "read"
//   - POST, PUT, PATCH -> "write"
//   - DELETE -> "delete"
//
// # Caching
//
// The enforcer includes an enforcement decision cache:
//   - Cache key: (subject, object, action) tuple
//   - Automatic invalidation on policy/role changes
//   - Configurable TTL with periodic cleanup
//
// # Thread Safety
//
// All components are safe for concurrent use:
//   - Casbin SyncedEnforcer provides built-in synchronization
//   - Cache uses sync.RWMutex for concurrent access
//   - Policy auto-reload runs in a separate goroutine
package authz
