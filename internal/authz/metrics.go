// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package authz

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisionsTotal counts authorization decisions by role, resource, action, and outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "resource_pattern", "action", "decision"},
	)

	// AuthzDecisionDuration tracks the latency of authorization decisions.
	AuthzDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "authz_decision_duration_seconds",
			Help: "Duration of authorization decisions in seconds",
			// Buckets optimized for authz checks (microseconds to milliseconds)
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"role"},
	)

	// AuthzDeniedTotal specifically tracks denied requests for alerting.
	AuthzDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_denied_total",
			Help: "Total number of authorization denials (for alerting)",
		},
		[]string{"role", "resource_pattern", "action"},
	)

	// AuthzCacheHitsTotal counts cache hits for authorization decisions.
	AuthzCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_hits_total",
			Help: "Total number of authorization cache hits",
		},
	)

	// AuthzCacheMissesTotal counts cache misses for authorization decisions.
	AuthzCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_misses_total",
			Help: "Total number of authorization cache misses",
		},
	)

	// AuthzCacheEvictionsTotal counts cache evictions.
	AuthzCacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_evictions_total",
			Help: "Total number of authorization cache evictions (TTL expiry)",
		},
	)

	// AuthzPolicyEvaluationsTotal counts policy evaluations by the Casbin enforcer.
	AuthzPolicyEvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_policy_evaluations_total",
			Help: "Total number of Casbin policy evaluations",
		},
	)

	// AuthzErrorsTotal counts authorization errors (not denials, but actual errors).
	AuthzErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_errors_total",
			Help: "Total number of authorization errors",
		},
		[]string{"error_type"},
	)
)

// RecordDecision records an authorization decision metric.
// Parameters:
//   - role: The effective role used for the decision (e.g., "admin", "viewer")
//   - resource: The resource path (will be normalized to pattern)
//   - action: The action (e.g., "read", "write", "delete")
//   - allowed: Whether the request was allowed
//   - duration: How long the authorization check took
func RecordDecision(role, resource, action string, allowed bool, duration time.Duration) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}

	// Normalize resource to a pattern for cardinality control
	resourcePattern := normalizeResourcePattern(resource)

	AuthzDecisionsTotal.WithLabelValues(role, resourcePattern, action, decision).Inc()
	AuthzDecisionDuration.WithLabelValues(role).Observe(duration.Seconds())

	// Record denials separately for alerting
	if !allowed {
		AuthzDeniedTotal.WithLabelValues(role, resourcePattern, action).Inc()
	}
}

// normalizeResourcePattern converts specific resource paths to patterns
// to prevent high cardinality in metrics.
// Examples:
//
//	/api/v1/tracks/4iV5W9uYEdYUVa79Axb7Rh -> /api/v1/tracks/*
//	/api/v1/tracks/4iV5W9uYEdYUVa79Axb7Rh/snapshots -> /api/v1/tracks/*/snapshots
//
// Base62 Spotify IDs and numeric row IDs both contain digits; short
// segments such as "v1" are preserved to keep the route shape.
func normalizeResourcePattern(resource string) string {
	segments := strings.Split(resource, "/")
	for i, seg := range segments {
		if len(seg) > 2 && segmentContainsDigit(seg) {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

func segmentContainsDigit(seg string) bool {
	for i := 0; i < len(seg); i++ {
		if seg[i] >= '0' && seg[i] <= '9' {
			return true
		}
	}
	return false
}

// RecordCacheHit records a cache hit.
func RecordCacheHit() {
	AuthzCacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() {
	AuthzCacheMissesTotal.Inc()
}

// RecordCacheEvictions records cache evictions from TTL cleanup.
func RecordCacheEvictions(count int) {
	AuthzCacheEvictionsTotal.Add(float64(count))
}

// RecordPolicyEvaluation records a Casbin policy evaluation.
func RecordPolicyEvaluation() {
	AuthzPolicyEvaluationsTotal.Inc()
}

// RecordEnforcementError records an authorization error.
func RecordEnforcementError(errorType string) {
	AuthzErrorsTotal.WithLabelValues(errorType).Inc()
}
