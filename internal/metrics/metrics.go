// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Ingestion run metrics
// - Spotify client requests and rate limiting
// - Archive uploads
// - Event publishing (NATS)
// - WebSocket connections

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Ingestion Run Metrics
	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"status"}, // "completed", "aborted"
	)

	IngestTracksProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_tracks_processed_total",
			Help: "Total number of tracks processed during ingestion",
		},
	)

	IngestSnapshotsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_snapshots_created_total",
			Help: "Total number of popularity snapshots written",
		},
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of ingestion errors",
		},
		[]string{"error_type"}, // "spotify_api", "database", "other"
	)

	IngestLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_last_success_timestamp",
			Help: "Unix timestamp of last successful ingestion run",
		},
	)

	IngestBatchFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_flush_duration_seconds",
			Help:    "Duration of batched write flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of tracks per flushed batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// Spotify Client Metrics
	SpotifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_requests_total",
			Help: "Total number of Spotify API requests",
		},
		[]string{"endpoint", "status_code"},
	)

	SpotifyRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotify_request_duration_seconds",
			Help:    "Duration of Spotify API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SpotifyRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotify_rate_limited_total",
			Help: "Total number of 429 responses from the Spotify API",
		},
	)

	SpotifyTokenRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spotify_token_refreshes_total",
			Help: "Total number of OAuth token refreshes",
		},
	)

	// Archive Metrics
	ArchiveUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_uploads_total",
			Help: "Total number of archive uploads",
		},
		[]string{"status"}, // "success", "failure"
	)

	ArchiveUploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archive_upload_duration_seconds",
			Help:    "Duration of archive uploads in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArchiveBytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_bytes_uploaded_total",
			Help: "Total bytes of raw payloads uploaded to the archive",
		},
	)

	// NATS Event Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages successfully processed",
		},
	)

	NATSMessagesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_deduplicated_total",
			Help: "Total number of messages skipped due to deduplication",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordIngestRun records the outcome of a completed or aborted
// ingestion run. A run that returned an error counts as aborted; its
// partial counters are not recorded because nothing was committed.
func RecordIngestRun(duration time.Duration, tracksProcessed, snapshotsCreated, errorCount int, err error) {
	IngestRunDuration.Observe(duration.Seconds())
	if err != nil {
		IngestRunsTotal.WithLabelValues("aborted").Inc()
		IngestErrors.WithLabelValues(categorizeIngestError(err)).Inc()
		return
	}

	IngestRunsTotal.WithLabelValues("completed").Inc()
	IngestTracksProcessed.Add(float64(tracksProcessed))
	IngestSnapshotsCreated.Add(float64(snapshotsCreated))
	if errorCount > 0 {
		IngestErrors.WithLabelValues("spotify_api").Add(float64(errorCount))
	}
	IngestLastSuccess.Set(float64(time.Now().Unix()))
}

// categorizeIngestError maps an error to a metric label.
func categorizeIngestError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "spotify"):
		return "spotify_api"
	case strings.Contains(msg, "database"), strings.Contains(msg, "duckdb"), strings.Contains(msg, "sql"):
		return "database"
	default:
		return "other"
	}
}

// RecordBatchFlush records a batched write flush
func RecordBatchFlush(duration time.Duration, batchSize int) {
	IngestBatchFlushDuration.Observe(duration.Seconds())
	IngestBatchSize.Observe(float64(batchSize))
}

// RecordSpotifyRequest records a Spotify API request metric
func RecordSpotifyRequest(endpoint, statusCode string, duration time.Duration) {
	SpotifyRequestsTotal.WithLabelValues(endpoint, statusCode).Inc()
	SpotifyRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordSpotifyRateLimited records a 429 response
func RecordSpotifyRateLimited() {
	SpotifyRateLimited.Inc()
}

// RecordSpotifyTokenRefresh records an OAuth token refresh
func RecordSpotifyTokenRefresh() {
	SpotifyTokenRefreshes.Inc()
}

// RecordArchiveUpload records an archive upload attempt
func RecordArchiveUpload(duration time.Duration, bytes int64, err error) {
	ArchiveUploadDuration.Observe(duration.Seconds())
	if err != nil {
		ArchiveUploadsTotal.WithLabelValues("failure").Inc()
		return
	}
	ArchiveUploadsTotal.WithLabelValues("success").Inc()
	ArchiveBytesUploaded.Add(float64(bytes))
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSProcessed records a message being successfully processed
func RecordNATSProcessed() {
	NATSMessagesProcessed.Inc()
}

// RecordNATSDeduplicated records a message skipped due to deduplication
func RecordNATSDeduplicated() {
	NATSMessagesDeduplicated.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// RecordNATSProcessingDuration records the duration of message processing
func RecordNATSProcessingDuration(duration time.Duration) {
	NATSProcessingDuration.Observe(duration.Seconds())
}
