// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and an optional YAML config file.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config file: optional YAML file (config.yaml) for persistent settings
//  3. Environment variables: override any setting
//
// Configuration categories:
//
//  1. Data source:
//     - Spotify: Web API credentials and request tuning
//
//  2. Infrastructure:
//     - Database: DuckDB configuration (path, memory, threads)
//     - Ingest: periodic catalog ingestion settings
//     - Server: HTTP server configuration
//     - NATS: event publishing with NATS JetStream (optional)
//     - Archive: raw payload archival to object storage (optional)
//
//  3. API & Security:
//     - API: pagination and response limits
//     - Security: authentication, rate limiting, CORS
//
//  4. Observability:
//     - Logging: log level and output format
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	db, err := database.New(cfg.Database)
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Database DatabaseConfig `koanf:"database"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	NATS     NATSConfig     `koanf:"nats"`     // Optional: event publishing via NATS JetStream
	Archive  ArchiveConfig  `koanf:"archive"`  // Optional: raw payload archival to GCS
	Logging  LoggingConfig  `koanf:"logging"`
}

// SpotifyConfig holds Spotify Web API connection settings. Client
// credentials are the only required configuration in the whole
// application: without them the ingestion pipeline cannot fetch
// anything, so Load fails fast when they are missing.
//
// Environment variables:
//   - SPOTIFY_CLIENT_ID: OAuth client ID from the Spotify developer dashboard
//   - SPOTIFY_CLIENT_SECRET: OAuth client secret
//   - SPOTIFY_BASE_URL: API base URL (default: https://api.spotify.com/v1)
//   - SPOTIFY_TOKEN_URL: token endpoint (default: https://accounts.spotify.com/api/token)
//   - SPOTIFY_MARKET: optional ISO 3166-1 alpha-2 market filter (e.g. US, DE)
//   - SPOTIFY_TIMEOUT: per-request timeout (default: 30s)
//   - SPOTIFY_MAX_RETRIES: retry attempts on 429 responses (default: 5)
//   - SPOTIFY_RETRY_DELAY: base delay for retry backoff (default: 1s)
//   - SPOTIFY_RATE_LIMIT_RPS: client-side request rate cap (default: 10)
type SpotifyConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	BaseURL      string        `koanf:"base_url"`
	TokenURL     string        `koanf:"token_url"`
	Market       string        `koanf:"market"`         // Optional market filter for new releases
	Timeout      time.Duration `koanf:"timeout"`        // Per-request timeout
	MaxRetries   int           `koanf:"max_retries"`    // Retries on 429 before giving up
	RetryDelay   time.Duration `koanf:"retry_delay"`    // Base delay, doubles per attempt
	RateLimitRPS float64       `koanf:"rate_limit_rps"` // Client-side requests per second
}

// DatabaseConfig holds DuckDB settings.
//
// Environment variables:
//   - DUCKDB_PATH: database file path (default: /data/trackscope.duckdb)
//   - DUCKDB_MAX_MEMORY: memory limit passed to DuckDB (default: 2GB)
//   - DUCKDB_THREADS: worker threads, 0 = NumCPU (default: 0)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
}

// IngestConfig holds periodic ingestion settings. ReleaseLimit and
// BatchSize bound a single run: the pipeline fetches at most
// ReleaseLimit albums per run and flushes buffered writes every
// BatchSize tracks.
//
// Environment variables:
//   - INGEST_INTERVAL: time between runs (default: 6h)
//   - INGEST_RELEASE_LIMIT: albums fetched per run, 1-50 (default: 20)
//   - INGEST_BATCH_SIZE: tracks per flush, 1-10000 (default: 50)
//   - INGEST_ON_STARTUP: run an ingestion immediately at boot (default: true)
type IngestConfig struct {
	Interval     time.Duration `koanf:"interval"`
	ReleaseLimit int           `koanf:"release_limit"`
	BatchSize    int           `koanf:"batch_size"`
	OnStartup    bool          `koanf:"on_startup"`
}

// ServerConfig holds HTTP server settings.
//
// Environment variables:
//   - HTTP_PORT: listen port (default: 4440)
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
//   - ENVIRONMENT: "development" or "production" (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// APIConfig holds pagination limits for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// AuthMode selects the authentication scheme:
//   - "none": no authentication (development only, rejected in production)
//   - "jwt": JWT bearer tokens issued by POST /api/v1/auth/login
//   - "basic": HTTP Basic authentication against the admin credentials
//
// Environment variables:
//   - AUTH_MODE: none, jwt, or basic (default: jwt)
//   - JWT_SECRET: HMAC signing secret, 32+ characters (required for jwt)
//   - SESSION_TIMEOUT: token lifetime (default: 24h)
//   - ADMIN_USERNAME / ADMIN_PASSWORD: admin credentials
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: request budget per client IP
//   - DISABLE_RATE_LIMIT: turn rate limiting off entirely
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
//   - TRUSTED_PROXIES: comma-separated CIDRs allowed to set X-Forwarded-For
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds role-based authorization settings. The model and
// policy are embedded in the binary; file paths override them for
// custom deployments.
type CasbinConfig struct {
	ModelPath   string `koanf:"model_path"`   // Optional: override the embedded RBAC model
	PolicyPath  string `koanf:"policy_path"`  // Optional: override the embedded policy
	DefaultRole string `koanf:"default_role"` // Role assigned to authenticated non-admin users
}

// NATSConfig holds event publishing settings. Disabled by default:
// ingestion works fully without a broker, events are an opt-in layer
// for downstream consumers.
//
// Environment variables:
//   - NATS_ENABLED: enable event publishing (default: false)
//   - NATS_URL: broker URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: run an in-process JetStream server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory
//   - NATS_MAX_MEMORY / NATS_MAX_STORE: JetStream storage limits
//   - NATS_RETENTION_DAYS: stream retention (default: 7)
//   - NATS_DEDUP_STORE: consumer dedup backend, "memory" or "badger"
//   - NATS_DEDUP_STORE_PATH: Badger directory when NATS_DEDUP_STORE=badger
//   - NATS_DEDUP_TTL: how long processed event IDs are remembered
type NATSConfig struct {
	Enabled             bool          `koanf:"enabled"`
	URL                 string        `koanf:"url"`
	EmbeddedServer      bool          `koanf:"embedded_server"`
	StoreDir            string        `koanf:"store_dir"`
	MaxMemory           int64         `koanf:"max_memory"`
	MaxStore            int64         `koanf:"max_store"`
	StreamRetentionDays int           `koanf:"stream_retention_days"`
	DedupStore          string        `koanf:"dedup_store"`
	DedupStorePath      string        `koanf:"dedup_store_path"`
	DedupTTL            time.Duration `koanf:"dedup_ttl"`
}

// ArchiveConfig holds raw payload archival settings. When enabled, the
// unmodified new-releases API responses are written to a GCS bucket
// after each run. Archival failures are logged and counted in metrics
// but never fail an ingestion run.
//
// Environment variables:
//   - ARCHIVE_ENABLED: enable archival (default: false)
//   - ARCHIVE_BUCKET: GCS bucket name (required when enabled)
//   - ARCHIVE_PREFIX: object key prefix (default: archive)
//   - ARCHIVE_CREDENTIALS_FILE: service account JSON path (default: ADC)
//   - ARCHIVE_UPLOAD_TIMEOUT: per-upload timeout (default: 2m)
type ArchiveConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Bucket          string        `koanf:"bucket"`
	Prefix          string        `koanf:"prefix"`
	CredentialsFile string        `koanf:"credentials_file"`
	UploadTimeout   time.Duration `koanf:"upload_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads configuration from defaults, an optional config file, and
// environment variables, then validates it. This is the single entry
// point used by cmd/server.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
