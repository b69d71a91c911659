// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trackscope/config.yaml",
	"/etc/trackscope/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			ClientID:     "",
			ClientSecret: "",
			BaseURL:      "https://api.spotify.com/v1",
			TokenURL:     "https://accounts.spotify.com/api/token",
			Market:       "",
			Timeout:      30 * time.Second,
			MaxRetries:   5,
			RetryDelay:   time.Second,
			RateLimitRPS: 10,
		},
		Database: DatabaseConfig{
			Path:                   "/data/trackscope.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Ingest: IngestConfig{
			Interval:     6 * time.Hour,
			ReleaseLimit: 20,
			BatchSize:    50,
			OnStartup:    true,
		},
		Server: ServerConfig{
			Port:        4440,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
			Casbin: CasbinConfig{
				ModelPath:   "",
				PolicyPath:  "",
				DefaultRole: "viewer",
			},
		},
		NATS: NATSConfig{
			Enabled:             false, // Event publishing is opt-in
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamRetentionDays: 7,
			DedupStore:          "memory",
			DedupStorePath:      "/data/dedup",
			DedupTTL:            10 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled:         false, // Raw payload archival is opt-in
			Bucket:          "",
			Prefix:          "archive",
			CredentialsFile: "",
			UploadTimeout:   2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered
// sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if it exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. The result is validated before
// being returned, so a non-nil Config is always usable.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// Transform env var names to koanf paths:
	// SPOTIFY_CLIENT_ID -> spotify.client_id
	// INGEST_BATCH_SIZE -> ingest.batch_size
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when they arrive as env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as strings but the config
// expects slices; YAML values are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unmapped variables return an empty string and are skipped, so
// unrelated environment noise never pollutes the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Spotify mappings
		"spotify_client_id":      "spotify.client_id",
		"spotify_client_secret":  "spotify.client_secret",
		"spotify_base_url":       "spotify.base_url",
		"spotify_token_url":      "spotify.token_url",
		"spotify_market":         "spotify.market",
		"spotify_timeout":        "spotify.timeout",
		"spotify_max_retries":    "spotify.max_retries",
		"spotify_retry_delay":    "spotify.retry_delay",
		"spotify_rate_limit_rps": "spotify.rate_limit_rps",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Ingest mappings
		"ingest_interval":      "ingest.interval",
		"ingest_release_limit": "ingest.release_limit",
		"ingest_batch_size":    "ingest.batch_size",
		"ingest_on_startup":    "ingest.on_startup",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		// Security mappings
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"trusted_proxies":     "security.trusted_proxies",

		// Casbin mappings
		"casbin_model_path":   "security.casbin.model_path",
		"casbin_policy_path":  "security.casbin.policy_path",
		"casbin_default_role": "security.casbin.default_role",

		// NATS mappings
		"nats_enabled":          "nats.enabled",
		"nats_url":              "nats.url",
		"nats_embedded":         "nats.embedded_server",
		"nats_store_dir":        "nats.store_dir",
		"nats_max_memory":       "nats.max_memory",
		"nats_max_store":        "nats.max_store",
		"nats_retention_days":   "nats.stream_retention_days",
		"nats_dedup_store":      "nats.dedup_store",
		"nats_dedup_store_path": "nats.dedup_store_path",
		"nats_dedup_ttl":        "nats.dedup_ttl",

		// Archive mappings
		"archive_enabled":          "archive.enabled",
		"archive_bucket":           "archive.bucket",
		"archive_prefix":           "archive.prefix",
		"archive_credentials_file": "archive.credentials_file",
		"archive_upload_timeout":   "archive.upload_timeout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability. The
// caller is responsible for mutex protection when swapping configuration
// during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
