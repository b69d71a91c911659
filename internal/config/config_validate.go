// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
// Any error returned here is fatal: the process refuses to start with a
// broken configuration rather than failing later mid-run.
func (c *Config) Validate() error {
	if err := c.validateSpotify(); err != nil {
		return err
	}

	if err := c.validateIngest(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateArchive(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateSpotify validates the Spotify API configuration. Credentials
// are always required: the application has no purpose without them.
func (c *Config) validateSpotify() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID is required")
	}
	if c.Spotify.ClientSecret == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_SECRET is required")
	}
	if containsPlaceholder(c.Spotify.ClientSecret) {
		return fmt.Errorf("SPOTIFY_CLIENT_SECRET contains a placeholder value - set the real client secret")
	}

	if err := validateHTTPURL(c.Spotify.BaseURL, "SPOTIFY_BASE_URL"); err != nil {
		return fmt.Errorf("SPOTIFY_BASE_URL is invalid: %w", err)
	}
	if err := validateTokenURL(c.Spotify.TokenURL); err != nil {
		return fmt.Errorf("SPOTIFY_TOKEN_URL is invalid: %w", err)
	}

	if c.Spotify.Market != "" && len(c.Spotify.Market) != 2 {
		return fmt.Errorf("SPOTIFY_MARKET must be a two-letter ISO 3166-1 country code, got: %s", c.Spotify.Market)
	}

	return c.validateSpotifyLimits()
}

// Spotify client limit constants
const (
	spotifyMaxRetries = 10
	spotifyMinTimeout = time.Second
	spotifyMaxTimeout = 5 * time.Minute
	spotifyMaxRPS     = 100
)

// validateSpotifyLimits validates request tuning bounds.
func (c *Config) validateSpotifyLimits() error {
	if c.Spotify.Timeout < spotifyMinTimeout || c.Spotify.Timeout > spotifyMaxTimeout {
		return fmt.Errorf("SPOTIFY_TIMEOUT must be between %v and %v", spotifyMinTimeout, spotifyMaxTimeout)
	}
	if c.Spotify.MaxRetries < 0 || c.Spotify.MaxRetries > spotifyMaxRetries {
		return fmt.Errorf("SPOTIFY_MAX_RETRIES must be between 0 and %d", spotifyMaxRetries)
	}
	if c.Spotify.RateLimitRPS <= 0 || c.Spotify.RateLimitRPS > spotifyMaxRPS {
		return fmt.Errorf("SPOTIFY_RATE_LIMIT_RPS must be between 0 and %d (exclusive of 0)", spotifyMaxRPS)
	}
	return nil
}

// Ingest limit constants. The release limit upper bound matches the
// Spotify new-releases endpoint maximum page size.
const (
	ingestMaxReleaseLimit = 50
	ingestMaxBatchSize    = 10000
	ingestMinInterval     = time.Minute
)

// validateIngest validates ingestion run bounds.
func (c *Config) validateIngest() error {
	if c.Ingest.ReleaseLimit < 1 || c.Ingest.ReleaseLimit > ingestMaxReleaseLimit {
		return fmt.Errorf("INGEST_RELEASE_LIMIT must be between 1 and %d", ingestMaxReleaseLimit)
	}
	if c.Ingest.BatchSize < 1 || c.Ingest.BatchSize > ingestMaxBatchSize {
		return fmt.Errorf("INGEST_BATCH_SIZE must be between 1 and %d", ingestMaxBatchSize)
	}
	if c.Ingest.Interval < ingestMinInterval {
		return fmt.Errorf("INGEST_INTERVAL must be at least %v", ingestMinInterval)
	}
	return nil
}

// validateServer validates HTTP server configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("HTTP_TIMEOUT must be at least 1s")
	}
	return c.validateAPI()
}

// validateAPI validates pagination limits.
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be >= API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

// validSecurityAuthModes defines the allowed authentication modes.
var validSecurityAuthModes = map[string]bool{
	"none":  true,
	"jwt":   true,
	"basic": true,
}

// validateSecurity validates authentication and rate limit settings.
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateAuthModeConfig(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateAuthMode checks the auth mode is valid and appropriate for
// the environment. AUTH_MODE=none is refused in production to prevent
// accidental deployment of an unauthenticated instance.
func (c *Config) validateAuthMode() error {
	if !validSecurityAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt, basic")
	}

	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production. " +
			"Either set AUTH_MODE to jwt or basic, " +
			"or use ENVIRONMENT=development for testing purposes")
	}

	return nil
}

// validateAuthModeConfig validates mode-specific requirements.
func (c *Config) validateAuthModeConfig() error {
	switch c.Security.AuthMode {
	case "jwt":
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
		return c.validateAdminCredentials("jwt")
	case "basic":
		return c.validateAdminCredentials("basic")
	}
	return nil
}

// validateJWTSecret validates the JWT signing secret.
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateAdminCredentials validates admin username and password.
func (c *Config) validateAdminCredentials(authMode string) error {
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE is %s", authMode)
	}
	if c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when AUTH_MODE is %s", authMode)
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a secure password")
	}
	if len(c.Security.AdminPassword) < 12 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 12 characters")
	}
	return nil
}

// validateCORS rejects wildcard CORS in production with authentication
// enabled. Wildcard origins plus credentials let any site use stolen
// tokens against the API.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.com " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != "none" && c.hasWildcardCORS()
}

// hasWildcardCORS checks if CORS is configured with wildcard origins.
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory    = 64 * 1024 * 1024  // 64MB
	natsMinStore     = 100 * 1024 * 1024 // 100MB
	natsMinRetention = 1
	natsMaxRetention = 365
)

// validDedupStores defines the allowed dedup backends.
var validDedupStores = map[string]bool{
	"memory": true,
	"badger": true,
}

// validateNATS validates NATS configuration (only if enabled).
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
	}
	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
	}
	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between 1 and 365")
	}
	if !validDedupStores[c.NATS.DedupStore] {
		return fmt.Errorf("NATS_DEDUP_STORE must be one of: memory, badger")
	}
	if c.NATS.DedupStore == "badger" && c.NATS.DedupStorePath == "" {
		return fmt.Errorf("NATS_DEDUP_STORE_PATH is required when NATS_DEDUP_STORE=badger")
	}
	return nil
}

// validateArchive validates archive configuration (only if enabled).
func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}

	if c.Archive.Bucket == "" {
		return fmt.Errorf("ARCHIVE_BUCKET is required when ARCHIVE_ENABLED=true")
	}
	if err := validateBucketName(c.Archive.Bucket); err != nil {
		return fmt.Errorf("ARCHIVE_BUCKET is invalid: %w", err)
	}
	if c.Archive.UploadTimeout < time.Second {
		return fmt.Errorf("ARCHIVE_UPLOAD_TIMEOUT must be at least 1s")
	}
	return nil
}

// IsProduction returns true if the application is running in production
// mode, as set by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in
// development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// validLogLevels defines the allowed log levels.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats.
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

// containsPlaceholder checks if a value looks like an unset template
// placeholder. Prevents accidental deployment with example credentials.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
