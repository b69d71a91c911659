// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
client.go - Core Spotify Web API Client

This file provides the SpotifyClient struct and HTTP communication layer for
the Spotify-compatible catalog API.

Client Features:
  - OAuth2 client-credentials token flow with cached, auto-refreshing tokens
  - HTTP client with configurable timeout
  - Client-side request rate limiting (golang.org/x/time/rate)
  - Automatic HTTP 429 handling with exponential backoff
  - JSON response parsing via goccy/go-json
  - Context support for cancellation and timeouts

Resilience Mechanisms:
  - Rate Limiting: Exponential backoff (1s, 2s, 4s, 8s, 16s) on HTTP 429,
    honoring Retry-After when the server sends one
  - Retries: Max 5 attempts for rate-limited requests; no retries otherwise
  - Token Refresh: Tokens are refreshed 30 seconds before expiry
  - Context: All methods accept context for cancellation

The Client interface deliberately exposes single-page operations only:
NewReleases and AlbumTracks fetch exactly one page and ignore pagination
cursors. Bounding every run to one release page is a product decision, not
an omission.

Related Files:
  - models.go: Wire types for albums, tracks, and response envelopes
  - errors.go: RequestError and classification helpers
  - circuit_breaker.go: Circuit-breaker decorator around this client
*/

//nolint:staticcheck // File documentation, not package doc
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
)

// maxErrorBodySize limits the maximum amount of response body read for error reporting
// This prevents unbounded memory allocation when reading large error responses
const maxErrorBodySize = 64 * 1024 // 64KB

// maxPageLimit is the largest page size the catalog API accepts
const maxPageLimit = 50

// tokenRefreshMargin refreshes tokens slightly before they expire so an
// in-flight request never carries a token that dies mid-request
const tokenRefreshMargin = 30 * time.Second

// readBodyForError reads the response body for error reporting (max 64KB)
// Returns the body content or a placeholder message if reading fails
// Uses io.LimitReader to prevent unbounded memory allocation
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// Client defines the catalog operations the ingestion pipeline and the API
// layer depend on.
//
// Implemented by SpotifyClient for production and by fakes in tests; the
// CircuitBreakerClient decorator implements it too, so callers never know
// whether they hold the raw client or the protected one.
//
// All methods are safe for concurrent use and return *RequestError on
// failure.
type Client interface {
	// Ping verifies connectivity and credentials with a minimal request
	Ping(ctx context.Context) error

	// NewReleases fetches one page of the newest releases, at most limit
	// albums (capped at 50 by the API)
	NewReleases(ctx context.Context, limit int) ([]Album, error)

	// AlbumTracks fetches one page of the album's track listing
	AlbumTracks(ctx context.Context, albumID string) ([]TrackRef, error)

	// Track fetches the full detail of one track, including popularity
	Track(ctx context.Context, trackID string) (*TrackDetail, error)

	// Search finds tracks matching the query
	Search(ctx context.Context, query string, limit int) ([]TrackDetail, error)
}

// SpotifyClient handles communication with the Spotify Web API.
//
// Authentication uses the client-credentials flow: the first request fetches
// a bearer token from the accounts service, and the token is cached under a
// mutex until shortly before expiry. No user-scoped endpoints are used, so
// no refresh token is involved - an expired token is simply replaced by a
// new grant.
//
// Thread Safety: Safe for concurrent use. Each request creates its own HTTP
// request; the token cache is mutex-guarded.
type SpotifyClient struct {
	cfg        *config.SpotifyConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyClient creates a catalog client from the configuration.
// The configuration is assumed validated: credentials present, URLs
// well-formed, rate limit positive.
func NewSpotifyClient(cfg *config.SpotifyConfig) *SpotifyClient {
	return &SpotifyClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
	}
}

// token returns a valid bearer token, fetching a new one when the cached
// token is missing or within the refresh margin of expiry.
func (c *SpotifyClient) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenRefreshMargin)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &RequestError{Op: "token", Err: err}
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RequestError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return "", &RequestError{
			Op:         "token",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("token request rejected: %s", body),
		}
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", &RequestError{Op: "token", Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if token.AccessToken == "" {
		return "", &RequestError{Op: "token", Err: fmt.Errorf("token response missing access_token")}
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	metrics.RecordSpotifyTokenRefresh()

	logging.Debug().
		Int("expires_in", token.ExpiresIn).
		Msg("Catalog API token refreshed")

	return c.accessToken, nil
}

// doGet performs an authenticated GET with rate limiting and HTTP 429
// backoff, decoding the JSON response into result.
//
// Backoff behavior on 429: delays of retryDelay*2^attempt (1s, 2s, 4s, 8s,
// 16s with the defaults), overridden by a parseable Retry-After header,
// up to MaxRetries attempts. Other non-2xx statuses fail immediately.
func (c *SpotifyClient) doGet(ctx context.Context, op, id, path string, params url.Values, result interface{}) error {
	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return &RequestError{Op: op, ID: id, Err: err}
		}

		// Client-side pacing applies to every attempt, retries included
		if err := c.limiter.Wait(ctx); err != nil {
			return &RequestError{Op: op, ID: id, Err: err}
		}

		bearer, err := c.token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return &RequestError{Op: op, ID: id, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+bearer)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordSpotifyRequest(op, "transport_error", time.Since(start))
			return &RequestError{Op: op, ID: id, Err: err}
		}

		metrics.RecordSpotifyRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))

		if resp.StatusCode == http.StatusOK {
			err := json.NewDecoder(resp.Body).Decode(result)
			closeBody(resp)
			if err != nil {
				return &RequestError{Op: op, ID: id, Err: fmt.Errorf("failed to decode response: %w", err)}
			}
			return nil
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			body := readBodyForError(resp.Body)
			closeBody(resp)
			return &RequestError{
				Op:         op,
				ID:         id,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("unexpected status: %s", body),
			}
		}

		// Rate limited (HTTP 429) - compute backoff before retrying
		metrics.RecordSpotifyRateLimited()

		if attempt == c.cfg.MaxRetries {
			closeBody(resp)
			lastErr = &RequestError{
				Op:         op,
				ID:         id,
				StatusCode: http.StatusTooManyRequests,
				Err:        fmt.Errorf("rate limit exceeded after %d retries", c.cfg.MaxRetries),
			}
			break
		}

		delay := c.cfg.RetryDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}
		closeBody(resp)

		logging.Warn().
			Str("operation", op).
			Dur("retry_delay", delay).
			Int("attempt", attempt+1).
			Int("max_retries", c.cfg.MaxRetries).
			Msg("Catalog API rate limited (HTTP 429), retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return &RequestError{Op: op, ID: id, Err: ctx.Err()}
		}
	}

	return lastErr
}

// closeBody drains and closes a response body so the connection can be reused
func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	_ = resp.Body.Close()
}

// Ping verifies connectivity and credentials with a one-album request
func (c *SpotifyClient) Ping(ctx context.Context) error {
	_, err := c.NewReleases(ctx, 1)
	return err
}

// NewReleases fetches one page of the newest releases.
//
// Exactly one request is made regardless of how many releases exist; the
// response's pagination cursor is intentionally ignored, so limit (capped at
// the API's page maximum of 50) bounds the whole ingestion run.
func (c *SpotifyClient) NewReleases(ctx context.Context, limit int) ([]Album, error) {
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if c.cfg.Market != "" {
		params.Set("country", c.cfg.Market)
	}

	var result newReleasesResponse
	if err := c.doGet(ctx, "new_releases", "", "/browse/new-releases", params, &result); err != nil {
		return nil, err
	}

	return result.Albums.Items, nil
}

// AlbumTracks fetches one page of the album's track listing (up to 50
// tracks; further pages are ignored by the same single-page rule as
// NewReleases).
func (c *SpotifyClient) AlbumTracks(ctx context.Context, albumID string) ([]TrackRef, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(maxPageLimit))
	if c.cfg.Market != "" {
		params.Set("market", c.cfg.Market)
	}

	var result albumTracksResponse
	if err := c.doGet(ctx, "album_tracks", albumID, "/albums/"+url.PathEscape(albumID)+"/tracks", params, &result); err != nil {
		return nil, err
	}

	return result.Items, nil
}

// Track fetches the full detail of one track, including its popularity score
func (c *SpotifyClient) Track(ctx context.Context, trackID string) (*TrackDetail, error) {
	params := url.Values{}
	if c.cfg.Market != "" {
		params.Set("market", c.cfg.Market)
	}

	var result TrackDetail
	if err := c.doGet(ctx, "track", trackID, "/tracks/"+url.PathEscape(trackID), params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Search finds tracks matching the query
func (c *SpotifyClient) Search(ctx context.Context, query string, limit int) ([]TrackDetail, error) {
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	if c.cfg.Market != "" {
		params.Set("market", c.cfg.Market)
	}

	var result searchResponse
	if err := c.doGet(ctx, "search", "", "/search", params, &result); err != nil {
		return nil, err
	}

	return result.Tracks.Items, nil
}
