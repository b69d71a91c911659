// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build integration

package testinfra

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// SpotifyCapture records one request received by the mock server.
type SpotifyCapture struct {
	Method string
	Path   string
	Query  url.Values
	Auth   string
}

// mockAlbum mirrors the album object of the new-releases listing.
type mockAlbum struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Artists     []mockArtist `json:"artists"`
	ReleaseDate string       `json:"release_date"`
	TotalTracks int          `json:"total_tracks"`
}

type mockArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mockAlbumRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// mockTrackRef mirrors a track as listed on an album (no popularity).
type mockTrackRef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Artists     []mockArtist `json:"artists"`
	TrackNumber int          `json:"track_number"`
	DurationMS  int          `json:"duration_ms"`
}

// mockTrack mirrors the full track object, including popularity.
type mockTrack struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Artists    []mockArtist `json:"artists"`
	Album      mockAlbumRef `json:"album"`
	Popularity *int         `json:"popularity,omitempty"`
	DurationMS int          `json:"duration_ms"`
	Explicit   bool         `json:"explicit"`
}

// MockSpotifyServer is an httptest-based stand-in for the Spotify Web
// API. It serves the client-credentials token endpoint and the catalog
// endpoints the ingest pipeline uses, with a seedable catalog, request
// capture, and failure injection.
//
// The zero catalog is valid: new-releases returns an empty listing and
// unknown album or track IDs return 404, matching the real API.
type MockSpotifyServer struct {
	Server *httptest.Server

	mu          sync.Mutex
	captures    []SpotifyCapture
	albums      []mockAlbum
	albumTracks map[string][]mockTrackRef
	tracks      map[string]mockTrack
	tokenCount  int
	failCount   int
	rateLimit   int // Retry-After seconds for the next request, -1 when off
}

// NewMockSpotifyServer creates and starts a mock Spotify API server.
// The server is not closed automatically; call Close from the test.
func NewMockSpotifyServer(t *testing.T) *MockSpotifyServer {
	t.Helper()

	m := &MockSpotifyServer{
		albumTracks: make(map[string][]mockTrackRef),
		tracks:      make(map[string]mockTrack),
		rateLimit:   -1,
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// TokenURL returns the URL of the token endpoint, for SpotifyConfig.TokenURL.
func (m *MockSpotifyServer) TokenURL() string {
	return m.Server.URL + "/api/token"
}

// BaseURL returns the API base URL, for SpotifyConfig.BaseURL.
func (m *MockSpotifyServer) BaseURL() string {
	return m.Server.URL + "/v1"
}

// Close shuts down the server.
func (m *MockSpotifyServer) Close() {
	m.Server.Close()
}

// AddAlbum seeds an album into the new-releases listing.
func (m *MockSpotifyServer) AddAlbum(id, name, artist, releaseDate string, totalTracks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.albums = append(m.albums, mockAlbum{
		ID:          id,
		Name:        name,
		Artists:     []mockArtist{{ID: "artist-" + id, Name: artist}},
		ReleaseDate: releaseDate,
		TotalTracks: totalTracks,
	})
}

// AddTrack seeds a track onto an album and registers its full detail.
// A negative popularity omits the field from the track object, which
// the real API does for some tracks.
func (m *MockSpotifyServer) AddTrack(albumID, trackID, name, artist string, popularity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	artists := []mockArtist{{ID: "artist-" + trackID, Name: artist}}
	m.albumTracks[albumID] = append(m.albumTracks[albumID], mockTrackRef{
		ID:          trackID,
		Name:        name,
		Artists:     artists,
		TrackNumber: len(m.albumTracks[albumID]) + 1,
		DurationMS:  210000,
	})

	track := mockTrack{
		ID:         trackID,
		Name:       name,
		Artists:    artists,
		Album:      mockAlbumRef{ID: albumID, Name: "Album " + albumID},
		DurationMS: 210000,
	}
	if popularity >= 0 {
		p := popularity
		track.Popularity = &p
	}
	m.tracks[trackID] = track
}

// SetTrackPopularity changes a seeded track's popularity, for testing
// change detection across ingestion runs.
func (m *MockSpotifyServer) SetTrackPopularity(trackID string, popularity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, ok := m.tracks[trackID]
	if !ok {
		return
	}
	p := popularity
	track.Popularity = &p
	m.tracks[trackID] = track
}

// FailRequests makes the next n catalog requests return HTTP 500.
// Token requests are unaffected.
func (m *MockSpotifyServer) FailRequests(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCount = n
}

// RateLimitNext makes the next catalog request return HTTP 429 with the
// given Retry-After value, then clears.
func (m *MockSpotifyServer) RateLimitNext(retryAfterSeconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimit = retryAfterSeconds
}

// Captures returns all captured requests.
func (m *MockSpotifyServer) Captures() []SpotifyCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]SpotifyCapture, len(m.captures))
	copy(result, m.captures)
	return result
}

// ClearCaptures clears all captured requests.
func (m *MockSpotifyServer) ClearCaptures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = nil
}

// TokenRequests returns how many token grants were issued.
func (m *MockSpotifyServer) TokenRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCount
}

func (m *MockSpotifyServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.captures = append(m.captures, SpotifyCapture{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Auth:   r.Header.Get("Authorization"),
	})
	m.mu.Unlock()

	if r.URL.Path == "/api/token" {
		m.handleToken(w, r)
		return
	}

	// Catalog endpoints require a bearer token issued by this server
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer mock-token-") {
		writeJSONError(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	// Injected failures apply to catalog requests only
	m.mu.Lock()
	if m.rateLimit >= 0 {
		retryAfter := m.rateLimit
		m.rateLimit = -1
		m.mu.Unlock()
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	if m.failCount > 0 {
		m.failCount--
		m.mu.Unlock()
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	m.mu.Unlock()

	switch {
	case r.URL.Path == "/v1/browse/new-releases":
		m.handleNewReleases(w, r)
	case strings.HasPrefix(r.URL.Path, "/v1/albums/") && strings.HasSuffix(r.URL.Path, "/tracks"):
		albumID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/albums/"), "/tracks")
		m.handleAlbumTracks(w, albumID)
	case strings.HasPrefix(r.URL.Path, "/v1/tracks/"):
		trackID := strings.TrimPrefix(r.URL.Path, "/v1/tracks/")
		m.handleTrack(w, trackID)
	case r.URL.Path == "/v1/search":
		m.handleSearch(w, r)
	default:
		writeJSONError(w, http.StatusNotFound, "service not found")
	}
}

func (m *MockSpotifyServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, _, ok := r.BasicAuth(); !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid client")
		return
	}

	m.mu.Lock()
	m.tokenCount++
	token := fmt.Sprintf("mock-token-%d", m.tokenCount)
	m.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (m *MockSpotifyServer) handleNewReleases(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	albums := make([]mockAlbum, len(m.albums))
	copy(albums, m.albums)
	m.mu.Unlock()

	limit := len(albums)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < limit {
			limit = n
		}
	}

	writeJSON(w, map[string]interface{}{
		"albums": map[string]interface{}{
			"items": albums[:limit],
			"total": len(albums),
		},
	})
}

func (m *MockSpotifyServer) handleAlbumTracks(w http.ResponseWriter, albumID string) {
	m.mu.Lock()
	refs, ok := m.albumTracks[albumID]
	tracks := make([]mockTrackRef, len(refs))
	copy(tracks, refs)
	m.mu.Unlock()

	if !ok {
		writeJSONError(w, http.StatusNotFound, "non existing id")
		return
	}

	writeJSON(w, map[string]interface{}{
		"items": tracks,
		"total": len(tracks),
	})
}

func (m *MockSpotifyServer) handleTrack(w http.ResponseWriter, trackID string) {
	m.mu.Lock()
	track, ok := m.tracks[trackID]
	m.mu.Unlock()

	if !ok {
		writeJSONError(w, http.StatusNotFound, "non existing id")
		return
	}

	writeJSON(w, track)
}

func (m *MockSpotifyServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))

	m.mu.Lock()
	var matches []mockTrack
	for _, track := range m.tracks {
		if query != "" && strings.Contains(strings.ToLower(track.Name), query) {
			matches = append(matches, track)
		}
	}
	m.mu.Unlock()

	if matches == nil {
		matches = []mockTrack{}
	}

	writeJSON(w, map[string]interface{}{
		"tracks": map[string]interface{}{
			"items": matches,
			"total": len(matches),
		},
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
