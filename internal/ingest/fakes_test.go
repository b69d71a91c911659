// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/trackscope/internal/catalog"
	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/database"
	"github.com/tomtom215/trackscope/internal/models"
)

// Only one test holds an active DuckDB connection at a time. Concurrent
// DuckDB CGO calls can hang under CI resource pressure.
var (
	testDBSemaphore = make(chan struct{}, 1)
	testDBMutex     sync.Mutex
)

// claimDBSlot reserves the single DuckDB slot for the duration of the
// calling test.
func claimDBSlot(t *testing.T) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })
}

// newTestDB opens one in-memory database. Callers must have claimed the
// DB slot; tests needing several independent databases call this more
// than once under a single claim.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBMutex.Lock()
	defer testDBMutex.Unlock()

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}
	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupTestStore claims the DB slot and opens the test database.
func setupTestStore(t *testing.T) *database.DB {
	t.Helper()
	claimDBSlot(t)
	return newTestDB(t)
}

// testIngestConfig returns a config whose ingest settings suit tests:
// the hour-long interval keeps the scheduler quiet unless a test
// overrides it.
func testIngestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Ingest = config.IngestConfig{
		Interval:     time.Hour,
		ReleaseLimit: 20,
		BatchSize:    50,
		OnStartup:    false,
	}
	return cfg
}

// seedOneTrack commits a single unrelated track so manager tests start
// from a populated catalog (which suppresses the startup ingest).
func seedOneTrack(t *testing.T, db *database.DB) {
	t.Helper()

	ctx := context.Background()
	scope, err := db.BeginIngestion(ctx)
	if err != nil {
		t.Fatalf("failed to begin seed scope: %v", err)
	}

	pop := 5
	now := time.Now().UTC().Truncate(time.Microsecond)
	track := &models.Track{
		ID:         "seed-1",
		Name:       "Seed Track",
		Artist:     "Seeder",
		Album:      "Seed Album",
		Popularity: &pop,
		FirstSeen:  now,
		UpdatedAt:  now,
	}
	if err := scope.UpsertTrack(ctx, track); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}
	if err := scope.Close(nil); err != nil {
		t.Fatalf("failed to commit seed: %v", err)
	}
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeCatalog is an in-memory catalog.Client with programmable
// failures. Safe for concurrent use.
type fakeCatalog struct {
	mu               sync.Mutex
	albums           []catalog.Album
	tracksByAlbum    map[string][]catalog.TrackRef
	details          map[string]*catalog.TrackDetail
	releasesErr      error
	albumErrs        map[string]error
	trackErrs        map[string]error
	releasesCalls    int
	lastReleaseLimit int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracksByAlbum: make(map[string][]catalog.TrackRef),
		details:       make(map[string]*catalog.TrackDetail),
		albumErrs:     make(map[string]error),
		trackErrs:     make(map[string]error),
	}
}

// addTrack registers a track under an album, creating the album on
// first use. popularity < 0 means the catalog reports none.
func (f *fakeCatalog) addTrack(albumID, albumName, trackID, trackName, artist string, popularity int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	known := false
	for _, a := range f.albums {
		if a.ID == albumID {
			known = true
			break
		}
	}
	if !known {
		f.albums = append(f.albums, catalog.Album{ID: albumID, Name: albumName})
	}

	f.tracksByAlbum[albumID] = append(f.tracksByAlbum[albumID], catalog.TrackRef{ID: trackID, Name: trackName})

	detail := &catalog.TrackDetail{
		ID:      trackID,
		Name:    trackName,
		Artists: []catalog.Artist{{ID: artist + "-id", Name: artist}},
		Album:   catalog.AlbumRef{ID: albumID, Name: albumName},
	}
	if popularity >= 0 {
		p := popularity
		detail.Popularity = &p
	}
	f.details[trackID] = detail
}

func (f *fakeCatalog) newReleasesCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releasesCalls
}

func (f *fakeCatalog) Ping(_ context.Context) error { return nil }

func (f *fakeCatalog) NewReleases(_ context.Context, limit int) ([]catalog.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releasesCalls++
	f.lastReleaseLimit = limit
	if f.releasesErr != nil {
		return nil, f.releasesErr
	}

	n := limit
	if n > len(f.albums) {
		n = len(f.albums)
	}
	out := make([]catalog.Album, n)
	copy(out, f.albums[:n])
	return out, nil
}

func (f *fakeCatalog) AlbumTracks(_ context.Context, albumID string) ([]catalog.TrackRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.albumErrs[albumID]; err != nil {
		return nil, err
	}
	return f.tracksByAlbum[albumID], nil
}

func (f *fakeCatalog) Track(_ context.Context, trackID string) (*catalog.TrackDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.trackErrs[trackID]; err != nil {
		return nil, err
	}
	detail, ok := f.details[trackID]
	if !ok {
		return nil, &catalog.RequestError{Op: "track", ID: trackID, StatusCode: 404}
	}
	return detail, nil
}

func (f *fakeCatalog) Search(_ context.Context, _ string, _ int) ([]catalog.TrackDetail, error) {
	return nil, nil
}

// catalogWithThreeTracks builds the canonical fixture: album A with two
// tracks (popularity 10 and 20), album B with one (popularity 30).
func catalogWithThreeTracks() *fakeCatalog {
	f := newFakeCatalog()
	f.addTrack("album-a", "Album A", "track-1", "Track One", "Artist A", 10)
	f.addTrack("album-a", "Album A", "track-2", "Track Two", "Artist A", 20)
	f.addTrack("album-b", "Album B", "track-3", "Track Three", "Artist B", 30)
	return f
}

// blockingCatalog parks the first NewReleases call until released,
// letting tests observe an in-flight run.
type blockingCatalog struct {
	*fakeCatalog
	enteredOnce sync.Once
	entered     chan struct{}
	release     chan struct{}
}

func newBlockingCatalog(inner *fakeCatalog) *blockingCatalog {
	return &blockingCatalog{
		fakeCatalog: inner,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (b *blockingCatalog) NewReleases(ctx context.Context, limit int) ([]catalog.Album, error) {
	b.enteredOnce.Do(func() { close(b.entered) })
	<-b.release
	return b.fakeCatalog.NewReleases(ctx, limit)
}

// fakePublisher records published changes, or fails every publish when
// err is set.
type fakePublisher struct {
	mu      sync.Mutex
	changes []models.PopularityChange
	err     error
}

func (f *fakePublisher) PublishPopularityChange(_ context.Context, change *models.PopularityChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, *change)
	return nil
}

func (f *fakePublisher) published() []models.PopularityChange {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.PopularityChange, len(f.changes))
	copy(out, f.changes)
	return out
}

// fakeHub records WebSocket broadcasts.
type fakeHub struct {
	mu       sync.Mutex
	messages []hubMessage
}

type hubMessage struct {
	messageType string
	data        interface{}
}

func (h *fakeHub) BroadcastJSON(messageType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, hubMessage{messageType: messageType, data: data})
}

func (h *fakeHub) broadcasts() []hubMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]hubMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// failingArchive fails every upload.
type failingArchive struct {
	err error
}

func (f *failingArchive) Put(_ context.Context, _ string, _ any) error { return f.err }
func (f *failingArchive) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, f.err
}
func (f *failingArchive) List(_ context.Context, _ string) ([]models.ArchiveObject, error) {
	return nil, f.err
}
func (f *failingArchive) Close() error { return nil }

// closedScopeStore hands the pipeline a scope that was already closed,
// so the first buffered write fails the way a persistence error does.
type closedScopeStore struct {
	*database.DB
}

func (s closedScopeStore) BeginIngestion(ctx context.Context) (*database.IngestionScope, error) {
	scope, err := s.DB.BeginIngestion(ctx)
	if err != nil {
		return nil, err
	}
	if err := scope.Close(nil); err != nil {
		return nil, err
	}
	return scope, nil
}

// countFailStore fails CountTracks, for the startup-decision error path.
type countFailStore struct {
	*database.DB
	err error
}

func (s countFailStore) CountTracks(_ context.Context) (int64, error) {
	return 0, s.err
}
