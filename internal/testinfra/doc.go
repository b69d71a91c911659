// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package testinfra provides shared infrastructure for integration tests.
//
// Two kinds of infrastructure live here, both behind the integration
// build tag:
//
//   - Docker containers managed through testcontainers-go, currently an
//     external NATS server with JetStream for testing the event pipeline
//     against a real broker instead of the embedded server.
//
//   - A mock Spotify Web API server (httptest-based) that speaks the
//     token and catalog endpoints the ingest pipeline uses, with request
//     capture and failure injection for exercising retry paths.
//
// # NATS Container
//
// The NATSContainer provides a real nats-server for pipeline tests:
//
//	func TestEventPipeline(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    nats, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer nats.Terminate(ctx)
//
//	    nc, err := natsgo.Connect(nats.ClientURL())
//	    // ...
//	}
//
// # Mock Spotify Server
//
// The MockSpotifyServer avoids hitting the real Spotify API in tests
// while validating the exact request shapes the client sends:
//
//	spotify := testinfra.NewMockSpotifyServer(t)
//	defer spotify.Close()
//
//	spotify.AddAlbum("album-1", "Album One", "Artist", "2026-08-01", 2)
//	spotify.AddTrack("album-1", "track-1", "Track One", "Artist", 55)
//
//	cfg := &config.SpotifyConfig{
//	    BaseURL:  spotify.BaseURL(),
//	    TokenURL: spotify.TokenURL(),
//	    ...
//	}
//
// # CI Considerations
//
// Container tests require Docker and network access. They are skipped
// gracefully when Docker is unavailable, and the first run may need to
// download images; subsequent runs use the cache.
package testinfra
