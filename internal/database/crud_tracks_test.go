// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"testing"
	"time"
)

func TestGetTrackNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	track, err := db.GetTrack(context.Background(), "no-such-track")
	checkNoError(t, err)
	if track != nil {
		t.Errorf("expected nil for missing track, got %+v", track)
	}
}

func TestGetTrackRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	now := testTime(0)

	want := testTrack("round-trip", "Round Trip", 77, now)
	want.Artist = "Some Artist"
	want.Album = "Some Album"
	seedTracks(t, db, want)

	got, err := db.GetTrack(context.Background(), "round-trip")
	checkNoError(t, err)
	if got == nil {
		t.Fatal("expected track")
	}
	checkStringEqual(t, "ID", got.ID, "round-trip")
	checkStringEqual(t, "Name", got.Name, "Round Trip")
	checkStringEqual(t, "Artist", got.Artist, "Some Artist")
	checkStringEqual(t, "Album", got.Album, "Some Album")
	checkPopularityEqual(t, "Popularity", got.Popularity, 77)
	if !got.FirstSeen.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("timestamps: expected %v, got first_seen=%v updated_at=%v", now, got.FirstSeen, got.UpdatedAt)
	}
}

func TestGetTrackNullPopularity(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seedTracks(t, db, testTrack("no-score", "No Score", -1, testTime(0)))

	got, err := db.GetTrack(context.Background(), "no-score")
	checkNoError(t, err)
	if got == nil {
		t.Fatal("expected track")
	}
	checkPopularityEqual(t, "Popularity", got.Popularity, -1)
}

func TestGetTracksPagination(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	// Distinct updated_at values give a deterministic recency order
	seedTracks(t, db,
		testTrack("page-1", "Oldest", 10, testTime(-3*time.Hour)),
		testTrack("page-2", "Middle", 20, testTime(-2*time.Hour)),
		testTrack("page-3", "Newest", 30, testTime(-1*time.Hour)),
	)

	page, err := db.GetTracks(ctx, 2, 0)
	checkNoError(t, err)
	checkSliceLen(t, "first page", len(page), 2)
	checkStringEqual(t, "page[0].ID", page[0].ID, "page-3")
	checkStringEqual(t, "page[1].ID", page[1].ID, "page-2")

	page, err = db.GetTracks(ctx, 2, 2)
	checkNoError(t, err)
	checkSliceLen(t, "second page", len(page), 1)
	checkStringEqual(t, "page[0].ID", page[0].ID, "page-1")

	page, err = db.GetTracks(ctx, 10, 10)
	checkNoError(t, err)
	checkSliceEmpty(t, "beyond last page", len(page))
}

func TestGetTopTracks(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	now := testTime(0)

	seedTracks(t, db,
		testTrack("top-low", "Low", 5, now),
		testTrack("top-high", "High", 95, now),
		testTrack("top-mid", "Mid", 50, now),
		testTrack("top-none", "Unscored", -1, now),
	)

	top, err := db.GetTopTracks(context.Background(), 2)
	checkNoError(t, err)
	checkSliceLen(t, "top", len(top), 2)
	checkStringEqual(t, "top[0].ID", top[0].ID, "top-high")
	checkStringEqual(t, "top[1].ID", top[1].ID, "top-mid")

	// Unscored tracks never appear, even with room to spare
	top, err = db.GetTopTracks(context.Background(), 10)
	checkNoError(t, err)
	checkSliceLen(t, "top all", len(top), 3)
	for _, track := range top {
		if track.Popularity == nil {
			t.Errorf("track %s has nil popularity in top list", track.ID)
		}
	}
}

func TestCountTracks(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	count, err := db.CountTracks(ctx)
	checkNoError(t, err)
	checkInt64Equal(t, "empty count", count, 0)

	seedTracks(t, db,
		testTrack("count-1", "One", 10, testTime(0)),
		testTrack("count-2", "Two", 20, testTime(0)),
	)

	count, err = db.CountTracks(ctx)
	checkNoError(t, err)
	checkInt64Equal(t, "seeded count", count, 2)
}
