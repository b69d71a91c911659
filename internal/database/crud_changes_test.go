// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/trackscope/internal/models"
)

func testChange(trackID string, previous, current int, changedAt time.Time) models.PopularityChange {
	change := models.PopularityChange{
		TrackID:   trackID,
		TrackName: "Track " + trackID,
		Delta:     current - previous,
		RunID:     uuid.NewString(),
		ChangedAt: changedAt,
	}
	if previous >= 0 {
		change.Previous = intPtr(previous)
	}
	if current >= 0 {
		change.Current = intPtr(current)
	}
	return change
}

func TestInsertPopularityChangesBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	batch := []models.PopularityChange{
		testChange("c1", 10, 20, testTime(-2*time.Hour)),
		testChange("c2", 30, 15, testTime(-1*time.Hour)),
	}
	checkNoError(t, db.InsertPopularityChanges(ctx, batch))

	changes, err := db.GetPopularityChanges(ctx, 10, 0)
	checkNoError(t, err)
	checkSliceLen(t, "changes", len(changes), 2)

	// Newest first
	checkStringEqual(t, "changes[0].TrackID", changes[0].TrackID, "c2")
	checkPopularityEqual(t, "changes[0].Previous", changes[0].Previous, 30)
	checkPopularityEqual(t, "changes[0].Current", changes[0].Current, 15)
	checkIntEqual(t, "changes[0].Delta", changes[0].Delta, -15)
	checkStringEqual(t, "changes[1].TrackID", changes[1].TrackID, "c1")
}

func TestInsertPopularityChangesEmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	checkNoError(t, db.InsertPopularityChanges(context.Background(), nil))

	count, err := db.CountPopularityChanges(context.Background())
	checkNoError(t, err)
	checkInt64Equal(t, "count", count, 0)
}

func TestPopularityChangeNilValuesRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	// First observation (nil previous) and withdrawn score (nil current)
	batch := []models.PopularityChange{
		testChange("first", -1, 40, testTime(-time.Hour)),
		testChange("gone", 40, -1, testTime(0)),
	}
	checkNoError(t, db.InsertPopularityChanges(ctx, batch))

	changes, err := db.GetPopularityChanges(ctx, 10, 0)
	checkNoError(t, err)
	checkSliceLen(t, "changes", len(changes), 2)

	checkStringEqual(t, "changes[0].TrackID", changes[0].TrackID, "gone")
	checkPopularityEqual(t, "changes[0].Previous", changes[0].Previous, 40)
	checkPopularityEqual(t, "changes[0].Current", changes[0].Current, -1)

	checkStringEqual(t, "changes[1].TrackID", changes[1].TrackID, "first")
	checkPopularityEqual(t, "changes[1].Previous", changes[1].Previous, -1)
	checkPopularityEqual(t, "changes[1].Current", changes[1].Current, 40)
}

func TestGetPopularityChangesPagination(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	var batch []models.PopularityChange
	for i := 0; i < 5; i++ {
		batch = append(batch, testChange("p", i*10, i*10+5, testTime(time.Duration(-i)*time.Hour)))
	}
	checkNoError(t, db.InsertPopularityChanges(ctx, batch))

	page, err := db.GetPopularityChanges(ctx, 2, 0)
	checkNoError(t, err)
	checkSliceLen(t, "first page", len(page), 2)

	page, err = db.GetPopularityChanges(ctx, 2, 4)
	checkNoError(t, err)
	checkSliceLen(t, "last page", len(page), 1)

	count, err := db.CountPopularityChanges(ctx)
	checkNoError(t, err)
	checkInt64Equal(t, "count", count, 5)
}

func TestChangesFromScopeRoundTripThroughFeed(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	// The events consumer path: detect during a run, persist after commit
	seedTracks(t, db, testTrack("feed", "Feed Track", 10, testTime(-time.Hour)))

	scope, err := db.BeginIngestion(ctx)
	checkNoError(t, err)
	checkNoError(t, scope.UpsertTrack(ctx, testTrack("feed", "Feed Track", 60, testTime(0))))
	checkNoError(t, scope.Close(nil))

	checkNoError(t, db.InsertPopularityChanges(ctx, scope.Changes()))

	changes, err := db.GetPopularityChanges(ctx, 10, 0)
	checkNoError(t, err)
	checkSliceLen(t, "changes", len(changes), 1)
	checkStringEqual(t, "TrackID", changes[0].TrackID, "feed")
	checkPopularityEqual(t, "Previous", changes[0].Previous, 10)
	checkPopularityEqual(t, "Current", changes[0].Current, 60)
	checkIntEqual(t, "Delta", changes[0].Delta, 50)
	checkStringEqual(t, "RunID", changes[0].RunID, scope.RunID().String())
}
