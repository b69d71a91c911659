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

func testResult(startedAt time.Time, processed, snapshots, errs int) *models.IngestionResult {
	return &models.IngestionResult{
		RunID:            uuid.New(),
		TracksProcessed:  processed,
		SnapshotsCreated: snapshots,
		Errors:           errs,
		StartedAt:        startedAt,
		Duration:         1500 * time.Millisecond,
	}
}

func TestRecordIngestionRunRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	result := testResult(testTime(0), 18, 18, 2)
	checkNoError(t, db.RecordIngestionRun(ctx, result))

	runs, err := db.GetIngestionRuns(ctx, 10)
	checkNoError(t, err)
	checkSliceLen(t, "runs", len(runs), 1)

	run := runs[0]
	checkStringEqual(t, "RunID", run.RunID, result.RunID.String())
	checkIntEqual(t, "TracksProcessed", run.TracksProcessed, 18)
	checkIntEqual(t, "SnapshotsCreated", run.SnapshotsCreated, 18)
	checkIntEqual(t, "Errors", run.Errors, 2)
	checkInt64Equal(t, "DurationMS", run.DurationMS, 1500)
	if !run.StartedAt.Equal(result.StartedAt) {
		t.Errorf("StartedAt: expected %v, got %v", result.StartedAt, run.StartedAt)
	}
}

func TestRecordIngestionRunNilResult(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	checkError(t, db.RecordIngestionRun(context.Background(), nil))
}

func TestGetIngestionRunsOrderingAndLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	oldest := testResult(testTime(-3*time.Hour), 1, 1, 0)
	middle := testResult(testTime(-2*time.Hour), 2, 2, 0)
	newest := testResult(testTime(-1*time.Hour), 3, 3, 1)
	for _, result := range []*models.IngestionResult{oldest, middle, newest} {
		checkNoError(t, db.RecordIngestionRun(ctx, result))
	}

	runs, err := db.GetIngestionRuns(ctx, 2)
	checkNoError(t, err)
	checkSliceLen(t, "runs", len(runs), 2)
	checkStringEqual(t, "runs[0].RunID", runs[0].RunID, newest.RunID.String())
	checkStringEqual(t, "runs[1].RunID", runs[1].RunID, middle.RunID.String())
}

func TestGetLastIngestionRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	run, err := db.GetLastIngestionRun(ctx)
	checkNoError(t, err)
	if run != nil {
		t.Errorf("expected nil before any run, got %+v", run)
	}

	first := testResult(testTime(-2*time.Hour), 5, 5, 0)
	second := testResult(testTime(-1*time.Hour), 7, 7, 1)
	checkNoError(t, db.RecordIngestionRun(ctx, first))
	checkNoError(t, db.RecordIngestionRun(ctx, second))

	run, err = db.GetLastIngestionRun(ctx)
	checkNoError(t, err)
	if run == nil {
		t.Fatal("expected a run")
	}
	checkStringEqual(t, "RunID", run.RunID, second.RunID.String())
	checkIntEqual(t, "TracksProcessed", run.TracksProcessed, 7)
}
