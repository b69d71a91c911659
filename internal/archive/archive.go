// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package archive persists raw catalog API payloads to an object store,
// one document per ingestion run. The sink is supplemental: ingestion
// never fails because an upload failed, and nothing on the read path
// depends on archived documents existing.
//
// Two implementations are provided: GCSStore over Google Cloud Storage
// for production, and MemStore for tests and local development.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/tomtom215/trackscope/internal/models"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("archive: object not found")

// Store is the archival sink for raw API payloads.
type Store interface {
	// Put marshals doc as indented JSON and writes it under key,
	// overwriting any existing object.
	Put(ctx context.Context, key string, doc any) error

	// Get returns the raw bytes stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns metadata for every object whose key starts with
	// prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]models.ArchiveObject, error)

	// Close releases the underlying client.
	Close() error
}

// RunKey builds the object key for one ingestion run's raw
// new-releases payload: <prefix>/new-releases/<RFC3339-ts>-<runID>.json.
func RunKey(prefix string, startedAt time.Time, runID string) string {
	name := fmt.Sprintf("%s-%s.json", startedAt.UTC().Format(time.RFC3339), runID)
	return path.Join(prefix, "new-releases", name)
}
