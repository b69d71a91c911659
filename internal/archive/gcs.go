// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/goccy/go-json"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

const (
	defaultUploadTimeout = 2 * time.Minute
	readTimeout          = 30 * time.Second
)

// GCSStore archives payloads to a Google Cloud Storage bucket.
type GCSStore struct {
	client        *storage.Client
	bucket        string
	uploadTimeout time.Duration
}

// NewGCSStore creates the GCS-backed archive sink. The bucket must
// already exist; credentials come from the configured service-account
// file or, when unset, from application default credentials.
func NewGCSStore(ctx context.Context, cfg *config.ArchiveConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive enabled but no bucket configured")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}

	logging.Info().
		Str("bucket", cfg.Bucket).
		Str("prefix", cfg.Prefix).
		Dur("upload_timeout", uploadTimeout).
		Msg("Archive sink initialized")

	return &GCSStore{
		client:        client,
		bucket:        cfg.Bucket,
		uploadTimeout: uploadTimeout,
	}, nil
}

// Put marshals doc and uploads it under key with a bounded timeout.
// Upload outcomes are recorded as metrics here so callers only need to
// log failures.
func (s *GCSStore) Put(ctx context.Context, key string, doc any) error {
	start := time.Now()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		metrics.RecordArchiveUpload(time.Since(start), 0, err)
		return fmt.Errorf("failed to marshal archive document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		metrics.RecordArchiveUpload(time.Since(start), 0, err)
		return fmt.Errorf("failed to write archive object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		metrics.RecordArchiveUpload(time.Since(start), 0, err)
		return fmt.Errorf("failed to close archive writer for %q: %w", key, err)
	}

	metrics.RecordArchiveUpload(time.Since(start), int64(len(data)), nil)
	logging.Debug().Str("key", key).Int("bytes", len(data)).Msg("Archived payload")
	return nil
}

// Get downloads the object stored under key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open archive reader for %q: %w", key, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive object %q: %w", key, err)
	}
	return data, nil
}

// List returns metadata for every object under prefix.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]models.ArchiveObject, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	objects := []models.ArchiveObject{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list archive objects under %q: %w", prefix, err)
		}
		objects = append(objects, models.ArchiveObject{
			Key:       attrs.Name,
			Size:      attrs.Size,
			UpdatedAt: attrs.Updated,
		})
	}
	return objects, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
