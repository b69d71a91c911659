// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackscope/internal/models"
)

// MemStore is an in-memory Store used by tests and local development.
// Documents are marshaled exactly as GCSStore marshals them so reads
// return identical bytes regardless of the backing implementation.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	updated map[string]time.Time
}

// NewMemStore creates an empty in-memory archive.
func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		updated: make(map[string]time.Time),
	}
}

// Put stores doc as indented JSON under key.
func (s *MemStore) Put(_ context.Context, key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.updated[key] = time.Now().UTC()
	return nil
}

// Get returns the bytes stored under key, or ErrNotFound.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// List returns metadata for every stored object under prefix, ordered
// by key.
func (s *MemStore) List(_ context.Context, prefix string) ([]models.ArchiveObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := []models.ArchiveObject{}
	for key, data := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, models.ArchiveObject{
			Key:       key,
			Size:      int64(len(data)),
			UpdatedAt: s.updated[key],
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}

// Len reports the number of stored objects. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
