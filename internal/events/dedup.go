// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// This file implements processed-event tracking for the change consumer.
// JetStream's duplicate window drops republishes at the broker, but a
// consumer crash between insert and ack causes a redelivery that arrives
// like any other message. The tracker remembers processed event IDs past
// that horizon so a redelivered event is acked without a second insert.
//
// Two backends:
//   - Memory: per-process map, lost on restart. Fine for tests and for
//     deployments where the stream's duplicate window covers restarts.
//   - Badger: persistent with native TTL expiry, survives restarts.

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trackscope/internal/logging"
)

// Dedup store kinds accepted by NewDedupTracker. These match the
// nats.dedup_store configuration values.
const (
	// DedupStoreMemory keeps processed IDs in an in-process map.
	DedupStoreMemory = "memory"
	// DedupStoreBadger persists processed IDs in a BadgerDB directory.
	DedupStoreBadger = "badger"
)

// Dedup-related errors.
var (
	// ErrDuplicateEvent indicates the event was already processed.
	ErrDuplicateEvent = errors.New("event already processed")

	// ErrDedupClosed indicates the tracker has been closed.
	ErrDedupClosed = errors.New("dedup tracker is closed")
)

// DedupEntry represents a processed-event record.
type DedupEntry struct {
	// EventID is the unique event identifier.
	EventID string `json:"event_id"`

	// TrackID is the affected track, kept for debugging.
	TrackID string `json:"track_id,omitempty"`

	// RunID is the ingestion run that produced the event.
	RunID string `json:"run_id,omitempty"`

	// FirstSeen is when this event was first processed.
	FirstSeen time.Time `json:"first_seen"`

	// ExpiresAt is when this entry expires (after which a redelivery
	// would be reprocessed; keep TTL above the redelivery horizon).
	ExpiresAt time.Time `json:"expires_at"`
}

// DedupTracker defines the interface for processed-event stores.
type DedupTracker interface {
	// CheckAndStore atomically checks if an event was processed and
	// records it if not. Returns ErrDuplicateEvent when the event was
	// already recorded and has not expired.
	CheckAndStore(ctx context.Context, entry *DedupEntry, ttl time.Duration) error

	// IsSeen checks if an event was processed without recording it.
	IsSeen(ctx context.Context, eventID string) (bool, error)

	// CleanupExpired removes all expired entries.
	// Returns the number of entries removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Size returns the approximate number of entries in the store.
	Size(ctx context.Context) (int, error)

	// Close closes the tracker and releases resources.
	Close() error
}

// NewDedupTracker creates a tracker for the configured backend. For the
// badger kind it opens (or creates) a BadgerDB at path; the returned
// tracker owns that database and closes it on Close.
func NewDedupTracker(kind, path string) (DedupTracker, error) {
	switch kind {
	case DedupStoreMemory, "":
		return NewMemoryDedupTracker(), nil
	case DedupStoreBadger:
		opts := badger.DefaultOptions(path)
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for dedup: %w", err)
		}

		tracker := NewBadgerDedupTracker(db, "")
		tracker.ownsDB = true
		return tracker, nil
	default:
		return nil, fmt.Errorf("unknown dedup store %q (valid: memory, badger)", kind)
	}
}

// MemoryDedupTracker is an in-memory tracker for tests and single-run
// deployments. Entries are lost on restart.
type MemoryDedupTracker struct {
	mu      sync.RWMutex
	entries map[string]*DedupEntry
	closed  bool
}

// NewMemoryDedupTracker creates a new in-memory tracker.
func NewMemoryDedupTracker() *MemoryDedupTracker {
	return &MemoryDedupTracker{
		entries: make(map[string]*DedupEntry),
	}
}

// CheckAndStore atomically checks and records an event.
func (t *MemoryDedupTracker) CheckAndStore(ctx context.Context, entry *DedupEntry, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrDedupClosed
	}

	if existing, ok := t.entries[entry.EventID]; ok {
		if time.Now().Before(existing.ExpiresAt) {
			return ErrDuplicateEvent
		}
		// Entry expired, can reuse
	}

	entry.FirstSeen = time.Now()
	entry.ExpiresAt = time.Now().Add(ttl)
	t.entries[entry.EventID] = entry

	return nil
}

// IsSeen checks if an event was processed.
func (t *MemoryDedupTracker) IsSeen(ctx context.Context, eventID string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return false, ErrDedupClosed
	}

	entry, ok := t.entries[eventID]
	if !ok {
		return false, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		return false, nil
	}

	return true, nil
}

// CleanupExpired removes expired entries.
func (t *MemoryDedupTracker) CleanupExpired(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrDedupClosed
	}

	count := 0
	now := time.Now()
	for id, entry := range t.entries {
		if now.After(entry.ExpiresAt) {
			delete(t.entries, id)
			count++
		}
	}

	return count, nil
}

// Size returns the number of entries.
func (t *MemoryDedupTracker) Size(ctx context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, ErrDedupClosed
	}

	return len(t.entries), nil
}

// Close closes the tracker.
func (t *MemoryDedupTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.entries = nil
	return nil
}

// BadgerDedupTracker is a BadgerDB-backed tracker for production use.
// Entries carry a native Badger TTL, so expiry also happens during
// compaction without a scan.
type BadgerDedupTracker struct {
	db     *badger.DB
	prefix []byte
	ownsDB bool
	closed bool
	mu     sync.RWMutex
}

// NewBadgerDedupTracker creates a BadgerDB-backed tracker over an
// existing database. Close leaves the database open; use NewDedupTracker
// when the tracker should own it.
//
// Parameters:
//   - db: BadgerDB instance
//   - prefix: key prefix for dedup entries (default: "dedup:")
func NewBadgerDedupTracker(db *badger.DB, prefix string) *BadgerDedupTracker {
	if prefix == "" {
		prefix = "dedup:"
	}
	return &BadgerDedupTracker{
		db:     db,
		prefix: []byte(prefix),
	}
}

// makeKey creates a BadgerDB key for an event ID.
func (t *BadgerDedupTracker) makeKey(eventID string) []byte {
	return append(t.prefix, []byte(eventID)...)
}

// CheckAndStore atomically checks and records an event.
func (t *BadgerDedupTracker) CheckAndStore(ctx context.Context, entry *DedupEntry, ttl time.Duration) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return ErrDedupClosed
	}
	t.mu.RUnlock()

	key := t.makeKey(entry.EventID)

	err := t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			var existing DedupEntry
			if valErr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); valErr == nil {
				if time.Now().Before(existing.ExpiresAt) {
					logging.Debug().
						Str("event_id", entry.EventID).
						Str("track_id", entry.TrackID).
						Time("first_seen", existing.FirstSeen).
						Msg("Duplicate event detected")
					return ErrDuplicateEvent
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry.FirstSeen = time.Now()
		entry.ExpiresAt = time.Now().Add(ttl)

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		e := badger.NewEntry(key, data).WithTTL(ttl)
		return txn.SetEntry(e)
	})

	return err
}

// IsSeen checks if an event was processed.
func (t *BadgerDedupTracker) IsSeen(ctx context.Context, eventID string) (bool, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return false, ErrDedupClosed
	}
	t.mu.RUnlock()

	key := t.makeKey(eventID)
	var seen bool

	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			seen = false
			return nil
		}
		if err != nil {
			return err
		}

		var entry DedupEntry
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			seen = time.Now().Before(entry.ExpiresAt)
			return nil
		})
	})

	return seen, err
}

// CleanupExpired removes expired entries.
// Badger expires TTL entries during compaction on its own; this forces
// the sweep so Size reflects reality between compactions.
func (t *BadgerDedupTracker) CleanupExpired(ctx context.Context) (int, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return 0, ErrDedupClosed
	}
	t.mu.RUnlock()

	count := 0
	now := time.Now()

	err := t.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = t.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry DedupEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}

			if now.After(entry.ExpiresAt) {
				key := make([]byte, len(item.Key()))
				copy(key, item.Key())
				keysToDelete = append(keysToDelete, key)
			}
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}

		return nil
	})

	if err != nil {
		return count, err
	}

	return count, nil
}

// Size returns the approximate number of entries.
func (t *BadgerDedupTracker) Size(ctx context.Context) (int, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return 0, ErrDedupClosed
	}
	t.mu.RUnlock()

	count := 0
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = t.prefix
		opts.PrefetchValues = false // We only need to count keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// Close closes the tracker, and the database when the tracker opened it.
func (t *BadgerDedupTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.ownsDB {
		return t.db.Close()
	}
	return nil
}
