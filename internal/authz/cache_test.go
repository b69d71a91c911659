// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package authz

import (
	"testing"
	"time"
)

func TestNewEnforcementCache(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	if cache == nil {
		t.Fatal("newEnforcementCache() returned nil")
	}
	defer cache.stop()

	if cache.ttl != 5*time.Minute {
		t.Errorf("cache.ttl = %v, want 5m", cache.ttl)
	}
}

func TestNewEnforcementCache_ZeroTTL(t *testing.T) {
	// Zero TTL should use default
	cache := newEnforcementCache(0)
	if cache == nil {
		t.Fatal("newEnforcementCache() returned nil")
	}
	defer cache.stop()

	if cache.ttl != 5*time.Minute {
		t.Errorf("cache.ttl = %v, want 5m (default)", cache.ttl)
	}
}

func TestNewEnforcementCache_NegativeTTL(t *testing.T) {
	// Negative TTL should use default
	cache := newEnforcementCache(-1 * time.Second)
	if cache == nil {
		t.Fatal("newEnforcementCache() returned nil")
	}
	defer cache.stop()

	if cache.ttl != 5*time.Minute {
		t.Errorf("cache.ttl = %v, want 5m (default)", cache.ttl)
	}
}

func TestEnforcementCache_Key(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	key := cache.key("user1", "/api/v1/tracks", "read")
	expected := "user1:/api/v1/tracks:read"

	if key != expected {
		t.Errorf("key() = %q, want %q", key, expected)
	}
}

func TestEnforcementCache_SetAndGet(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	// Set a value
	cache.set("user1", "/api/v1/tracks", "read", true)

	// Get it back
	allowed, found := cache.get("user1", "/api/v1/tracks", "read")
	if !found {
		t.Error("Expected to find cached value")
	}
	if !allowed {
		t.Error("Expected allowed to be true")
	}

	// Set a denied value
	cache.set("user2", "/api/v1/ingest", "write", false)

	// Get it back
	allowed, found = cache.get("user2", "/api/v1/ingest", "write")
	if !found {
		t.Error("Expected to find cached value")
	}
	if allowed {
		t.Error("Expected allowed to be false")
	}
}

func TestEnforcementCache_Get_NotFound(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	allowed, found := cache.get("nonexistent", "/api/v1/tracks", "read")
	if found {
		t.Error("Expected not to find non-existent key")
	}
	if allowed {
		t.Error("Expected allowed to be false for not found")
	}
}

func TestEnforcementCache_Get_Expired(t *testing.T) {
	// Use a very short TTL
	cache := newEnforcementCache(1 * time.Millisecond)
	defer cache.stop()

	cache.set("user1", "/api/v1/tracks", "read", true)

	// Wait for expiration
	time.Sleep(10 * time.Millisecond)

	// Should not be found (expired)
	_, found := cache.get("user1", "/api/v1/tracks", "read")
	if found {
		t.Error("Expected expired item to not be found")
	}
}

func TestEnforcementCache_InvalidateUser(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	// Set multiple values for the same user
	cache.set("user1", "/api/v1/tracks", "read", true)
	cache.set("user1", "/api/v1/ingest", "write", true)
	cache.set("user2", "/api/v1/tracks", "read", true)

	// Invalidate user1
	cache.invalidateUser("user1")

	// user1's entries should be gone
	_, found := cache.get("user1", "/api/v1/tracks", "read")
	if found {
		t.Error("user1's entry should be invalidated")
	}

	_, found = cache.get("user1", "/api/v1/ingest", "write")
	if found {
		t.Error("user1's other entry should be invalidated")
	}

	// user2's entry should still exist
	_, found = cache.get("user2", "/api/v1/tracks", "read")
	if !found {
		t.Error("user2's entry should not be affected")
	}
}

func TestEnforcementCache_Clear(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	cache.set("user1", "/api/v1/tracks", "read", true)
	cache.set("user2", "/api/v1/changes", "read", true)

	cache.clear()

	_, found1 := cache.get("user1", "/api/v1/tracks", "read")
	_, found2 := cache.get("user2", "/api/v1/changes", "read")

	if found1 || found2 {
		t.Error("All entries should be cleared")
	}
}

func TestEnforcementCache_Stop(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)

	// Stop should not panic
	cache.stop()

	// Stopping again should not panic (idempotent - uses sync.Once)
	cache.stop()
	cache.stop()
}

func TestEnforcementCache_StopIdempotent(t *testing.T) {
	// Specifically test that multiple concurrent calls to stop() don't panic
	cache := newEnforcementCache(5 * time.Minute)

	done := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		go func() {
			cache.stop()
			done <- true
		}()
	}

	for i := 0; i < 5; i++ {
		<-done
	}
}

func TestEnforcementCache_ConcurrentAccess(t *testing.T) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	done := make(chan bool, 3)

	// Writer 1
	go func() {
		for i := 0; i < 100; i++ {
			cache.set("user1", "/api/v1/tracks", "read", true)
		}
		done <- true
	}()

	// Writer 2
	go func() {
		for i := 0; i < 100; i++ {
			cache.set("user2", "/api/v1/ingest", "write", false)
		}
		done <- true
	}()

	// Reader
	go func() {
		for i := 0; i < 100; i++ {
			cache.get("user1", "/api/v1/tracks", "read")
			cache.get("user2", "/api/v1/ingest", "write")
		}
		done <- true
	}()

	for i := 0; i < 3; i++ {
		<-done
	}
}

func BenchmarkCache_Set(b *testing.B) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.set("user1", "/api/v1/tracks", "read", true)
	}
}

func BenchmarkCache_Get(b *testing.B) {
	cache := newEnforcementCache(5 * time.Minute)
	defer cache.stop()

	cache.set("user1", "/api/v1/tracks", "read", true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.get("user1", "/api/v1/tracks", "read")
	}
}
