// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := RequestID(handler)

	// Request without X-Request-ID header
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	wrappedHandler(rec, req)

	// Verify X-Request-ID header is set in response
	responseID := rec.Header().Get("X-Request-ID")
	if responseID == "" {
		t.Error("Expected X-Request-ID header in response")
	}

	// Verify it's a valid UUID
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
	}

	// Verify the ID was added to context and matches the header
	if capturedID == "" {
		t.Error("Expected request ID in context")
	}
	if capturedID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", capturedID, responseID)
	}
}

func TestRequestID_PreservesExistingID(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := RequestID(handler)

	// Request WITH existing X-Request-ID header (e.g. from upstream proxy)
	existingID := "existing-request-id-12345"
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", existingID)
	rec := httptest.NewRecorder()

	wrappedHandler(rec, req)

	responseID := rec.Header().Get("X-Request-ID")
	if responseID != existingID {
		t.Errorf("Expected X-Request-ID to be %s, got %s", existingID, responseID)
	}

	if capturedID != existingID {
		t.Errorf("Expected context ID to be %s, got %s", existingID, capturedID)
	}
}

func TestGetRequestID_WithoutID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	// Call GetRequestID directly without middleware
	id := GetRequestID(req.Context())

	if id != "" {
		t.Errorf("Expected empty string when no request ID in context, got: %s", id)
	}
}

func TestRequestID_MultipleRequests(t *testing.T) {
	// Verify that multiple requests get different IDs
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := RequestID(handler)

	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()

		wrappedHandler(rec, req)

		id := rec.Header().Get("X-Request-ID")
		if ids[id] {
			t.Errorf("Duplicate request ID generated: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != 10 {
		t.Errorf("Expected 10 unique IDs, got %d", len(ids))
	}
}

func TestRequestID_EmptyHeader(t *testing.T) {
	// Empty X-Request-ID header should generate a new ID
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := RequestID(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "")
	rec := httptest.NewRecorder()

	wrappedHandler(rec, req)

	responseID := rec.Header().Get("X-Request-ID")
	if responseID == "" {
		t.Error("Expected new request ID to be generated for empty header")
	}

	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Generated ID is not a valid UUID: %v", err)
	}
}

func BenchmarkRequestID(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrappedHandler := RequestID(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		wrappedHandler(rec, req)
	}
}
