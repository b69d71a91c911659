// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/trackscope/internal/archive"
)

// setupArchiveHandler builds a handler backed by an in-memory archive
// holding two new-releases documents and one unrelated object.
func setupArchiveHandler(t *testing.T) (*Handler, *archive.MemStore) {
	t.Helper()

	store := archive.NewMemStore()
	ctx := context.Background()

	docs := map[string]any{
		"new-releases/2026-08-25T09:00:00Z-run1.json": map[string]string{"album": "First"},
		"new-releases/2026-08-25T10:00:00Z-run2.json": map[string]string{"album": "Second"},
		"exports/summary.json":                        map[string]string{"kind": "summary"},
	}
	for key, doc := range docs {
		if err := store.Put(ctx, key, doc); err != nil {
			t.Fatalf("Failed to seed archive object %s: %v", key, err)
		}
	}

	return &Handler{archive: store, startTime: time.Now()}, store
}

func TestArchiveList_Disabled(t *testing.T) {
	t.Parallel()

	handler := &Handler{startTime: time.Now()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive", nil)
	w := executeRequest(handler.ArchiveList, req)

	assertStatusCode(t, w.Code, http.StatusServiceUnavailable, "TestArchiveList_Disabled")
	response := decodeAPIResponse(t, w, "TestArchiveList_Disabled")
	if response.Error == nil || response.Error.Code != "SERVICE_ERROR" {
		t.Errorf("Expected SERVICE_ERROR, got %+v", response.Error)
	}
}

func TestArchiveList_AllObjects(t *testing.T) {
	t.Parallel()

	handler, _ := setupArchiveHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive", nil)
	w := executeRequest(handler.ArchiveList, req)

	response := assertValidJSONResponse(t, w, http.StatusOK, "TestArchiveList_AllObjects")
	data := assertArrayData(t, response, "TestArchiveList_AllObjects")
	assertArrayLength(t, data, 3, "TestArchiveList_AllObjects")
}

func TestArchiveList_PrefixFilter(t *testing.T) {
	t.Parallel()

	handler, _ := setupArchiveHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive?prefix=new-releases/", nil)
	w := executeRequest(handler.ArchiveList, req)

	response := assertValidJSONResponse(t, w, http.StatusOK, "TestArchiveList_PrefixFilter")
	data := assertArrayData(t, response, "TestArchiveList_PrefixFilter")
	assertArrayLength(t, data, 2, "TestArchiveList_PrefixFilter")

	for _, item := range data {
		object := item.(map[string]interface{})
		key, _ := object["key"].(string)
		if len(key) < len("new-releases/") || key[:len("new-releases/")] != "new-releases/" {
			t.Errorf("Expected only new-releases keys, got %q", key)
		}
	}
}

func TestArchiveList_NoMatches(t *testing.T) {
	t.Parallel()

	handler, _ := setupArchiveHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive?prefix=missing/", nil)
	w := executeRequest(handler.ArchiveList, req)

	response := assertValidJSONResponse(t, w, http.StatusOK, "TestArchiveList_NoMatches")
	data := assertArrayData(t, response, "TestArchiveList_NoMatches")
	assertArrayLength(t, data, 0, "TestArchiveList_NoMatches")
}

func TestArchiveList_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler, _ := setupArchiveHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/archive", nil)
	w := executeRequest(handler.ArchiveList, req)

	assertStatusCode(t, w.Code, http.StatusMethodNotAllowed, "TestArchiveList_MethodNotAllowed")
}

// TestArchiveGet_Verbatim tests that the stored document is served
// byte-for-byte, not re-wrapped in the response envelope.
func TestArchiveGet_Verbatim(t *testing.T) {
	t.Parallel()

	handler, store := setupArchiveHandler(t)
	key := "new-releases/2026-08-25T09:00:00Z-run1.json"

	stored, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Failed to read seeded object: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive/"+key, nil)
	w := httptest.NewRecorder()
	handler.ArchiveGet(w, req, key)

	assertStatusCode(t, w.Code, http.StatusOK, "TestArchiveGet_Verbatim")

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	if !bytes.Equal(w.Body.Bytes(), stored) {
		t.Errorf("Body differs from stored document:\ngot:  %s\nwant: %s", w.Body.Bytes(), stored)
	}
}

func TestArchiveGet_NotFound(t *testing.T) {
	t.Parallel()

	handler, _ := setupArchiveHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive/new-releases/missing.json", nil)
	w := httptest.NewRecorder()
	handler.ArchiveGet(w, req, "new-releases/missing.json")

	assertStatusCode(t, w.Code, http.StatusNotFound, "TestArchiveGet_NotFound")
	response := decodeAPIResponse(t, w, "TestArchiveGet_NotFound")
	if response.Error == nil || response.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND, got %+v", response.Error)
	}
}

func TestArchiveGet_Disabled(t *testing.T) {
	t.Parallel()

	handler := &Handler{startTime: time.Now()}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/archive/some-key", nil)
	w := httptest.NewRecorder()
	handler.ArchiveGet(w, req, "some-key")

	assertStatusCode(t, w.Code, http.StatusServiceUnavailable, "TestArchiveGet_Disabled")
}
