// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/trackscope/internal/archive"
	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/models"
)

// requireArchive writes a 503 response when no archive sink is configured.
// Returns true if the archive store is available.
func (h *Handler) requireArchive(w http.ResponseWriter) bool {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Archive sink is not enabled", nil)
		return false
	}
	return true
}

// ArchiveList handles archived payload listing requests
//
// @Summary List archived raw payloads
// @Description Returns metadata for archived new-releases payloads, optionally filtered by key prefix
// @Tags Admin
// @Accept json
// @Produce json
// @Param prefix query string false "Key prefix filter" example("new-releases/")
// @Success 200 {object} models.APIResponse{data=[]models.ArchiveObject} "Archive objects retrieved successfully"
// @Failure 503 {object} models.APIResponse "Archive sink not enabled"
// @Router /archive [get]
// @Security BearerAuth
func (h *Handler) ArchiveList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireArchive(w) {
		return
	}

	prefix := r.URL.Query().Get("prefix")

	start := time.Now()

	objects, err := h.archive.List(r.Context(), prefix)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to list archive objects", err)
		return
	}

	if objects == nil {
		objects = []models.ArchiveObject{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   objects,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// ArchiveGet handles single archived payload fetch requests. The object key
// arrives as the third parameter because archive keys contain slashes and
// are extracted from the route's wildcard segment by the router.
//
// The stored document is already JSON, so it is served verbatim rather than
// wrapped in the response envelope.
//
// @Summary Fetch an archived raw payload
// @Description Returns one archived new-releases payload document by its full object key
// @Tags Admin
// @Accept json
// @Produce json
// @Param key path string true "Archive object key" example("new-releases/2026-08-25T09:00:00Z-6ba7b810.json")
// @Success 200 {string} string "Raw archived JSON document"
// @Failure 404 {object} models.APIResponse "Archive object not found"
// @Failure 503 {object} models.APIResponse "Archive sink not enabled"
// @Router /archive/{key} [get]
// @Security BearerAuth
func (h *Handler) ArchiveGet(w http.ResponseWriter, r *http.Request, key string) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireArchive(w) {
		return
	}

	data, err := h.archive.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Archive object not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "SERVICE_ERROR", "Failed to retrieve archive object", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write archive response")
	}
}
