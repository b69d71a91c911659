// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/trackscope/internal/models"
)

// Track endpoints. IDs are Spotify track IDs (22-character base62
// strings) and are passed through to the database as-is: an unknown
// or malformed ID simply finds no row and returns 404.

// Tracks handles paginated track listing requests
//
// @Summary List tracked tracks
// @Description Returns the tracked catalog ordered by last update, newest first
// @Tags Tracks
// @Accept json
// @Produce json
// @Param limit query int false "Number of results per page" default(20) minimum(1) maximum(100)
// @Param offset query int false "Number of results to skip" default(0) minimum(0)
// @Success 200 {object} models.APIResponse{data=[]models.Track} "Tracks retrieved successfully"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /tracks [get]
func (h *Handler) Tracks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit, offset, err := h.parseListParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	if !h.requireDB(w) {
		return
	}

	start := time.Now()

	tracks, err := h.db.GetTracks(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve tracks", err)
		return
	}

	if tracks == nil {
		tracks = []models.Track{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   tracks,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// TopTracks handles requests for the highest-popularity tracks
//
// @Summary Get top tracks by popularity
// @Description Returns tracks ordered by current popularity, highest first
// @Tags Tracks
// @Accept json
// @Produce json
// @Param limit query int false "Number of tracks to return" default(10) minimum(1) maximum(100)
// @Success 200 {object} models.APIResponse{data=[]models.Track} "Top tracks retrieved successfully"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /tracks/top [get]
func (h *Handler) TopTracks(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := h.parseLimitParam(r, 10)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	if !h.requireDB(w) {
		return
	}

	start := time.Now()

	tracks, err := h.db.GetTopTracks(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve top tracks", err)
		return
	}

	if tracks == nil {
		tracks = []models.Track{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   tracks,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// TrackByID handles single track detail requests
//
// @Summary Get a single track
// @Description Returns one tracked track by its Spotify ID
// @Tags Tracks
// @Accept json
// @Produce json
// @Param id path string true "Spotify track ID" example("4iV5W9uYEdYUVa79Axb7Rh")
// @Success 200 {object} models.APIResponse{data=models.Track} "Track retrieved successfully"
// @Failure 404 {object} models.APIResponse "Track not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /tracks/{id} [get]
func (h *Handler) TrackByID(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireDB(w) {
		return
	}

	trackID := r.PathValue("id")
	if trackID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Track ID required", nil)
		return
	}

	start := time.Now()

	track, err := h.db.GetTrack(r.Context(), trackID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve track", err)
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "TRACK_NOT_FOUND", "Track not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   track,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// TrackSnapshots handles per-track popularity history requests
//
// @Summary Get popularity snapshots for a track
// @Description Returns the recorded popularity history of one track, newest first
// @Tags Tracks
// @Accept json
// @Produce json
// @Param id path string true "Spotify track ID" example("4iV5W9uYEdYUVa79Axb7Rh")
// @Param limit query int false "Number of snapshots to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.APIResponse{data=[]models.TrackSnapshot} "Snapshots retrieved successfully"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 404 {object} models.APIResponse "Track not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /tracks/{id}/snapshots [get]
func (h *Handler) TrackSnapshots(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	trackID := r.PathValue("id")
	if trackID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Track ID required", nil)
		return
	}

	defaultPageSize, _ := h.getPageSizeConfig()
	limit, err := h.parseLimitParam(r, defaultPageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	if !h.requireDB(w) {
		return
	}

	start := time.Now()

	// The 404 contract distinguishes "unknown track" from "known track
	// with no snapshots yet", so the track lookup comes first.
	track, err := h.db.GetTrack(r.Context(), trackID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve track", err)
		return
	}
	if track == nil {
		respondError(w, http.StatusNotFound, "TRACK_NOT_FOUND", "Track not found", nil)
		return
	}

	snapshots, err := h.db.GetTrackSnapshots(r.Context(), trackID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve snapshots", err)
		return
	}

	if snapshots == nil {
		snapshots = []models.TrackSnapshot{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   snapshots,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// RecentSnapshots handles requests for the latest snapshots across all tracks
//
// @Summary Get recent snapshots
// @Description Returns the most recent popularity snapshots across the whole catalog, joined with track names
// @Tags Tracks
// @Accept json
// @Produce json
// @Param limit query int false "Number of snapshots to return" default(5) minimum(1) maximum(100)
// @Success 200 {object} models.APIResponse{data=[]models.SnapshotWithTrack} "Snapshots retrieved successfully"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /snapshots/recent [get]
func (h *Handler) RecentSnapshots(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := h.parseLimitParam(r, 5)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	if !h.requireDB(w) {
		return
	}

	start := time.Now()

	snapshots, err := h.db.GetRecentSnapshots(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve snapshots", err)
		return
	}

	if snapshots == nil {
		snapshots = []models.SnapshotWithTrack{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   snapshots,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
