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

// Changes handles popularity change feed requests
//
// @Summary List popularity changes
// @Description Returns detected popularity changes across all tracks, newest first
// @Tags Changes
// @Accept json
// @Produce json
// @Param limit query int false "Number of results per page" default(20) minimum(1) maximum(100)
// @Param offset query int false "Number of results to skip" default(0) minimum(0)
// @Success 200 {object} models.APIResponse{data=[]models.PopularityChange} "Changes retrieved successfully"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /changes [get]
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
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

	changes, err := h.db.GetPopularityChanges(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve changes", err)
		return
	}

	if changes == nil {
		changes = []models.PopularityChange{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   changes,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Stats handles statistics requests
//
// @Summary Get catalog statistics
// @Description Returns aggregate statistics including track, snapshot, and change totals plus the most recent ingestion run
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Stats} "Statistics retrieved successfully"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) || !h.requireDB(w) {
		return
	}

	start := time.Now()

	stats, err := h.db.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve statistics", err)
		return
	}

	// The in-process manager knows about the run currently finishing even
	// before its row lands in the run log.
	if h.ingest != nil {
		lastIngest := h.ingest.LastIngestTime()
		if !lastIngest.IsZero() {
			stats.LastIngestTime = &lastIngest
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   stats,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Runs handles ingestion run history requests
//
// @Summary List ingestion runs
// @Description Returns summaries of completed ingestion runs, newest first
// @Tags Core
// @Accept json
// @Produce json
// @Param limit query int false "Number of runs to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.APIResponse{data=[]models.IngestionRun} "Runs retrieved successfully"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /runs [get]
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
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

	runs, err := h.db.GetIngestionRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve runs", err)
		return
	}

	if runs == nil {
		runs = []models.IngestionRun{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   runs,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
