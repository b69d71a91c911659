// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/trackscope/internal/ingest"
	"github.com/tomtom215/trackscope/internal/models"
)

// TriggerIngest handles manual ingestion trigger requests
//
// The manager launches the run in the background and reports conflicts
// synchronously, so the handler can answer 202 or 409 without waiting
// for the run to finish.
//
// @Summary Trigger a manual ingestion run
// @Description Starts an ingestion run in the background. Returns 409 if a run is already in progress.
// @Tags Admin
// @Accept json
// @Produce json
// @Success 202 {object} models.APIResponse "Ingestion triggered"
// @Failure 409 {object} models.APIResponse "Ingestion already in progress"
// @Failure 503 {object} models.APIResponse "Ingestion manager not available"
// @Router /ingest [post]
// @Security BearerAuth
func (h *Handler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if h.ingest == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Ingestion manager not available", nil)
		return
	}

	if err := h.ingest.TriggerIngest(); err != nil {
		if errors.Is(err, ingest.ErrIngestInProgress) {
			respondError(w, http.StatusConflict, "INGEST_IN_PROGRESS", "An ingestion run is already in progress", err)
			return
		}
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Failed to trigger ingestion", err)
		return
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"message": "Ingestion triggered",
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
