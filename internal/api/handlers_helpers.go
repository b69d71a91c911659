// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/models"
	"github.com/tomtom215/trackscope/internal/validation"
)

// sanitizeLogValue removes control characters from user input before logging.
// Control characters are replaced with their hex representation so log
// injection attacks are visible rather than interpreted.
func sanitizeLogValue(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			sb.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// respondJSON writes a JSON response with standard headers.
//
// Headers set:
//   - Content-Type: application/json
//   - Cache-Control: public, max-age=60 (1-minute client-side caching)
//   - Vary: Accept-Encoding
//   - ETag: FNV-1a hash of the response body for conditional requests
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := generateETag(data)
	w.Header().Set("ETag", etag)

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag computes an FNV-1a hash of the response body.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError writes a standardized error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// validateRequest validates a request struct using go-playground/validator
// tags and converts failures into the API error shape.
func validateRequest(v interface{}) *models.APIError {
	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		return &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	}
	return nil
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
