// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package api provides HTTP request validation structs with go-playground/validator tags.
// These structs are used to validate incoming API request parameters before processing.
//
// The validation tags follow the go-playground/validator v10 syntax:
//   - required: field must be present and non-zero
//   - min,max: numeric or string length bounds
//   - omitempty: skip validation if field is empty/zero
//
// Example usage:
//
//	req := ListRequest{
//	    Limit:  getIntParam(r, "limit", 20),
//	    Offset: getIntParam(r, "offset", 0),
//	}
//	if err := validateRequest(&req); err != nil {
//	    respondError(w, http.StatusBadRequest, err.Code, err.Message, nil)
//	    return
//	}
package api

// ListRequest represents the validated query parameters for paginated list
// endpoints such as /tracks and /changes. The upper bound on Limit depends on
// the configured maximum page size and is enforced separately in parseListParams.
//
// Fields:
//   - Limit: Results per page (>= 1, default from config)
//   - Offset: Number of results to skip (0-1000000)
type ListRequest struct {
	Limit  int `validate:"min=1"`
	Offset int `validate:"min=0,max=1000000"`
}

// LimitRequest represents the validated query parameters for endpoints that
// accept a bare limit with no offset, such as /tracks/top and /snapshots/recent.
//
// Fields:
//   - Limit: Maximum results to return (>= 1, upper bound enforced in parseLimitParam)
type LimitRequest struct {
	Limit int `validate:"min=1"`
}

// LoginRequestValidation represents the validated request body for the /auth/login endpoint.
// Note: This is named differently from models.LoginRequest to avoid conflicts.
//
// Fields:
//   - Username: Required user login name
//   - Password: Required user password
type LoginRequestValidation struct {
	Username string `validate:"required,min=1"`
	Password string `validate:"required,min=1"`
}
