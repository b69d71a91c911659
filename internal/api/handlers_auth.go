// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackscope/internal/models"
)

// Login handles user authentication requests
//
// @Summary Authenticate user
// @Description Authenticates user with username and password, returns JWT token in HTTP-only cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} models.APIResponse{data=models.LoginResponse} "Authentication successful"
// @Failure 400 {object} models.APIResponse "Invalid request body"
// @Failure 401 {object} models.APIResponse "Invalid credentials"
// @Failure 403 {object} models.APIResponse "Authentication disabled"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	req, err := h.parseAndValidateLoginRequest(w, r)
	if err != nil {
		return
	}

	if !h.validateAuthConfiguration(w) {
		return
	}

	if !h.authenticateCredentials(w, req) {
		return
	}

	h.generateAndSendToken(w, r, req)
}

// parseAndValidateLoginRequest parses and validates login request body
func (h *Handler) parseAndValidateLoginRequest(w http.ResponseWriter, r *http.Request) (*models.LoginRequest, error) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return nil, err
	}

	validationReq := LoginRequestValidation{
		Username: req.Username,
		Password: req.Password,
	}
	if apiErr := validateRequest(&validationReq); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return nil, fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}

	return &req, nil
}

// validateAuthConfiguration checks if JWT authentication is properly configured
func (h *Handler) validateAuthConfiguration(w http.ResponseWriter) bool {
	if h.config == nil || h.config.Security.AuthMode != "jwt" {
		respondError(w, http.StatusForbidden, "AUTH_DISABLED", "Authentication is disabled", nil)
		return false
	}

	if h.jwtManager == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "JWT manager not initialized", nil)
		return false
	}

	if h.credentials == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "Credential verifier not initialized", nil)
		return false
	}

	return true
}

// authenticateCredentials verifies username and password against the
// bcrypt-hashed admin credential
func (h *Handler) authenticateCredentials(w http.ResponseWriter, req *models.LoginRequest) bool {
	if !h.credentials.VerifyCredentials(req.Username, req.Password) {
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return false
	}
	return true
}

// generateAndSendToken generates JWT token and sends response
func (h *Handler) generateAndSendToken(w http.ResponseWriter, r *http.Request, req *models.LoginRequest) {
	role := models.RoleAdmin

	token, err := h.jwtManager.GenerateToken(req.Username, role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate authentication token", err)
		return
	}

	expiresAt := time.Now().Add(h.config.Security.SessionTimeout)

	h.setAuthCookie(w, r, token, expiresAt)
	h.sendLoginResponse(w, token, expiresAt, req.Username, role)
}

// setAuthCookie sets the authentication cookie
func (h *Handler) setAuthCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// sendLoginResponse sends successful login response
func (h *Handler) sendLoginResponse(w http.ResponseWriter, token string, expiresAt time.Time, username string, role string) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			Username:  username,
			Role:      role,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
