// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/trackscope/internal/config"
)

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token creation and validation
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a new JWT token manager with the configured secret and timeout.
//
// The manager signs tokens with HMAC-SHA256. The secret is stored as []byte
// and must be at least 32 characters; config validation enforces the same
// bound, so this only fires when the manager is constructed outside the
// normal startup path.
//
// Example:
//
//	jwtManager, err := auth.NewJWTManager(&cfg.Security)
//	if err != nil {
//	    return fmt.Errorf("init jwt manager: %w", err)
//	}
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// GenerateToken creates a new signed JWT token for an authenticated user.
//
// The token carries the username and role plus the standard time claims:
// ExpiresAt (now + session timeout), IssuedAt, and NotBefore. Tokens are
// stateless and cannot be revoked before expiration.
func (m *JWTManager) GenerateToken(username, role string) (string, error) {
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token string and extracts the user claims.
//
// Validation checks the HMAC signature, the signing algorithm (anything other
// than HMAC is rejected to prevent algorithm confusion attacks), expiration,
// and the NotBefore claim. Time-based validation uses server time.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// SessionTimeout returns the configured token lifetime. The login handler
// uses it to compute the expires_at field and the cookie expiry.
func (m *JWTManager) SessionTimeout() time.Duration {
	return m.timeout
}
