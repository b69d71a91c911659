// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package main provides the Trackscope HTTP server
//
// Trackscope tracks Spotify catalog popularity over time, recording
// per-track snapshots and detecting changes between ingestion runs.
//
// @title Trackscope API
// @version 1.0
// @description Music catalog popularity tracking and analytics for the Spotify Web API
// @description
// @description ## Features
// @description
// @description - **Periodic Ingestion**: New releases pulled from Spotify on a configurable interval
// @description - **Popularity History**: Per-track popularity snapshots recorded every run
// @description - **Change Feed**: Detected popularity changes with per-run history
// @description - **Real-time Updates**: WebSocket-based live notifications
// @description - **Raw Payload Archive**: Optional GCS archival of ingestion responses
// @description
// @description ## Authentication
// @description
// @description Most endpoints require JWT authentication via the Authorization header.
// @description Use `/api/v1/auth/login` to obtain a token, then send it as `Authorization: Bearer <token>`.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Rate limit headers are included in responses: `X-RateLimit-Limit`, `X-RateLimit-Remaining`, `X-RateLimit-Reset`.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-08-25T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/trackscope/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:4440
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token. Obtain via /api/v1/auth/login endpoint.
//
// @tag.name Core
// @tag.description Core API endpoints for health checks, statistics, and system status
//
// @tag.name Tracks
// @tag.description Track listing and per-track popularity snapshot history
//
// @tag.name Changes
// @tag.description Popularity change feed and ingestion run history
//
// @tag.name Auth
// @tag.description Authentication and session management endpoints
//
// @tag.name Admin
// @tag.description Administrative operations requiring authentication (manual ingestion, archive access)
package main
