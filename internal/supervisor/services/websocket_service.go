// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package services

import (
	"context"
)

// ContextHub interface matches *websocket.Hub's RunWithContext method.
//
// Depending on the interface rather than the websocket package keeps
// this package free of a dependency cycle with the rest of the app.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService wraps a WebSocket hub as a supervised service.
//
// The hub's RunWithContext method already implements the suture.Service
// pattern, so this wrapper simply delegates to it and provides a name
// for logging.
//
// Example usage:
//
//	hub := websocket.NewHub()
//	svc := services.NewWebSocketHubService(hub)
//	tree.AddMessagingService(svc)
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService creates a new WebSocket hub service wrapper.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service.
//
// Delegates to hub.RunWithContext, which processes client
// registration and broadcasts until the context is canceled, then
// closes all clients and returns ctx.Err().
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (w *WebSocketHubService) String() string {
	return w.name
}
