// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trackscope/internal/logging"
	"github.com/tomtom215/trackscope/internal/metrics"
	"github.com/tomtom215/trackscope/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
// This enables clear observability in logs and metrics.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeIngestCompleted   = "ingest_completed"
	MessageTypePopularityChanged = "popularity_changed"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// addClient registers a client and updates the connection gauge.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

// removeClient unregisters a client, closing its send channel if it was
// registered. Safe to call for clients that were never registered.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, registered := h.clients[client]
	if registered {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if registered {
		metrics.WSConnections.Dec()
	}
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// Run starts the hub (blocks forever, no context support).
//
// Deprecated: Use RunWithContext for supervised operation.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Client lifecycle events (Register/Unregister)
// - Priority 2: Broadcast messages
// This ensures client state is always consistent before processing messages.
func (h *Hub) Run() {
	for {
		// DETERMINISM: Priority-based selection prevents non-deterministic
		// ordering when multiple channels are ready simultaneously.
		// When Go's select has multiple ready channels, it picks randomly.
		// Priority selection ensures consistent, predictable behavior.

		// Priority 1: Handle client lifecycle events first (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
			// No lifecycle events pending, proceed to broadcast
		}

		// Priority 2: Handle broadcast messages (blocking wait)
		select {
		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled:
//  1. All connected clients are gracefully closed
//  2. The method returns ctx.Err()
//
// This allows the hub to be restarted by a supervisor without leaving
// orphaned connections.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (Register/Unregister)
// - Priority 3: Broadcast messages
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
			// Context not canceled, continue
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
			// No lifecycle events pending
		}

		// Priority 3: Handle broadcast messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// logGracefulShutdown closes all connected clients and logs structured
// shutdown information.
//
// Note: ctx.Err() is NOT logged as an error because context cancellation
// is expected behavior during graceful shutdown. Logging it as .Err() would
// confuse operators monitoring error logs.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()

	h.closeAllClients()

	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
// This provides clear observability for operators monitoring logs.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		// Fallback for any future context error types
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients in a deterministic order.
// DETERMINISM: Sorts clients by their monotonically assigned ID to ensure
// consistent iteration order. This prevents non-deterministic message delivery
// order which could cause:
// - Inconsistent client behavior in tests
// - Non-reproducible race conditions
// - Unpredictable message acknowledgment sequences
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}

	// Sort by client ID for deterministic ordering
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			// Channel full or closed, mark for removal
			toRemove = append(toRemove, client)
		}
	}

	// Evict slow consumers rather than letting them stall the hub
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
		metrics.WSErrors.WithLabelValues("client_buffer_full").Inc()
	}
}

// closeAllClients gracefully closes all connected WebSocket clients.
// Called during shutdown to ensure clean termination.
// DETERMINISM: Closes clients in ID order to ensure consistent shutdown behavior.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastPopularityChanged notifies all clients of an observed popularity
// transition. Called by the event-feed consumer after the change row has been
// persisted, so clients never see a change that later disappears.
func (h *Hub) BroadcastPopularityChanged(change *models.PopularityChange) {
	message := Message{
		Type: MessageTypePopularityChanged,
		Data: change,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_buffer_full").Inc()
		logging.Warn().Msg("broadcast channel full, dropping popularity_changed message")
	}
}

// BroadcastJSON sends a JSON message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_buffer_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping JSON message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
