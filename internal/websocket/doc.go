// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

/*
Package websocket provides real-time bidirectional communication for live updates.

This package implements WebSocket support for broadcasting ingestion run
completions and popularity change notifications to connected frontend clients.
It uses the gorilla/websocket library with a hub-client architecture for
efficient message broadcasting.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - Message: Typed message structure for different event types

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from WebSocket, handles pings
  - writePump: Writes to WebSocket, sends pongs

Message Types:

The following message types are supported:

  - ingest_completed: Ingestion run finished (run_id, tracks_processed,
    snapshots_created, errors, duration)
  - popularity_changed: A track's popularity transitioned (track_id, previous,
    current, delta)
  - ping/pong: Application-level keepalive initiated by clients

Usage Example - Server:

	import (
	    "github.com/tomtom215/trackscope/internal/websocket"
	    "net/http"
	)

	// Create hub
	hub := websocket.NewHub()
	go hub.Run()

	// WebSocket upgrade endpoint
	http.HandleFunc("/api/v1/ws", func(w http.ResponseWriter, r *http.Request) {
	    // upgrade, then:
	    client := websocket.NewClient(hub, conn)
	    hub.Register <- client
	    client.Start()
	})

	// Broadcast an ingestion run summary
	hub.BroadcastJSON("ingest_completed", result)

	// Broadcast a persisted popularity change
	hub.BroadcastPopularityChanged(change)

Usage Example - Client (JavaScript):

	// Connect to WebSocket
	const ws = new WebSocket('ws://localhost:4440/api/v1/ws');

	ws.onmessage = (event) => {
	    const msg = JSON.parse(event.data);

	    if (msg.type === 'ingest_completed') {
	        console.log(`Run: ${msg.data.tracks_processed} tracks processed`);
	        refreshData(); // Reload charts
	    }

	    if (msg.type === 'popularity_changed') {
	        updateTrackRow(msg.data);
	    }
	};

Connection Lifecycle:

1. Client connects via HTTP upgrade
2. Hub registers client
3. Client starts read/write goroutines
4. Hub broadcasts messages to all clients
5. Client disconnects (network error or explicit close)
6. Hub unregisters client and cleans up

Thread Safety:

The package is fully thread-safe:
  - Hub uses mutex for client map access
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines
  - No shared mutable state between clients

Error Handling:

The package handles:
  - Read errors: Closes connection gracefully
  - Write errors: Removes client from hub
  - Ping/pong timeout: Detects dead connections (60s timeout)
  - Slow consumers: Evicted when their send buffer fills, so one stalled
    browser tab never blocks the hub

Observability:

The hub records websocket_connections (gauge), websocket_messages_sent_total,
and websocket_errors_total{error_type} through internal/metrics.

Configuration:

WebSocket settings:
  - writeWait: 10 seconds (time allowed to write message)
  - pongWait: 60 seconds (time allowed to read pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 512 KB (max message size)

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/ingest: Run completion broadcasts
  - internal/events: Popularity change broadcasts
*/
package websocket
