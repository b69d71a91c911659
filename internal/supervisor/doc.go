// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package supervisor provides hierarchical service supervision using
// suture v4, giving Trackscope automatic restart of failed components
// with exponential backoff and failure isolation between layers.
//
// # Tree Structure
//
// The supervisor tree is organized into three child supervisors under
// a single root:
//
//	trackscope (root)
//	├── data-layer
//	│   └── ingest-manager      (scheduled Spotify catalog ingestion)
//	├── messaging-layer
//	│   ├── websocket-hub       (live popularity-change broadcasts)
//	│   └── events-components   (NATS JetStream pipeline, -tags nats only)
//	└── api-layer
//	    └── http-server         (REST API and dashboard)
//
// Each layer is itself a supervisor, so a crash in one layer is
// contained: if the ingest manager panics mid-poll, the HTTP server
// keeps answering queries against whatever the database already holds,
// and the WebSocket hub keeps its connections open.
//
// # Failure Handling
//
// Supervision follows suture's failure accounting. Each service
// failure adds 1.0 to its supervisor's failure count; the count decays
// exponentially with a 30-second half-life. When the count crosses the
// threshold (default 5.0), the supervisor stops restarting and waits
// out a backoff period (default 15s) before trying again.
//
// Concrete scenarios:
//
//   - The Spotify API starts returning 500s and the ingest manager
//     returns an error from Serve. The data-layer supervisor restarts
//     it; the circuit breaker inside the ingestion pipeline prevents a
//     tight retry loop against the upstream.
//
//   - The HTTP listener port is taken by another process. The
//     api-layer supervisor restarts the server, accumulates failures,
//     and enters backoff, logging each attempt through sutureslog. The
//     data and messaging layers are unaffected.
//
//   - A service fails to stop within the shutdown timeout (default
//     10s). It is abandoned and reported through
//     UnstoppedServiceReport so the operator can see which component
//     wedged.
//
// # Service Contract
//
// Services implement suture.Service:
//
//	type Service interface {
//		Serve(ctx context.Context) error
//	}
//
// Serve must block until the context is canceled, then return
// ctx.Err(). Returning suture.ErrDoNotRestart marks a permanent
// failure; returning suture.ErrTerminateSupervisorTree tears down the
// whole tree. Any other error triggers a restart with backoff.
//
// Adapters in the services subpackage wrap Trackscope's components
// (http.Server, the WebSocket hub, the ingest manager, the NATS event
// components) into this contract.
//
// # Logging
//
// Supervisor lifecycle events (service failures, backoff transitions,
// restarts) are logged through sutureslog, which bridges suture's
// EventHook to log/slog. The rest of Trackscope logs through zerolog;
// cmd/server constructs a slog.Logger backed by the same zerolog
// writer so supervision events land in the same stream.
//
// # What Is NOT Supervised
//
// Some components are deliberately outside the tree:
//
//   - The DuckDB store: it is a dependency of nearly every service, so
//     it is opened before the tree starts and closed after the tree
//     stops. Restarting it independently would invalidate handles held
//     by running services.
//
//   - Configuration loading: a config error is fatal at startup, not
//     something to retry.
//
//   - The embedded NATS server: it is started before the consumer and
//     publisher that depend on it and shut down after them, as part of
//     the events-components service rather than as a sibling.
//
// # Usage
//
//	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
//	if err != nil {
//		return err
//	}
//	tree.AddDataService(services.NewIngestService(manager))
//	tree.AddMessagingService(services.NewWebSocketService(hub))
//	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
//
//	errCh := tree.ServeBackground(ctx)
//	<-ctx.Done()
//	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
//		log.Error().Err(err).Msg("supervisor tree exited")
//	}
package supervisor
