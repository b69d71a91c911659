// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultNATSImage is the official NATS server image
	DefaultNATSImage = "nats:2.10-alpine"

	// DefaultNATSPort is the NATS client port
	DefaultNATSPort = "4222"

	// DefaultNATSMonitorPort is the HTTP monitoring port
	DefaultNATSMonitorPort = "8222"
)

// NATSContainer represents a running NATS server for testing the event
// pipeline against an external broker instead of the embedded server.
type NATSContainer struct {
	testcontainers.Container
	url string
}

// NATSOption configures the NATS container.
type NATSOption func(*natsConfig)

type natsConfig struct {
	image        string
	jetstream    bool
	startTimeout time.Duration
}

// WithNATSImage sets a custom NATS Docker image.
func WithNATSImage(image string) NATSOption {
	return func(c *natsConfig) {
		c.image = image
	}
}

// WithJetStream toggles JetStream. Enabled by default since the event
// pipeline requires it; disable only for plain pub/sub tests.
func WithJetStream(enabled bool) NATSOption {
	return func(c *natsConfig) {
		c.jetstream = enabled
	}
}

// WithNATSStartTimeout sets the timeout for waiting for the server to start.
func WithNATSStartTimeout(timeout time.Duration) NATSOption {
	return func(c *natsConfig) {
		c.startTimeout = timeout
	}
}

// NewNATSContainer creates and starts a NATS server container.
//
// Example:
//
//	ctx := context.Background()
//	nats, err := NewNATSContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer nats.Terminate(ctx)
//
//	nc, err := natsgo.Connect(nats.ClientURL())
func NewNATSContainer(ctx context.Context, opts ...NATSOption) (*NATSContainer, error) {
	cfg := &natsConfig{
		image:        DefaultNATSImage,
		jetstream:    true,
		startTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cmd := []string{"-m", DefaultNATSMonitorPort}
	if cfg.jetstream {
		cmd = append(cmd, "-js")
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		Cmd:          cmd,
		ExposedPorts: []string{DefaultNATSPort + "/tcp", DefaultNATSMonitorPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultNATSPort+"/tcp"),
			wait.ForHTTP("/healthz").WithPort(DefaultNATSMonitorPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultNATSPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &NATSContainer{
		Container: container,
		url:       fmt.Sprintf("nats://%s:%s", host, port.Port()),
	}, nil
}

// ClientURL returns the nats:// URL for connecting clients.
func (c *NATSContainer) ClientURL() string {
	return c.url
}

// Terminate stops and removes the NATS container.
func (c *NATSContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}

// Logs returns the container logs for debugging.
func (c *NATSContainer) Logs(ctx context.Context) (string, error) {
	reader, err := c.Container.Logs(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs: %w", err)
	}
	defer reader.Close()

	var logs []byte
	buf := make([]byte, 1024)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			logs = append(logs, buf[:n]...)
		}
		if err != nil {
			break
		}
	}

	return string(logs), nil
}
