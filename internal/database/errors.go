// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import (
	"io"

	"github.com/tomtom215/trackscope/internal/logging"
)

// closeWithLog closes a resource and logs any error at warn level.
// Used where a close failure is worth surfacing but must not mask the
// primary error path.
func closeWithLog(c io.Closer, name string) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", name).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource ignoring any error.
// Used only during constructor error paths where the original error is
// already being returned.
func closeQuietly(c io.Closer) {
	_ = c.Close()
}
