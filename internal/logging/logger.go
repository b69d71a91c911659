// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package logging provides structured logging built on zerolog.
//
// The package keeps a single process-wide logger configured once at
// startup via Init. All other packages log through the leveled helpers
// (Debug, Info, Warn, Error) so that output format and level are
// controlled in one place:
//
//	logging.Info().
//		Str("track_id", track.ID).
//		Int("popularity", popularity).
//		Msg("Snapshot recorded")
//
// Output is JSON by default for machine consumption; the console format
// is human-readable and intended for local development.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger behaviour. Zero values fall back to defaults,
// so an empty Config is safe to pass to Init.
type Config struct {
	// Level is the minimum level to emit: trace, debug, info, warn,
	// error, fatal, panic. Defaults to info.
	Level string

	// Format selects the output encoding: "json" or "console".
	// Defaults to json.
	Format string

	// Caller adds the file:line of the call site to each event.
	Caller bool

	// Timestamp adds an RFC3339 timestamp to each event. Defaults to
	// true via DefaultConfig.
	Timestamp bool

	// Output is the destination writer. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the configuration used when Init is never
// called: info-level JSON on stderr with timestamps.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Caller:    false,
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(DefaultConfig())
}

// Init reconfigures the global logger. Call once during startup before
// any goroutines log concurrently.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	ctx := zerolog.New(output).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	log = ctx.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger for callers that need to
// attach persistent context with With().
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger replaces the global logger. Intended for tests that need to
// capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// With returns a context builder on a copy of the global logger.
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return log.With()
}

// Trace starts a trace-level event.
func Trace() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Trace()
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Debug()
}

// Info starts an info-level event.
func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Info()
}

// Warn starts a warn-level event.
func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Warn()
}

// Error starts an error-level event.
func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error()
}

// Fatal starts a fatal-level event. The process exits after Msg is
// called, so reserve this for unrecoverable startup failures.
func Fatal() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Fatal()
}

// Panic starts a panic-level event.
func Panic() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Panic()
}

// Err starts an error-level event when err is non-nil, or an info-level
// event when it is nil, with the error already attached.
func Err(err error) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Err(err)
}

// GetLevel reports the current global level.
func GetLevel() zerolog.Level {
	return zerolog.GlobalLevel()
}

// SetLevel changes the global level at runtime.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// SetLevelString changes the global level from its string form,
// accepting the same values as Config.Level.
func SetLevelString(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// IsLevelEnabled reports whether events at the given level would be
// emitted. Useful to skip expensive field construction.
func IsLevelEnabled(level zerolog.Level) bool {
	return level >= zerolog.GlobalLevel()
}

// NewTestLogger returns a logger writing JSON to w, for asserting on
// log output in tests.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
