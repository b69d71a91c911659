// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

// Package database provides the DuckDB persistence layer for Trackscope.
//
// It owns the catalog schema (tracks, track_snapshots, popularity_changes,
// ingestion_runs), the transactional ingestion scope used by the pipeline,
// and the read methods backing the HTTP API. All access goes through the
// database/sql interface over the duckdb-go driver.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/trackscope/internal/config"
	"github.com/tomtom215/trackscope/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Prepared statement caching for hot read paths
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex
}

// New creates a new database connection and initializes the schema
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for database file
	// This prevents "No such file or directory" errors when the data directory doesn't exist
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Build connection string with tuning options
	// preserve_insertion_order=false reduces memory usage but may change result order
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network environments
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		stmtCache: make(map[string]*sql.Stmt),
	}

	if err := db.configureConnectionPool(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool tunes the database/sql pool for DuckDB.
// DuckDB is an embedded database, so connections are cheap, but each one
// holds native resources; bounding the pool keeps memory predictable.
func (db *DB) configureConnectionPool() error {
	maxOpen := runtime.NumCPU()
	if maxOpen < 2 {
		maxOpen = 2
	}

	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(1 * time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)

	logging.Debug().
		Int("max_open_conns", maxOpen).
		Int("max_idle_conns", 2).
		Msg("Database connection pool configured")

	return nil
}

// initialize creates the schema and flushes the WAL so a fresh database
// is immediately durable on disk.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Initial checkpoint failed")
	}

	return nil
}

// Close closes the database connection.
// Cached prepared statements are closed first, then a final CHECKPOINT
// flushes the WAL into the database file before the connection is released.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for query, stmt := range db.stmtCache {
		closeWithLog(stmt, "prepared statement")
		delete(db.stmtCache, query)
	}
	db.stmtCacheMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Final checkpoint failed during close")
	}

	return db.conn.Close()
}

// Ping verifies the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// getOrPrepare returns a cached prepared statement for the query, preparing
// and caching it on first use. Statements live until Close.
func (db *DB) getOrPrepare(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()

	// Another goroutine may have prepared it while we waited for the lock
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt

	return stmt, nil
}
