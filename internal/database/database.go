// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/database/query"
	"github.com/tomtom215/peerrec/internal/logging"
)

const defaultQueryTimeout = 30 * time.Second

// DB wraps a database/sql pool for one of the supported drivers.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect query.Dialect
	tables  Tables
}

// New opens the configured store and verifies it with a ping.
func New(cfg *config.DatabaseConfig, tables Tables) (*DB, error) {
	dialect, err := query.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := connString(cfg, dialect)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	db := &DB{conn: conn, cfg: cfg, dialect: dialect, tables: tables}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()
	if err := db.initialize(ctx); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	logging.Info().
		Str("driver", dialect.String()).
		Str("catalog", tables.Catalog.Name).
		Str("output", tables.Output.Name).
		Msg("Database opened")
	return db, nil
}

func connString(cfg *config.DatabaseConfig, dialect query.Dialect) (string, error) {
	switch dialect {
	case query.DuckDB:
		if err := ensureDir(cfg.DSN); err != nil {
			return "", err
		}
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			cfg.DSN, threads, maxMemory), nil
	case query.SQLite:
		if err := ensureDir(cfg.DSN); err != nil {
			return "", err
		}
		return cfg.DSN, nil
	default:
		return cfg.DSN, nil
	}
}

// ensureDir creates the parent directory of a file-backed database.
func ensureDir(path string) error {
	if path == "" || isMemoryDSN(path) {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}

func (db *DB) configureConnectionPool() {
	if db.dialect == query.SQLite {
		// One connection keeps :memory: databases and per-connection pragmas alive.
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
		return
	}

	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(db.cfg.MaxIdleConns)
	db.conn.SetConnMaxLifetime(db.cfg.ConnMaxLifetime)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

func (db *DB) initialize(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", db.dialect, err)
	}
	if db.dialect == query.SQLite {
		for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
			if _, err := db.conn.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("failed to apply %q: %w", pragma, err)
			}
		}
	}
	return nil
}

// ensureContext adds the default timeout to contexts without a deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultQueryTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultQueryTimeout)
	}
	return ctx, func() {}
}

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Dialect returns the SQL dialect of the open store.
func (db *DB) Dialect() query.Dialect {
	return db.dialect
}

// Tables returns the table layouts.
func (db *DB) Tables() Tables {
	return db.tables
}
