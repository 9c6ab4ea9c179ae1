// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/logging"
)

// Open builds the table layout from cfg, connects, seeds the demo catalog
// when database.seed_demo is set and makes sure the output table exists.
func Open(ctx context.Context, cfg *config.Config) (*DB, error) {
	tables, err := TablesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	db, err := New(&cfg.Database, tables)
	if err != nil {
		return nil, err
	}

	if n := cfg.Database.SeedDemo; n > 0 {
		if err := db.SeedDemoCatalog(ctx, n, uint64(cfg.Recommend.Seed)); err != nil { //nolint:gosec // seed bits are reused as is
			closeQuietly(db)
			return nil, fmt.Errorf("failed to seed demo catalog: %w", err)
		}
		logging.Info().Int("items", n).Str("table", tables.Catalog.Name).Msg("Demo catalog seeded")
	}

	if err := db.EnsureOutputTable(ctx); err != nil {
		closeQuietly(db)
		return nil, err
	}
	return db, nil
}

// WithBreaker wraps db in a Resilient store when the breaker is enabled.
func WithBreaker(db *DB, cfg config.BreakerConfig) Store {
	if !cfg.Enabled {
		return db
	}
	return NewResilient(db, cfg)
}
