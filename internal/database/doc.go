// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

/*
Package database is the relational store behind Peerrec.

It reads the catalog, (id, attribute...) tuples selected from a configured
table, and replaces the recommendation table after every run. Three drivers
are supported through database/sql:

  - duckdb: embedded analytic store (github.com/duckdb/duckdb-go/v2), the default
  - sqlite: pure Go SQLite (modernc.org/sqlite)
  - postgres: PostgreSQL through pgx (github.com/jackc/pgx/v5/stdlib)

Statements come from the query package, so identifiers from configuration are
validated and quoted, and values are always bound parameters.

Replacement runs in one transaction: DROP TABLE IF EXISTS, CREATE TABLE with a
composite primary key over the attribute columns and k nullable item columns,
then one prepared INSERT executed per row. A failed run leaves the previous
table in place.

Resilient wraps a DB with a sony/gobreaker circuit breaker so a failing store
is not hammered by scheduled runs and API lookups.

Usage:

	tables, err := database.TablesFromConfig(cfg)
	db, err := database.New(&cfg.Database, tables)
	defer db.Close()

	store := database.NewResilient(db, cfg.Database.Breaker)
	engine, err := recommend.NewEngine(engineCfg, store, store, logger)
*/
package database
