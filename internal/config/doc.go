// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

/*
Package config loads Peerrec configuration with Koanf v2.

Sources are layered, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/peerrec/config.yaml, /etc/peerrec/config.yml
 3. Environment variables from an explicit mapping table

Environment variables:

	DB_DRIVER              database.driver (duckdb, sqlite, postgres)
	DB_DSN                 database.dsn (file path, ":memory:" or postgres URL)
	DB_MAX_MEMORY          database.max_memory (DuckDB only)
	DB_SEED_DEMO           database.seed_demo (rows of demo catalog, 0 disables)
	CATALOG_TABLE          catalog.table
	CATALOG_ID_COLUMN      catalog.id_column
	CATALOG_ATTRIBUTES     catalog.attributes, e.g. "category:VARCHAR,brand:VARCHAR"
	OUTPUT_TABLE           output.table
	OUTPUT_ID_TYPE         output.id_type
	OUTPUT_FOREIGN_KEYS    output.foreign_keys
	RECOMMEND_K            recommend.k
	RECOMMEND_PATH         recommend.path, e.g. "1,2"
	RECOMMEND_SEED         recommend.seed (0 seeds from the clock)
	RECOMMEND_INTERVAL     recommend.interval
	SNAPSHOTS_ENABLED      snapshots.enabled
	EVENTS_ENABLED         events.enabled
	EVENTS_BACKEND         events.backend (gochannel, nats)
	NATS_URL               events.nats_url
	HTTP_PORT              server.port
	LOG_LEVEL              logging.level

The full table lives in envMappings. Unmapped variables are ignored.

Example:

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("configuration")
	}
	engineCfg, err := cfg.EngineConfig()
*/
package config
