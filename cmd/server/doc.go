// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

/*
Package main is the entry point for the Peerrec server.

The server keeps a recommendation table fresh and serves it over HTTP. Each
run loads the catalog, groups items by the configured attribute path, fills
every attribute permutation with k item identifiers (borrowing from peer
groups and finally from the whole catalog when a group is too small) and
replaces the output table in one transaction.

# Application Architecture

	RootSupervisor ("peerrec")
	├── DataSupervisor ("data-layer")
	│   └── RecommendService (startup, scheduled and manual runs)
	├── MessagingSupervisor ("messaging-layer")
	│   └── PublisherService (optional, events.enabled)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService (chi router)
	    └── JanitorService (lookup cache expiry)

Component initialization order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Store: DuckDB, SQLite or PostgreSQL through database/sql
 4. Snapshots: BadgerDB (optional)
 5. Events: Watermill publisher on gochannel or NATS (optional)
 6. Engine and run listeners
 7. Supervisor tree and HTTP server

# Configuration

	DB_DRIVER=duckdb                # duckdb, sqlite or postgres
	DB_DSN=/data/peerrec.duckdb
	RECOMMEND_K=4
	RECOMMEND_SEED=0                # 0 picks a fresh seed per run
	RECOMMEND_INTERVAL=1h           # 0 disables scheduled runs
	EVENTS_ENABLED=true
	EVENTS_BACKEND=nats
	NATS_URL=nats://localhost:4222
	HTTP_PORT=8080
	LOG_LEVEL=info

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
server.shutdown_timeout, an in-flight run is canceled and its transaction
rolled back, and the publisher and stores are closed.
*/
package main
