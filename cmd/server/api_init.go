// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package main

import (
	"net/http"
	"time"

	"github.com/tomtom215/peerrec/internal/api"
	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/database"
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/supervisor"
	"github.com/tomtom215/peerrec/internal/supervisor/services"
)

// initAPI builds the handler and router and adds the HTTP server and the cache
// janitor to the API layer. The handler listens for runs to purge its cache.
func initAPI(cfg *config.Config, store database.Store, rc *RecommendComponents, tree *supervisor.SupervisorTree) {
	if !cfg.Server.Enabled {
		logging.Info().Msg("HTTP server disabled (HTTP_ENABLED=false)")
		return
	}

	var snapshots api.SnapshotStore
	if rc.Snapshots != nil {
		snapshots = rc.Snapshots
	}
	handler := api.NewHandler(store, rc.Service, snapshots, handlerConfig(&cfg.Server))
	rc.Engine.AddListener(handler)

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*)")
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Server)))
	server := newHTTPServer(&cfg.Server, router.SetupChi())

	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
	if cfg.Server.CacheTTL > 0 {
		tree.AddAPIService(services.NewJanitorService("cache-janitor", cfg.Server.CacheTTL, handler.CleanupCache,
			logging.WithComponent("api")))
	}
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
}

func handlerConfig(cfg *config.ServerConfig) api.HandlerConfig {
	return api.HandlerConfig{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		CacheTTL:        cfg.CacheTTL,
		CacheSize:       cfg.CacheSize,
	}
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
