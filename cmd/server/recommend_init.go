// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package main

import (
	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/database"
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
	"github.com/tomtom215/peerrec/internal/recommend/storage"
	"github.com/tomtom215/peerrec/internal/supervisor"
	"github.com/tomtom215/peerrec/internal/supervisor/services"
)

// RecommendComponents holds the engine and what hangs off it.
type RecommendComponents struct {
	Engine    *recommend.Engine
	Service   *services.RecommendService
	Snapshots *storage.Store // nil when snapshots are disabled
}

// Close releases the snapshot store.
func (rc *RecommendComponents) Close() {
	if rc.Snapshots == nil {
		return
	}
	if err := rc.Snapshots.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing snapshot store")
	}
}

// initRecommend builds the engine, registers the metrics and snapshot
// listeners and adds the RecommendService to the data layer.
func initRecommend(cfg *config.Config, store database.Store, tree *supervisor.SupervisorTree) (*RecommendComponents, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.WithComponent("recommend")
	engine, err := recommend.NewEngine(engineCfg, store, store, logger)
	if err != nil {
		return nil, err
	}
	engine.AddListener(metrics.RunListener{})

	rc := &RecommendComponents{Engine: engine}
	if cfg.Snapshots.Enabled {
		snapshots, err := storage.Open(cfg.Snapshots.StoreConfig(), logging.WithComponent("snapshots"))
		if err != nil {
			return nil, err
		}
		engine.AddListener(snapshots)
		rc.Snapshots = snapshots
		logging.Info().
			Str("path", cfg.Snapshots.Path).
			Int("retain", cfg.Snapshots.Retain).
			Msg("Snapshot store opened")
	}

	rc.Service = services.NewRecommendService(engine, serviceConfig(&cfg.Recommend), logger)
	tree.AddDataService(rc.Service)

	logging.Info().
		Int("k", engineCfg.K).
		Ints("path", engineCfg.Path).
		Bool("run_on_startup", cfg.Recommend.RunOnStartup).
		Dur("interval", cfg.Recommend.Interval).
		Msg("Recommendation service added to supervisor tree")
	return rc, nil
}

func serviceConfig(cfg *config.RecommendConfig) services.RecommendServiceConfig {
	return services.RecommendServiceConfig{
		RunOnStartup:    cfg.RunOnStartup,
		Interval:        cfg.Interval,
		TriggerInterval: cfg.TriggerInterval,
		TriggerBurst:    cfg.TriggerBurst,
	}
}
