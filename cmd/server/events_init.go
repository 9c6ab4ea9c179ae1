// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package main

import (
	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/eventprocessor"
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/recommend"
	"github.com/tomtom215/peerrec/internal/supervisor"
	"github.com/tomtom215/peerrec/internal/supervisor/services"
)

// initEvents wires the refresh publisher when events are enabled. The
// publisher's breaker reuses the store breaker settings.
func initEvents(cfg *config.Config, engine *recommend.Engine, tree *supervisor.SupervisorTree) error {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Event publishing disabled (EVENTS_ENABLED=false)")
		return nil
	}

	logger := logging.WithComponent("events")
	publisher, err := eventprocessor.NewPublisher(cfg.Events, cfg.Database.Breaker, logger)
	if err != nil {
		return err
	}
	engine.AddListener(eventprocessor.NewRunListener(publisher, cfg.Output.Table))
	tree.AddMessagingService(services.NewPublisherService(publisher, logger))

	logging.Info().
		Str("backend", cfg.Events.Backend).
		Str("topic", publisher.Topic()).
		Msg("Event publisher added to supervisor tree")
	return nil
}
