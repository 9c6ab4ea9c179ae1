// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package eventprocessor announces finished recommendation runs over Watermill.
//
// After every run that replaced the recommendation table the service publishes
// a RefreshedEvent so downstream consumers (caches, search indexes, mailers)
// can reload. Two backends are supported:
//
//   - gochannel: in-process Watermill pub/sub, for single-binary deployments
//     and tests. Subscribers in the same process receive every event.
//   - nats: core NATS subjects through watermill-nats. The topic is the
//     subject and the event id travels as the Nats-Msg-Id header.
//
// # Message Format
//
// The payload is JSON encoded with goccy/go-json:
//
//	{
//	  "event_id": "0b9f...",
//	  "run_id": "5c21...",
//	  "table": "content_filtered",
//	  "rows": 152,
//	  "k": 4,
//	  "path": [1, 2],
//	  "seed": 1760870400000000000,
//	  "fallbacks": {"peer_borrowed": 12, "global_filled": 1, "deferred": 3, "degraded": 0},
//	  "completed_at": "2026-10-19T10:00:00Z"
//	}
//
// Metadata carries "run_id" and "table" for routing without decoding.
//
// # Resilience
//
// Publishes go through a gobreaker circuit breaker and a per-publish timeout.
// A failed publish never fails the run; the listener logs and counts it in
// peerrec_events_published_total{status="failure"}.
//
// # Usage
//
//	pub, err := eventprocessor.NewPublisher(cfg.Events, cfg.Database.Breaker, logger)
//	if err != nil {
//	    return err
//	}
//	defer pub.Close()
//	engine.AddListener(eventprocessor.NewRunListener(pub, cfg.Output.Table))
package eventprocessor
