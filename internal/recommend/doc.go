// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package recommend computes "similar item" recommendations for every attribute
// permutation of a catalog.
//
// # Pipeline
//
// A run moves through three pure stages, orchestrated by Engine:
//
//   - Group partitions the catalog into a tree keyed by the attribute values at
//     each position of an AttributePath, highest priority first.
//   - Recommender walks the tree bottom-up and fills one Slot of K records per
//     leaf permutation.
//   - Export flattens the slots into ExportRow values ready for bulk insert.
//
// # Fallback Policy
//
// A leaf with fewer than K records produces a short slot. Its parent tries, in
// order:
//
//   - Peer borrowing: when at least K sibling slots are complete, random entries
//     of random complete siblings fill the short slot.
//   - Global fill: at the root, random records from the whole catalog fill it.
//   - Defer: otherwise the slot is reported to the grandparent, which sees a
//     larger sibling set.
//
// Borrowing never crosses a higher-priority attribute: a node only relaxes
// within its own subtree.
//
// When the whole catalog is smaller than K, slots stop at the catalog size and
// are flagged Degraded.
//
// # Determinism
//
// All randomness flows from one seeded source. Children of an interior node get
// sources derived from the parent in child order, so sequential and parallel
// walks with the same seed produce identical output.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, source, sink, logger)
//	if err != nil {
//	    return err
//	}
//	engine.AddListener(metricsListener)
//
//	report, err := engine.Run(ctx)
//
// This package has no dependencies on other internal packages. Stores, metrics
// and event publishers plug in through CatalogSource, RecommendationSink and
// RunListener.
package recommend
