// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package storage keeps versioned snapshots of recommendation runs in BadgerDB.
//
// Every successful run replaces the live recommendation table. A snapshot keeps
// a copy of the exported rows so earlier runs can be inspected or compared
// after the table has moved on.
//
// # Storage Format
//
// Each snapshot is two keys:
//
//	snapshot/meta/{version:020d}  JSON SnapshotMeta
//	snapshot/data/{version:020d}  gzip-compressed JSON rows
//
// The metadata carries a SHA-256 checksum of the uncompressed rows, verified on
// load. Versions increase monotonically; the store keeps the newest Retain
// snapshots and prunes the rest after each save.
//
// # Usage
//
//	store, err := storage.Open(storage.Config{Path: "/data/snapshots", Retain: 10}, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	engine.AddListener(store)
//
//	snap, err := store.Load(ctx, 0) // latest
package storage
