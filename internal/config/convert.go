// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package config

import (
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/recommend/storage"
)

// LoggerConfig returns the logging package configuration.
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	cfg.Timestamp = l.Timestamp
	return cfg
}

// StoreConfig returns the snapshot store configuration.
func (s SnapshotConfig) StoreConfig() storage.Config {
	return storage.Config{
		Path:        s.Path,
		InMemory:    s.InMemory,
		Retain:      s.Retain,
		SyncWrites:  s.SyncWrites,
		Compression: s.Compression,
	}
}
