// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package api

import (
	"context"
	"time"

	"github.com/tomtom215/peerrec/internal/cache"
	"github.com/tomtom215/peerrec/internal/database"
	"github.com/tomtom215/peerrec/internal/recommend"
	"github.com/tomtom215/peerrec/internal/recommend/storage"
)

// Store is the read side of the recommendation store.
type Store interface {
	Lookup(ctx context.Context, values []any) (*database.RecommendationRow, error)
	List(ctx context.Context, limit, offset int) ([]database.RecommendationRow, error)
	Count(ctx context.Context) (int64, error)
	AttributeNames() []string
	Ping(ctx context.Context) error
}

// RunController starts runs and reports on them.
type RunController interface {
	// Trigger queues a run. It returns recommend.ErrRunInProgress when a run
	// is active or queued and services.ErrTriggerThrottled when throttled.
	Trigger() error
	Status() recommend.RunStatus
}

// SnapshotStore reads stored run snapshots.
type SnapshotStore interface {
	List(ctx context.Context) ([]storage.SnapshotMeta, error)
	Load(ctx context.Context, version int64) (*storage.Snapshot, error)
}

// HandlerConfig configures paging and the lookup cache.
type HandlerConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	CacheTTL        time.Duration
	CacheSize       int
}

// Handler serves the API endpoints.
type Handler struct {
	store     Store
	runs      RunController
	snapshots SnapshotStore
	config    HandlerConfig
	cache     *cache.LRU[*database.RecommendationRow]
}

var _ recommend.RunListener = (*Handler)(nil)

// NewHandler creates a Handler. snapshots may be nil when snapshots are
// disabled; the snapshot endpoints then answer 503.
func NewHandler(store Store, runs RunController, snapshots SnapshotStore, cfg HandlerConfig) *Handler {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	h := &Handler{
		store:     store,
		runs:      runs,
		snapshots: snapshots,
		config:    cfg,
	}
	// A zero TTL disables the lookup cache.
	if cfg.CacheTTL > 0 {
		h.cache = cache.NewLRU[*database.RecommendationRow](cfg.CacheSize, cfg.CacheTTL)
	}
	return h
}

// OnRunFinished purges the lookup cache once the table has been replaced.
func (h *Handler) OnRunFinished(_ context.Context, report *recommend.RunReport) error {
	if h.cache != nil && report.Succeeded() && !report.DryRun {
		h.cache.Purge()
	}
	return nil
}

// CleanupCache drops expired cache entries and returns how many were removed.
func (h *Handler) CleanupCache() int {
	if h.cache == nil {
		return 0
	}
	return h.cache.CleanupExpired()
}
