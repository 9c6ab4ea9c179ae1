// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
)

// Store is the store surface used by the engine and the API. Both *DB and
// *Resilient implement it.
type Store interface {
	recommend.CatalogSource
	recommend.RecommendationSink
	Lookup(ctx context.Context, values []any) (*RecommendationRow, error)
	List(ctx context.Context, limit, offset int) ([]RecommendationRow, error)
	Count(ctx context.Context) (int64, error)
	AttributeNames() []string
	Ping(ctx context.Context) error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Resilient)(nil)
)

// Resilient guards a DB with a circuit breaker. Once FailureThreshold
// consecutive calls fail, calls are rejected with gobreaker.ErrOpenState until
// the open timeout passes.
type Resilient struct {
	db   *DB
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewResilient wraps db. The breaker name is "store-<driver>".
func NewResilient(db *DB, cfg config.BreakerConfig) *Resilient {
	name := "store-" + db.Dialect().String()
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	metrics.SetCircuitBreakerState(name, 0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Misses and caller cancellations say nothing about store health.
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Store circuit breaker state change")
			metrics.SetCircuitBreakerState(name, stateValue(to))
		},
	})

	return &Resilient{db: db, cb: cb, name: name}
}

func stateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker state.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

func (r *Resilient) execute(fn func() (any, error)) (any, error) {
	result, err := r.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordCircuitBreakerRejection(r.name)
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}
	return result, err
}

// castResult asserts the breaker result type.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// LoadCatalog implements recommend.CatalogSource.
func (r *Resilient) LoadCatalog(ctx context.Context) ([]recommend.Record, error) {
	return castResult[[]recommend.Record](r.execute(func() (any, error) {
		return r.db.LoadCatalog(ctx)
	}))
}

// ReplaceRecommendations implements recommend.RecommendationSink.
func (r *Resilient) ReplaceRecommendations(ctx context.Context, rows []recommend.ExportRow) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.db.ReplaceRecommendations(ctx, rows)
	})
	return err
}

// Lookup is DB.Lookup behind the breaker.
func (r *Resilient) Lookup(ctx context.Context, values []any) (*RecommendationRow, error) {
	return castResult[*RecommendationRow](r.execute(func() (any, error) {
		return r.db.Lookup(ctx, values)
	}))
}

// List is DB.List behind the breaker.
func (r *Resilient) List(ctx context.Context, limit, offset int) ([]RecommendationRow, error) {
	return castResult[[]RecommendationRow](r.execute(func() (any, error) {
		return r.db.List(ctx, limit, offset)
	}))
}

// Count is DB.Count behind the breaker.
func (r *Resilient) Count(ctx context.Context) (int64, error) {
	return castResult[int64](r.execute(func() (any, error) {
		return r.db.Count(ctx)
	}))
}

// Ping is DB.Ping behind the breaker.
func (r *Resilient) Ping(ctx context.Context) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.db.Ping(ctx)
	})
	return err
}

// AttributeNames returns the output key columns.
func (r *Resilient) AttributeNames() []string {
	return r.db.AttributeNames()
}
