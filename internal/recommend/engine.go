// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CatalogSource supplies the catalog records. Field order must match the
// configured attribute path.
type CatalogSource interface {
	LoadCatalog(ctx context.Context) ([]Record, error)
}

// RecommendationSink replaces the stored recommendation table with rows.
type RecommendationSink interface {
	ReplaceRecommendations(ctx context.Context, rows []ExportRow) error
}

// RunListener is notified after every run, successful or not.
// Listener errors are logged and do not fail the run.
type RunListener interface {
	OnRunFinished(ctx context.Context, report *RunReport) error
}

// RunListenerFunc adapts a function to RunListener.
type RunListenerFunc func(ctx context.Context, report *RunReport) error

// OnRunFinished calls f.
func (f RunListenerFunc) OnRunFinished(ctx context.Context, report *RunReport) error {
	return f(ctx, report)
}

// Engine runs the load, group, recommend, export and replace pipeline.
// It is safe for concurrent use; runs never overlap.
type Engine struct {
	config *Config
	logger zerolog.Logger

	source CatalogSource
	sink   RecommendationSink

	listeners  []RunListener
	listenerMu sync.RWMutex

	runMu   sync.Mutex
	running atomic.Bool

	runs     atomic.Int64
	failures atomic.Int64

	statusMu sync.RWMutex
	lastRun  *RunReport

	now func() time.Time
}

// NewEngine creates an engine reading from source and writing to sink.
// sink may be nil when cfg.DryRun is set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source CatalogSource, sink RecommendationSink, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: catalog source is required", ErrConfig)
	}
	if sink == nil && !cfg.DryRun {
		return nil, fmt.Errorf("%w: recommendation sink is required unless dry_run is set", ErrConfig)
	}

	return &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		source: source,
		sink:   sink,
		now:    time.Now,
	}, nil
}

// AddListener registers a listener for finished runs.
func (e *Engine) AddListener(l RunListener) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Running reports whether a run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Status returns the engine status.
func (e *Engine) Status() RunStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return RunStatus{
		Running:  e.running.Load(),
		Runs:     e.runs.Load(),
		Failures: e.failures.Load(),
		LastRun:  e.lastRun,
	}
}

// Run performs one full recomputation. It returns ErrRunInProgress if another
// run is active. The report is returned for failed runs too.
func (e *Engine) Run(ctx context.Context) (*RunReport, error) {
	if !e.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.runMu.Unlock()

	e.running.Store(true)
	defer e.running.Store(false)

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	report := &RunReport{
		RunID:     uuid.NewString(),
		K:         e.config.K,
		Path:      e.config.Path,
		DryRun:    e.config.DryRun,
		Table:     e.config.Table,
		StartedAt: e.now(),
	}
	logger := e.logger.With().Str("run_id", report.RunID).Logger()

	logger.Info().
		Int("k", report.K).
		Str("path", report.Path.String()).
		Bool("dry_run", report.DryRun).
		Msg("starting recommendation run")

	err := e.execute(ctx, report, &logger)

	report.CompletedAt = e.now()
	report.Duration = report.CompletedAt.Sub(report.StartedAt)
	e.runs.Add(1)
	if err != nil {
		report.Error = err.Error()
		e.failures.Add(1)
		logger.Error().Err(err).Dur("duration", report.Duration).Msg("recommendation run failed")
	} else {
		logger.Info().
			Int("records", report.Records).
			Int("slots", report.Slots).
			Int("peer_borrowed", report.Fallbacks.PeerBorrowed).
			Int("global_filled", report.Fallbacks.GlobalFilled).
			Int("deferred", report.Fallbacks.Deferred).
			Dur("duration", report.Duration).
			Msg("recommendation run completed")
	}

	// Listeners may annotate the report, so it is published afterwards.
	e.notify(ctx, report, &logger)

	e.statusMu.Lock()
	e.lastRun = report
	e.statusMu.Unlock()
	return report, err
}

func (e *Engine) execute(ctx context.Context, report *RunReport, logger *zerolog.Logger) error {
	records, err := e.source.LoadCatalog(ctx)
	if err != nil {
		return storeError("load catalog", err)
	}
	report.Records = len(records)

	root, err := Group(records, e.config.Path)
	if err != nil {
		return err
	}
	report.Groups = CountLeaves(root)

	seed := e.config.Seed
	if seed == 0 {
		seed = e.now().UnixNano()
	}
	report.Seed = seed

	recommender, err := NewRecommender(records, e.config.K, RecommenderOptions{
		Parallel:   e.config.Parallel,
		MaxWorkers: e.config.MaxWorkers,
	})
	if err != nil {
		return err
	}

	batch := recommender.Recommend(root, NewRand(seed))
	if len(batch.Incomplete) > 0 {
		return fmt.Errorf("%w: %d slots unresolved at root", ErrIncompleteSlot, len(batch.Incomplete))
	}
	report.Slots = len(batch.Slots)
	report.Fallbacks = recommender.Stats()

	if report.Fallbacks.Degraded > 0 {
		logger.Warn().
			Int("degraded_slots", report.Fallbacks.Degraded).
			Int("records", report.Records).
			Int("k", report.K).
			Msg("catalog smaller than k, slots hold the whole catalog")
	}

	rows, err := Export(batch, e.config.Path, e.config.K)
	if err != nil {
		return err
	}
	report.Rows = rows

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run canceled before write: %w", err)
	}
	if e.config.DryRun {
		logger.Info().Int("rows", len(rows)).Msg("dry run, skipping table replacement")
		return nil
	}
	if err := e.sink.ReplaceRecommendations(ctx, rows); err != nil {
		return storeError("replace recommendations", err)
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, report *RunReport, logger *zerolog.Logger) {
	e.listenerMu.RLock()
	listeners := make([]RunListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.listenerMu.RUnlock()

	// Listeners run after the run deadline may have passed.
	ctx = context.WithoutCancel(ctx)
	for _, l := range listeners {
		if err := l.OnRunFinished(ctx, report); err != nil {
			logger.Warn().Err(err).Msg("run listener failed")
		}
	}
}

// NewRand returns the random source used for a run seeded with seed.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed) //nolint:gosec // reinterpretation of the seed bits
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)) //nolint:gosec // sampling, not security
}

// IsConfigError reports whether err is a precondition violation.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}

// IsStoreError reports whether err came from the catalog source or the sink.
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStore)
}
