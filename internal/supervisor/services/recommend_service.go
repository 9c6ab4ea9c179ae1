// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/peerrec/internal/recommend"
)

// ErrTriggerThrottled is returned by Trigger when manual runs arrive faster
// than the configured rate.
var ErrTriggerThrottled = errors.New("run trigger throttled")

// RecommendEngine is the part of *recommend.Engine the service drives.
type RecommendEngine interface {
	Run(ctx context.Context) (*recommend.RunReport, error)
	Running() bool
	Status() recommend.RunStatus
}

// RecommendServiceConfig holds configuration for the recommendation service.
type RecommendServiceConfig struct {
	// RunOnStartup runs once as soon as the service starts.
	RunOnStartup bool

	// Interval between scheduled runs. Zero disables the schedule.
	Interval time.Duration

	// TriggerInterval is the minimum spacing of manual triggers once the
	// burst is spent.
	TriggerInterval time.Duration

	// TriggerBurst is the number of manual triggers allowed back to back.
	TriggerBurst int
}

// RecommendService runs the Engine on a schedule and on demand.
type RecommendService struct {
	engine   RecommendEngine
	config   RecommendServiceConfig
	limiter  *rate.Limiter
	triggers chan struct{}
	logger   zerolog.Logger
	name     string
}

// NewRecommendService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendService(engine RecommendEngine, cfg RecommendServiceConfig, logger zerolog.Logger) *RecommendService {
	limit := rate.Inf
	if cfg.TriggerInterval > 0 {
		limit = rate.Every(cfg.TriggerInterval)
	}
	burst := cfg.TriggerBurst
	if burst < 1 {
		burst = 1
	}

	return &RecommendService{
		engine:   engine,
		config:   cfg,
		limiter:  rate.NewLimiter(limit, burst),
		triggers: make(chan struct{}, 1),
		logger:   logger.With().Str("service", "recommend").Logger(),
		name:     "recommend-service",
	}
}

// Trigger queues a manual run. It does not wait for the run.
func (s *RecommendService) Trigger() error {
	if s.engine.Running() {
		return recommend.ErrRunInProgress
	}
	if len(s.triggers) > 0 {
		// One run is already queued.
		return recommend.ErrRunInProgress
	}
	if !s.limiter.Allow() {
		return ErrTriggerThrottled
	}
	select {
	case s.triggers <- struct{}{}:
		return nil
	default:
		return recommend.ErrRunInProgress
	}
}

// Status returns the engine status.
func (s *RecommendService) Status() recommend.RunStatus {
	return s.engine.Status()
}

// Serve implements suture.Service.
func (s *RecommendService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("recommendation service starting")

	if s.config.RunOnStartup {
		s.run(ctx, "startup")
	}

	var tick <-chan time.Time
	if s.config.Interval > 0 {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("recommendation service shutting down")
			return ctx.Err()
		case <-tick:
			s.run(ctx, "schedule")
		case <-s.triggers:
			s.run(ctx, "manual")
		}
	}
}

// run performs one run. Failures are logged and left to the next schedule;
// they are not service failures.
func (s *RecommendService) run(ctx context.Context, reason string) {
	report, err := s.engine.Run(ctx)
	switch {
	case errors.Is(err, recommend.ErrRunInProgress):
		s.logger.Debug().Str("reason", reason).Msg("run skipped, another run is active")
	case err != nil:
		s.logger.Warn().Err(err).Str("reason", reason).Msg("recommendation run failed")
	default:
		s.logger.Info().
			Str("reason", reason).
			Str("run_id", report.RunID).
			Int("slots", report.Slots).
			Dur("duration", report.Duration).
			Msg("recommendation run finished")
	}
}

// String returns the service name for logging.
func (s *RecommendService) String() string {
	return s.name
}
