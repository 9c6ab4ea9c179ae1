// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package services

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// PublisherService keeps the event publisher alive for the lifetime of the
// messaging layer and closes it on shutdown.
type PublisherService struct {
	publisher io.Closer
	logger    zerolog.Logger
	name      string
}

// NewPublisherService wraps publisher.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisherService(publisher io.Closer, logger zerolog.Logger) *PublisherService {
	return &PublisherService{
		publisher: publisher,
		logger:    logger.With().Str("service", "events").Logger(),
		name:      "event-publisher",
	}
}

// Serve implements suture.Service.
func (p *PublisherService) Serve(ctx context.Context) error {
	p.logger.Info().Msg("event publisher ready")
	<-ctx.Done()
	if err := p.publisher.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("event publisher close failed")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logs.
func (p *PublisherService) String() string {
	return p.name
}

// JanitorService calls a cleanup function on an interval.
type JanitorService struct {
	name     string
	interval time.Duration
	cleanup  func() int
	logger   zerolog.Logger
}

// NewJanitorService runs cleanup every interval. cleanup returns the number of
// items it removed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitorService(name string, interval time.Duration, cleanup func() int, logger zerolog.Logger) *JanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &JanitorService{
		name:     name,
		interval: interval,
		cleanup:  cleanup,
		logger:   logger.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := j.cleanup(); removed > 0 {
				j.logger.Debug().Int("removed", removed).Msg("cleanup pass")
			}
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (j *JanitorService) String() string {
	return j.name
}
