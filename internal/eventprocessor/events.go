// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package eventprocessor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/peerrec/internal/recommend"
)

// RefreshedEvent announces that the recommendation table was replaced.
type RefreshedEvent struct {
	EventID     string                  `json:"event_id"`
	RunID       string                  `json:"run_id"`
	Table       string                  `json:"table"`
	Rows        int                     `json:"rows"`
	K           int                     `json:"k"`
	Path        recommend.AttributePath `json:"path"`
	Seed        int64                   `json:"seed"`
	Fallbacks   recommend.FallbackStats `json:"fallbacks"`
	CompletedAt time.Time               `json:"completed_at"`

	// SnapshotVersion is set when the snapshot store saved the run first.
	SnapshotVersion int64 `json:"snapshot_version,omitempty"`
}

// NewRefreshedEvent builds the event for a finished run.
func NewRefreshedEvent(report *recommend.RunReport, table string) *RefreshedEvent {
	return &RefreshedEvent{
		EventID:     uuid.NewString(),
		RunID:       report.RunID,
		Table:       table,
		Rows:        len(report.Rows),
		K:           report.K,
		Path:        report.Path,
		Seed:        report.Seed,
		Fallbacks:   report.Fallbacks,
		CompletedAt: report.CompletedAt.UTC(),

		SnapshotVersion: report.SnapshotVersion,
	}
}

// Validate checks the fields consumers rely on.
func (e *RefreshedEvent) Validate() error {
	if e.EventID == "" {
		return errors.New("event_id is required")
	}
	if e.RunID == "" {
		return errors.New("run_id is required")
	}
	if e.Table == "" {
		return errors.New("table is required")
	}
	if e.K < 1 {
		return fmt.Errorf("k must be positive, got %d", e.K)
	}
	if e.Rows < 0 {
		return fmt.Errorf("rows must not be negative, got %d", e.Rows)
	}
	return nil
}
