// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package eventprocessor

import (
	"context"

	"github.com/tomtom215/peerrec/internal/recommend"
)

// RunListener publishes a RefreshedEvent after each run that replaced the
// recommendation table. Failed and dry runs are skipped.
type RunListener struct {
	publisher *Publisher
	table     string
}

var _ recommend.RunListener = (*RunListener)(nil)

// NewRunListener returns a listener announcing refreshes of table.
func NewRunListener(publisher *Publisher, table string) *RunListener {
	return &RunListener{publisher: publisher, table: table}
}

// OnRunFinished implements recommend.RunListener.
func (l *RunListener) OnRunFinished(ctx context.Context, report *recommend.RunReport) error {
	if !report.Succeeded() || report.DryRun {
		return nil
	}
	event := NewRefreshedEvent(report, l.table)
	if err := l.publisher.Publish(ctx, event); err != nil {
		return err
	}
	l.publisher.logger.Debug().
		Str("event_id", event.EventID).
		Str("run_id", event.RunID).
		Int("rows", event.Rows).
		Msg("published recommendations refreshed event")
	return nil
}
