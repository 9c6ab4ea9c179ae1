// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"fmt"
	"strings"
	"time"
)

// Record is one catalog row. Field 0 is the item identifier, the remaining
// fields are attributes. Field values must be comparable.
type Record []any

// ID returns the item identifier.
func (r Record) ID() any {
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// Key returns the values at the given path positions.
func (r Record) Key(path AttributePath) []any {
	key := make([]any, len(path))
	for i, pos := range path {
		key[i] = r[pos]
	}
	return key
}

// AttributePath lists record field positions in grouping priority order.
type AttributePath []int

// Validate checks the path against the width of a record.
func (p AttributePath) Validate(width int) error {
	if len(p) == 0 {
		return ErrEmptyPath
	}
	for _, pos := range p {
		if pos < 0 || pos >= width {
			return fmt.Errorf("%w: position %d, record width %d", ErrFieldOutOfRange, pos, width)
		}
	}
	return nil
}

// String renders the path as "[1 2]".
func (p AttributePath) String() string {
	parts := make([]string, len(p))
	for i, pos := range p {
		parts[i] = fmt.Sprint(pos)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// GroupNode is a node of the partition tree built by Group.
// It is either a *Leaf or an *Interior.
type GroupNode interface {
	groupNode()
}

// Leaf holds the records sharing one full attribute permutation.
type Leaf struct {
	Records []Record
}

// Interior maps the attribute values of one path position to child nodes.
// Values keeps first-seen order.
type Interior struct {
	Values   []any
	Children map[any]GroupNode
}

func (*Leaf) groupNode()     {}
func (*Interior) groupNode() {}

// Child returns the child node for value. NaN values find the NaN bucket.
func (n *Interior) Child(value any) (GroupNode, bool) {
	child, ok := n.Children[groupKey(value)]
	return child, ok
}

// Slot accumulates the recommendations for one attribute permutation.
type Slot struct {
	// Entries holds the selected records. The slot's own records come first.
	Entries []Record

	// Complete is set once the slot reached its quota.
	Complete bool

	// Degraded marks a complete slot shorter than K because the whole
	// catalog is smaller than K.
	Degraded bool

	deferred bool
}

// IDs returns the identifiers of the slot's entries.
func (s *Slot) IDs() []any {
	ids := make([]any, len(s.Entries))
	for i, rec := range s.Entries {
		ids[i] = rec.ID()
	}
	return ids
}

// Batch is the result of one Recommender call: the slots of a subtree and the
// indices (ascending) of those still short of their quota.
type Batch struct {
	Slots      []*Slot
	Incomplete []int
}

// ExportRow is one row of the recommendation table.
type ExportRow struct {
	Key     []any `json:"key"`
	ItemIDs []any `json:"item_ids"`
}

// Args returns the row's values in table column order.
func (r ExportRow) Args() []any {
	args := make([]any, 0, len(r.Key)+len(r.ItemIDs))
	args = append(args, r.Key...)
	return append(args, r.ItemIDs...)
}

// FallbackStats counts how short slots were resolved during one run.
type FallbackStats struct {
	PeerBorrowed int `json:"peer_borrowed"`
	GlobalFilled int `json:"global_filled"`
	Deferred     int `json:"deferred"`
	Degraded     int `json:"degraded"`
}

// RunReport summarizes one Engine run.
type RunReport struct {
	RunID       string        `json:"run_id"`
	Seed        int64         `json:"seed"`
	K           int           `json:"k"`
	Path        AttributePath `json:"path"`
	Records     int           `json:"records"`
	Groups      int           `json:"groups"`
	Slots       int           `json:"slots"`
	Fallbacks   FallbackStats `json:"fallbacks"`
	DryRun      bool          `json:"dry_run"`
	Table       string        `json:"table,omitempty"`

	// SnapshotVersion is set by the snapshot store once the run's rows
	// are saved. Zero means no snapshot was taken.
	SnapshotVersion int64 `json:"snapshot_version,omitempty"`

	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`

	// Rows is the exported output. It is handed to listeners and not
	// serialized with the report.
	Rows []ExportRow `json:"-"`
}

// Succeeded reports whether the run finished without error.
func (r *RunReport) Succeeded() bool {
	return r.Error == ""
}

// RunStatus describes the engine's current state.
type RunStatus struct {
	Running  bool       `json:"running"`
	Runs     int64      `json:"runs"`
	Failures int64      `json:"failures"`
	LastRun  *RunReport `json:"last_run,omitempty"`
}
