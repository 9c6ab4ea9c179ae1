// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"errors"
	"testing"
)

func TestExport_Shape(t *testing.T) {
	records := catalog(64, 4, 4)
	path := AttributePath{1, 2}
	batch, _ := mustRecommend(t, records, path, 4, 11, RecommenderOptions{})

	rows, err := Export(batch, path, 4)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(rows) != len(batch.Slots) {
		t.Fatalf("got %d rows, want %d", len(rows), len(batch.Slots))
	}

	for i, row := range rows {
		slot := batch.Slots[i]
		if len(row.Key) != len(path) {
			t.Errorf("row %d key has %d values, want %d", i, len(row.Key), len(path))
		}
		if len(row.ItemIDs) != 4 {
			t.Errorf("row %d has %d ids, want 4", i, len(row.ItemIDs))
		}
		for j, pos := range path {
			if row.Key[j] != slot.Entries[0][pos] {
				t.Errorf("row %d key[%d] = %v, want %v", i, j, row.Key[j], slot.Entries[0][pos])
			}
		}
		for j, rec := range slot.Entries {
			if row.ItemIDs[j] != rec.ID() {
				t.Errorf("row %d id[%d] = %v, want %v", i, j, row.ItemIDs[j], rec.ID())
			}
		}
		if got := len(row.Args()); got != len(path)+4 {
			t.Errorf("row %d Args() has %d values, want %d", i, got, len(path)+4)
		}
	}
}

func TestExport_PadsDegradedSlots(t *testing.T) {
	batch := Batch{Slots: []*Slot{{
		Entries:  []Record{{7, "A"}, {8, "B"}},
		Complete: true,
		Degraded: true,
	}}}

	rows, err := Export(batch, AttributePath{1}, 4)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	want := []any{7, 8, nil, nil}
	for i, id := range rows[0].ItemIDs {
		if id != want[i] {
			t.Errorf("id[%d] = %v, want %v", i, id, want[i])
		}
	}
	if rows[0].Key[0] != "A" {
		t.Errorf("key = %v, want [A]", rows[0].Key)
	}
}

func TestExport_RejectsIncompleteSlots(t *testing.T) {
	batch := Batch{
		Slots:      []*Slot{{Entries: []Record{{1, "A"}}}},
		Incomplete: []int{0},
	}

	if _, err := Export(batch, AttributePath{1}, 4); !errors.Is(err, ErrIncompleteSlot) {
		t.Errorf("Export() error = %v, want ErrIncompleteSlot", err)
	}
}

func TestExport_RejectsOversizedSlots(t *testing.T) {
	batch := Batch{Slots: []*Slot{{
		Entries:  []Record{{1, "A"}, {2, "A"}, {3, "A"}},
		Complete: true,
	}}}

	if _, err := Export(batch, AttributePath{1}, 2); err == nil {
		t.Error("Export() error = nil, want error for slot larger than k")
	}
}

func TestExport_EmptyBatch(t *testing.T) {
	rows, err := Export(Batch{}, AttributePath{1}, 4)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
