// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

// scenarioRecords returns five (A,X) items and one (B,Y) item.
func scenarioRecords() []Record {
	return []Record{
		{1, "A", "X"},
		{2, "A", "X"},
		{3, "A", "X"},
		{4, "A", "X"},
		{5, "A", "X"},
		{6, "B", "Y"},
	}
}

// leaves returns the leaves under node in tree order.
func leaves(node GroupNode) []*Leaf {
	var out []*Leaf
	var walk func(GroupNode)
	walk = func(node GroupNode) {
		switch n := node.(type) {
		case *Leaf:
			out = append(out, n)
		case *Interior:
			for _, value := range n.Values {
				walk(n.Children[value])
			}
		}
	}
	walk(node)
	return out
}

// catalog builds n records spread over categories and brands.
func catalog(n, categories, brands int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			fmt.Sprintf("p%03d", i),
			fmt.Sprintf("cat-%d", i%categories),
			fmt.Sprintf("brand-%d", (i/categories)%brands),
		}
	}
	return records
}

func TestGroup_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		path    AttributePath
		wantErr error
	}{
		{"empty catalog", nil, AttributePath{1}, ErrEmptyCatalog},
		{"empty path", scenarioRecords(), nil, ErrEmptyPath},
		{"position past width", scenarioRecords(), AttributePath{1, 3}, ErrFieldOutOfRange},
		{"negative position", scenarioRecords(), AttributePath{-1}, ErrFieldOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Group(tt.records, tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Group() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("Group() error = %v, want configuration error kind", err)
			}
		})
	}
}

func TestGroup_Structure(t *testing.T) {
	root, err := Group(scenarioRecords(), AttributePath{1, 2})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	top, ok := root.(*Interior)
	if !ok {
		t.Fatalf("root is %T, want *Interior", root)
	}
	if len(top.Values) != 2 || top.Values[0] != "A" || top.Values[1] != "B" {
		t.Fatalf("root values = %v, want [A B]", top.Values)
	}

	a, _ := top.Child("A")
	brands, ok := a.(*Interior)
	if !ok {
		t.Fatalf("child A is %T, want *Interior", a)
	}
	x, _ := brands.Child("X")
	leaf, ok := x.(*Leaf)
	if !ok {
		t.Fatalf("child A/X is %T, want *Leaf", x)
	}
	if len(leaf.Records) != 5 {
		t.Errorf("leaf A/X has %d records, want 5", len(leaf.Records))
	}

	if got := Countleaves(root); got != 2 {
		t.Errorf("CountLeaves() = %d, want 2", got)
	}
}

func TestGroup_PartitionTotality(t *testing.T) {
	records := catalog(97, 5, 4)
	path := AttributePath{1, 2}

	root, err := Group(records, path)
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	seen := make(map[any]int)
	for _, leaf := range leaves(root) {
		if len(leaf.Records) == 0 {
			t.Fatal("empty leaf")
		}
		first := leaf.Records[0]
		for _, rec := range leaf.Records {
			seen[rec.ID()]++
			for _, pos := range path {
				if rec[pos] != first[pos] {
					t.Errorf("leaf mixes %v and %v at position %d", rec[pos], first[pos], pos)
				}
			}
		}
	}

	if len(seen) != len(records) {
		t.Errorf("leaves hold %d distinct records, want %d", len(seen), len(records))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("record %v appears %d times", id, count)
		}
	}
}

func TestGroup_Deterministic(t *testing.T) {
	records := catalog(60, 3, 3)

	first, err := Group(records, AttributePath{2, 1})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	second, err := Group(records, AttributePath{2, 1})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}

	a, b := leaves(first), leaves(second)
	if len(a) != len(b) {
		t.Fatalf("leaf counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if len(a[i].Records) != len(b[i].Records) {
			t.Fatalf("leaf %d sizes differ", i)
		}
		for j := range a[i].Records {
			if a[i].Records[j].ID() != b[i].Records[j].ID() {
				t.Errorf("leaf %d record %d differs", i, j)
			}
		}
	}
}

func TestGroup_NilAttributeValue(t *testing.T) {
	records := []Record{
		{1, nil, "X"},
		{2, nil, "X"},
		{3, "A", "X"},
	}
	root, err := Group(records, AttributePath{1})
	if err != nil {
		t.Fatalf("Group() error = %v", err)
	}
	if got := Countleaves(root); got != 2 {
		t.Errorf("CountLeaves() = %d, want 2", got)
	}
}

func TestGroup_NaNAttributeValue(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{"float64", []Record{{1, "A", math.NaN()}, {2, "A", math.NaN()}, {3, "A", 1.0}, {4, "A", 1.0}}},
		{"float32", []Record{{1, "A", float32(math.NaN())}, {2, "A", float32(math.NaN())}, {3, "A", float32(1)}, {4, "A", float32(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Group(tt.records, AttributePath{1, 2})
			if err != nil {
				t.Fatalf("Group() error = %v", err)
			}

			top := root.(*Interior)
			a, _ := top.Child("A")
			if _, ok := a.(*Interior).Child(math.NaN()); !ok {
				t.Error("Child(NaN) not found")
			}

			got := leaves(root)
			if len(got) != 2 {
				t.Fatalf("got %d leaves, want 2", len(got))
			}
			total := 0
			for _, leaf := range got {
				if len(leaf.Records) != 2 {
					t.Errorf("leaf holds %d records, want 2", len(leaf.Records))
				}
				total += len(leaf.Records)
			}
			if total != len(tt.records) {
				t.Errorf("leaves hold %d records, want %d", total, len(tt.records))
			}

			r, err := NewRecommender(tt.records, 2, RecommenderOptions{})
			if err != nil {
				t.Fatalf("NewRecommender() error = %v", err)
			}
			batch := r.Recommend(root, NewRand(1))
			if len(batch.Slots) != 2 {
				t.Fatalf("got %d slots, want 2", len(batch.Slots))
			}
			for i, slot := range batch.Slots {
				if !slot.Complete || len(slot.Entries) != 2 {
					t.Errorf("slot %d = %d entries complete=%v", i, len(slot.Entries), slot.Complete)
				}
			}
		})
	}
}
