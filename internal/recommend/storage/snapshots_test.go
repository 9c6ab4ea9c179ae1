// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/peerrec/internal/recommend"
)

func newTestStore(t *testing.T, retain int) *Store {
	t.Helper()
	store, err := Open(Config{InMemory: true, Retain: retain}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testReport(runID string) *recommend.RunReport {
	return &recommend.RunReport{
		RunID:       runID,
		Seed:        42,
		K:           2,
		Path:        recommend.AttributePath{1, 2},
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Rows: []recommend.ExportRow{
			{Key: []any{"A", "X"}, ItemIDs: []any{"p1", "p2"}},
			{Key: []any{"B", "Y"}, ItemIDs: []any{"p3", nil}},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"in memory", Config{InMemory: true}, false},
		{"path", Config{Path: "/tmp/snapshots", Retain: 3}, false},
		{"missing path", Config{}, true},
		{"negative retain", Config{InMemory: true, Retain: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	meta, err := store.Save(ctx, testReport("run-1"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if meta.Version != 1 || meta.Rows != 2 || meta.Checksum == "" {
		t.Errorf("Save() meta = %+v", meta)
	}

	snap, err := store.Load(ctx, 1)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Meta.RunID != "run-1" || snap.Meta.Seed != 42 {
		t.Errorf("Load() meta = %+v", snap.Meta)
	}
	if len(snap.Rows) != 2 {
		t.Fatalf("Load() rows = %d, want 2", len(snap.Rows))
	}
	if snap.Rows[0].Key[1] != "X" || snap.Rows[0].ItemIDs[1] != "p2" {
		t.Errorf("row 0 = %+v", snap.Rows[0])
	}
	if snap.Rows[1].ItemIDs[1] != nil {
		t.Errorf("padded id = %v, want nil", snap.Rows[1].ItemIDs[1])
	}
}

func TestStore_LoadLatest(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	if _, err := store.Load(ctx, 0); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load() on empty store error = %v, want ErrSnapshotNotFound", err)
	}

	for i := 1; i <= 3; i++ {
		if _, err := store.Save(ctx, testReport(fmt.Sprintf("run-%d", i))); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	snap, err := store.Load(ctx, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Meta.Version != 3 || snap.Meta.RunID != "run-3" {
		t.Errorf("latest = version %d run %s, want 3 run-3", snap.Meta.Version, snap.Meta.RunID)
	}

	if _, err := store.Load(ctx, 9); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load(9) error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_NumericIDs(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	report := testReport("numeric")
	report.Rows = []recommend.ExportRow{{Key: []any{"A"}, ItemIDs: []any{int64(17)}}}
	if _, err := store.Save(ctx, report); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	snap, err := store.Load(ctx, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	num, ok := snap.Rows[0].ItemIDs[0].(json.Number)
	if !ok || num.String() != "17" {
		t.Errorf("id = %#v, want json.Number 17", snap.Rows[0].ItemIDs[0])
	}
}

func TestStore_RetainPrunesOldest(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := store.Save(ctx, testReport(fmt.Sprintf("run-%d", i))); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	metas, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List() = %d snapshots, want 2", len(metas))
	}
	if metas[0].Version != 5 || metas[1].Version != 4 {
		t.Errorf("List() versions = %d, %d, want 5, 4", metas[0].Version, metas[1].Version)
	}
	if _, err := store.Load(ctx, 1); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("Load(1) error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_OnRunFinished(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	failed := testReport("failed")
	failed.Error = "store access error"
	if err := store.OnRunFinished(ctx, failed); err != nil {
		t.Fatalf("OnRunFinished() error = %v", err)
	}
	dry := testReport("dry")
	dry.DryRun = true
	if err := store.OnRunFinished(ctx, dry); err != nil {
		t.Fatalf("OnRunFinished() error = %v", err)
	}
	if dry.SnapshotVersion != 0 {
		t.Errorf("dry run SnapshotVersion = %d, want 0", dry.SnapshotVersion)
	}

	ok := testReport("ok")
	if err := store.OnRunFinished(ctx, ok); err != nil {
		t.Fatalf("OnRunFinished() error = %v", err)
	}

	metas, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 1 || metas[0].RunID != "ok" {
		t.Errorf("List() = %+v, want only the successful run", metas)
	}
	if len(metas) == 1 && ok.SnapshotVersion != metas[0].Version {
		t.Errorf("SnapshotVersion = %d, want %d", ok.SnapshotVersion, metas[0].Version)
	}

	latest, err := store.Load(ctx, 0)
	if err != nil {
		t.Fatalf("Load(latest) error = %v", err)
	}
	if latest.Meta.RunID != "ok" {
		t.Errorf("latest snapshot = %s, want ok", latest.Meta.RunID)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	ctx := context.Background()

	store, err := Open(Config{Path: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := store.Save(ctx, testReport("before")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := store.Save(ctx, testReport("after close")); !errors.Is(err, ErrClosed) {
		t.Errorf("Save() after Close error = %v, want ErrClosed", err)
	}

	reopened, err := Open(Config{Path: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	meta, err := reopened.Save(ctx, testReport("second"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if meta.Version != 2 {
		t.Errorf("version after reopen = %d, want 2", meta.Version)
	}
}
