// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

//go:build integration

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/peerrec/internal/recommend"
	"github.com/tomtom215/peerrec/internal/testinfra"
)

func TestPostgres_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("NewPostgresContainer() error = %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	cfg := testConfig("postgres")
	cfg.Database.DSN = pg.DSN
	cfg.Output.ForeignKeys = true
	db := setupTestDB(t, cfg)

	if db.Dialect().String() != "postgres" {
		t.Fatalf("Dialect() = %s", db.Dialect())
	}

	t.Run("seed and load", func(t *testing.T) {
		if err := db.SeedDemoCatalog(ctx, 60, 5); err != nil {
			t.Fatalf("SeedDemoCatalog() error = %v", err)
		}
		records, err := db.LoadCatalog(ctx)
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		if len(records) != 60 {
			t.Errorf("LoadCatalog() returned %d records, want 60", len(records))
		}
	})

	t.Run("replace and lookup", func(t *testing.T) {
		rows := []recommend.ExportRow{
			keyRow("shoes", "acme", "item-00001", "item-00002"),
			keyRow("bags", "hooli", "item-00003"),
		}
		if err := db.ReplaceRecommendations(ctx, rows); err != nil {
			t.Fatalf("ReplaceRecommendations() error = %v", err)
		}

		got, err := db.Lookup(ctx, []any{"shoes", "acme"})
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if fmt.Sprint(got.ItemIDs) != "[item-00001 item-00002 <nil> <nil>]" {
			t.Errorf("ItemIDs = %v", got.ItemIDs)
		}
		if _, err := db.Lookup(ctx, []any{"hats", "acme"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(miss) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("foreign key violation rolls back", func(t *testing.T) {
		rows := []recommend.ExportRow{keyRow("shoes", "acme", "no-such-item")}
		if err := db.ReplaceRecommendations(ctx, rows); err == nil {
			t.Fatal("ReplaceRecommendations() accepted a dangling reference")
		}
		if n, err := db.Count(ctx); err != nil || n != 2 {
			t.Errorf("Count() = %d, %v; want previous 2 rows", n, err)
		}
	})

	t.Run("engine round trip", func(t *testing.T) {
		engineCfg, err := cfg.EngineConfig()
		if err != nil {
			t.Fatal(err)
		}
		engineCfg.Seed = 11
		engine, err := recommend.NewEngine(engineCfg, db, NewResilient(db, cfg.Database.Breaker), zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		report, err := engine.Run(ctx)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		n, err := db.Count(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if int(n) != report.Slots {
			t.Errorf("stored rows = %d, report slots = %d", n, report.Slots)
		}
	})
}
