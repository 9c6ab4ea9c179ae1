// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package main runs one recommendation recompute and prints its Run Report.
//
// Usage:
//
//	recompute [-config config.yaml] [-dry-run] [-seed N] [-k N] [-seed-demo N]
//
// Configuration is loaded the same way as the server (defaults, config file,
// environment). Flags override the loaded values. The report is written to
// stdout as JSON; the exit status is 1 when the run fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/database"
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
	"github.com/tomtom215/peerrec/internal/recommend/storage"
)

type options struct {
	configPath string
	dryRun     bool
	seed       int64
	k          int
	seedDemo   int
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("recompute", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{set: make(map[string]bool)}
	fs.StringVar(&opts.configPath, "config", "", "config file (default: CONFIG_PATH or the standard search paths)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "compute without replacing the output table")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed (0 picks a fresh one)")
	fs.IntVar(&opts.k, "k", 0, "recommendations per attribute combination")
	fs.IntVar(&opts.seedDemo, "seed-demo", 0, "replace the catalog with N random demo items first")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.set["dry-run"] {
		cfg.Recommend.DryRun = opts.dryRun
	}
	if opts.set["seed"] {
		cfg.Recommend.Seed = opts.seed
	}
	if opts.set["k"] {
		cfg.Recommend.K = opts.k
	}
	if opts.set["seed-demo"] {
		cfg.Database.SeedDemo = opts.seedDemo
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run performs one recompute and writes the report to stdout. A failed run
// still prints its report before returning the error.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	store := database.WithBreaker(db, cfg.Database.Breaker)

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := recommend.NewEngine(engineCfg, store, store, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}
	engine.AddListener(metrics.RunListener{})

	if cfg.Snapshots.Enabled {
		snapshots, err := storage.Open(cfg.Snapshots.StoreConfig(), logging.WithComponent("snapshots"))
		if err != nil {
			return err
		}
		defer func() {
			if err := snapshots.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing snapshot store")
			}
		}()
		engine.AddListener(snapshots)
	}

	report, runErr := engine.Run(ctx)
	if report != nil {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, string(out)); err != nil {
			return err
		}
	}
	return runErr
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.LoggerConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logging.Error().Err(err).Msg("Recompute failed")
		stop()
		os.Exit(1)
	}
}
