// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.K != 4 {
		t.Errorf("K = %d, want 4", cfg.K)
	}
	if cfg.Path.String() != "[1 2]" {
		t.Errorf("Path = %s, want [1 2]", cfg.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero k", func(c *Config) { c.K = 0 }, true},
		{"empty path", func(c *Config) { c.Path = nil }, true},
		{"identifier in path", func(c *Config) { c.Path = AttributePath{0, 1} }, true},
		{"duplicate position", func(c *Config) { c.Path = AttributePath{1, 1} }, true},
		{"parallel without workers", func(c *Config) { c.Parallel = true; c.MaxWorkers = 0 }, true},
		{"parallel with workers", func(c *Config) { c.Parallel = true; c.MaxWorkers = 2 }, false},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfig) {
				t.Errorf("Validate() error = %v, want configuration error kind", err)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Path[0] = 5
	clone.K = 9

	if cfg.Path[0] != 1 || cfg.K != 4 {
		t.Errorf("Clone() shares state with the original: %+v", cfg)
	}
}

func TestAttributePath_Validate(t *testing.T) {
	if err := (AttributePath{1, 2}).Validate(3); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (AttributePath{1, 3}).Validate(3); !errors.Is(err, ErrFieldOutOfRange) {
		t.Errorf("Validate() error = %v, want ErrFieldOutOfRange", err)
	}
}
