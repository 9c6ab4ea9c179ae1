// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"fmt"
	"time"
)

// Config contains the engine configuration.
type Config struct {
	// K is the number of recommendations per attribute permutation.
	K int `json:"k"`

	// Path lists the catalog record positions to group by, highest priority
	// first. Position 0 is the item identifier and cannot be used.
	Path AttributePath `json:"path"`

	// Seed is the random seed. Zero seeds from the clock; the seed actually
	// used is reported in RunReport.Seed.
	Seed int64 `json:"seed"`

	// Parallel walks sibling subtrees concurrently.
	Parallel bool `json:"parallel"`

	// MaxWorkers bounds concurrent subtree walks in parallel mode.
	MaxWorkers int `json:"max_workers"`

	// DryRun computes recommendations without replacing the stored table.
	DryRun bool `json:"dry_run"`

	// Timeout bounds one run including store I/O. Zero disables it.
	Timeout time.Duration `json:"timeout"`

	// Table names the replaced table in run reports.
	Table string `json:"table,omitempty"`
}

// DefaultConfig returns the defaults: four recommendations grouped by the
// first two attributes.
func DefaultConfig() *Config {
	return &Config{
		K:          4,
		Path:       AttributePath{1, 2},
		MaxWorkers: 8,
		Timeout:    10 * time.Minute,
	}
}

// Validate checks the configuration. Errors match ErrConfig.
func (c *Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidK, c.K)
	}
	if len(c.Path) == 0 {
		return ErrEmptyPath
	}
	seen := make(map[int]bool, len(c.Path))
	for _, pos := range c.Path {
		if pos < 1 {
			return fmt.Errorf("%w: position %d, attributes start at 1", ErrFieldOutOfRange, pos)
		}
		if seen[pos] {
			return fmt.Errorf("%w: position %d listed twice", ErrConfig, pos)
		}
		seen[pos] = true
	}
	if c.Parallel && c.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be positive in parallel mode, got %d", ErrConfig, c.MaxWorkers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %v", ErrConfig, c.Timeout)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Path = append(AttributePath(nil), c.Path...)
	return &clone
}
