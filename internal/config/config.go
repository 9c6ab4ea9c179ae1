// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/peerrec/internal/recommend"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Output    OutputConfig    `koanf:"output"`
	Recommend RecommendConfig `koanf:"recommend"`
	Snapshots SnapshotConfig  `koanf:"snapshots"`
	Events    EventsConfig    `koanf:"events"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig selects and tunes the catalog/recommendation store.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" validate:"oneof=duckdb sqlite postgres"`
	DSN             string        `koanf:"dsn"`
	MaxMemory       string        `koanf:"max_memory"` // DuckDB only
	Threads         int           `koanf:"threads" validate:"gte=0"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
	SeedDemo        int           `koanf:"seed_demo" validate:"gte=0"` // demo catalog rows created at startup
	Breaker         BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around store calls.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"` // probes allowed while half-open
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"` // open state duration
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// CatalogConfig describes the catalog query.
type CatalogConfig struct {
	Table    string `koanf:"table" validate:"required,sqlident"`
	IDColumn string `koanf:"id_column" validate:"required,sqlident"`

	// Attributes are "column:TYPE" entries in record order. The type is the
	// store-native column type used for the output table and defaults to VARCHAR.
	Attributes []string `koanf:"attributes" validate:"min=1"`
}

// Attribute is one parsed catalog attribute.
type Attribute struct {
	Name string
	Type string
}

// ParsedAttributes parses Attributes.
func (c CatalogConfig) ParsedAttributes() ([]Attribute, error) {
	attrs := make([]Attribute, 0, len(c.Attributes))
	seen := make(map[string]bool, len(c.Attributes))
	for _, raw := range c.Attributes {
		attr, err := ParseAttribute(raw)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(attr.Name)
		if seen[key] {
			return nil, fmt.Errorf("attribute %q listed twice", attr.Name)
		}
		seen[key] = true
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// ParseAttribute parses "name" or "name:TYPE".
func ParseAttribute(raw string) (Attribute, error) {
	name, typ, found := strings.Cut(strings.TrimSpace(raw), ":")
	name = strings.TrimSpace(name)
	typ = strings.TrimSpace(typ)
	if name == "" {
		return Attribute{}, fmt.Errorf("attribute %q has no name", raw)
	}
	if found && typ == "" {
		return Attribute{}, fmt.Errorf("attribute %q has an empty type", raw)
	}
	if typ == "" {
		typ = "VARCHAR"
	}
	return Attribute{Name: name, Type: typ}, nil
}

// OutputConfig describes the recommendation table.
type OutputConfig struct {
	Table        string `koanf:"table" validate:"required,sqlident"`
	IDType       string `koanf:"id_type" validate:"required,sqltype"`
	ColumnPrefix string `koanf:"column_prefix" validate:"required,sqlident"`
	ForeignKeys  bool   `koanf:"foreign_keys"`
}

// RecommendConfig configures the engine and its scheduling.
type RecommendConfig struct {
	K int `koanf:"k" validate:"gte=1"`

	// Path lists 1-based attribute positions, highest priority first. Empty
	// means every configured attribute in order.
	Path []int `koanf:"path"`

	Seed         int64         `koanf:"seed"`
	Parallel     bool          `koanf:"parallel"`
	MaxWorkers   int           `koanf:"max_workers" validate:"gte=1"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	DryRun       bool          `koanf:"dry_run"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"` // 0 disables scheduled runs
	RunOnStartup bool          `koanf:"run_on_startup"`

	// TriggerInterval is the minimum spacing of manual triggers after the
	// burst is used up.
	TriggerInterval time.Duration `koanf:"trigger_interval" validate:"gt=0"`
	TriggerBurst    int           `koanf:"trigger_burst" validate:"gte=1"`
}

// SnapshotConfig configures the BadgerDB run snapshot store.
type SnapshotConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Path        string `koanf:"path"`
	InMemory    bool   `koanf:"in_memory"`
	Retain      int    `koanf:"retain" validate:"gte=0"`
	SyncWrites  bool   `koanf:"sync_writes"`
	Compression bool   `koanf:"compression"`
}

// EventsConfig configures the run event publisher.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Backend string `koanf:"backend" validate:"oneof=gochannel nats"`
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic" validate:"required"`

	PublishTimeout time.Duration `koanf:"publish_timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gte=0"` // 0 disables the lookup cache
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`

	DefaultPageSize int `koanf:"default_page_size" validate:"gte=1"`
	MaxPageSize     int `koanf:"max_page_size" validate:"gte=1"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level     string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format    string `koanf:"format" validate:"oneof=json console"`
	Caller    bool   `koanf:"caller"`
	Timestamp bool   `koanf:"timestamp"`
}

// EngineConfig converts the recommend section into an engine configuration.
// The path defaults to every attribute in order and must stay within the
// configured attributes.
func (c *Config) EngineConfig() (*recommend.Config, error) {
	width := len(c.Catalog.Attributes)
	path := recommend.AttributePath(append([]int(nil), c.Recommend.Path...))
	if len(path) == 0 {
		path = make(recommend.AttributePath, width)
		for i := range path {
			path[i] = i + 1
		}
	}
	for _, pos := range path {
		if pos > width {
			return nil, fmt.Errorf("%w: position %d, catalog has %d attributes",
				recommend.ErrFieldOutOfRange, pos, width)
		}
	}

	cfg := &recommend.Config{
		K:          c.Recommend.K,
		Path:       path,
		Seed:       c.Recommend.Seed,
		Parallel:   c.Recommend.Parallel,
		MaxWorkers: c.Recommend.MaxWorkers,
		DryRun:     c.Recommend.DryRun,
		Timeout:    c.Recommend.Timeout,
		Table:      c.Output.Table,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
