// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/peerrec/config.yaml",
	"/etc/peerrec/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig reproduces the original batch job: products(id, category,
// brand) grouped by category then brand, four recommendations each, written to
// content_filtered.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "duckdb",
			DSN:             "/data/peerrec.duckdb",
			MaxMemory:       "1GB",
			Threads:         0, // 0 = runtime.NumCPU()
			MaxOpenConns:    0, // driver default
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 3,
			},
		},
		Catalog: CatalogConfig{
			Table:      "products",
			IDColumn:   "id",
			Attributes: []string{"category:VARCHAR", "brand:VARCHAR"},
		},
		Output: OutputConfig{
			Table:        "content_filtered",
			IDType:       "VARCHAR",
			ColumnPrefix: "rcmd_",
			ForeignKeys:  false,
		},
		Recommend: RecommendConfig{
			K:               4,
			MaxWorkers:      8,
			Timeout:         10 * time.Minute,
			Interval:        24 * time.Hour,
			RunOnStartup:    true,
			TriggerInterval: time.Minute,
			TriggerBurst:    1,
		},
		Snapshots: SnapshotConfig{
			Enabled:     true,
			Path:        "/data/snapshots",
			Retain:      10,
			Compression: true,
		},
		Events: EventsConfig{
			Enabled:        false,
			Backend:        "gochannel",
			NATSURL:        "nats://127.0.0.1:4222",
			Topic:          "recommendations.refreshed",
			PublishTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            3858,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			CacheTTL:        5 * time.Minute,
			CacheSize:       10000,
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			Timestamp: true,
		},
	}
}

// Load loads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file
// layer.
func LoadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"catalog.attributes",
	"recommend.path",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Database
	"db_driver":            "database.driver",
	"db_dsn":               "database.dsn",
	"db_max_memory":        "database.max_memory",
	"db_threads":           "database.threads",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",
	"db_seed_demo":         "database.seed_demo",

	"db_breaker_enabled":           "database.breaker.enabled",
	"db_breaker_max_requests":      "database.breaker.max_requests",
	"db_breaker_interval":          "database.breaker.interval",
	"db_breaker_timeout":           "database.breaker.timeout",
	"db_breaker_failure_threshold": "database.breaker.failure_threshold",

	// Catalog and output tables
	"catalog_table":        "catalog.table",
	"catalog_id_column":    "catalog.id_column",
	"catalog_attributes":   "catalog.attributes",
	"output_table":         "output.table",
	"output_id_type":       "output.id_type",
	"output_column_prefix": "output.column_prefix",
	"output_foreign_keys":  "output.foreign_keys",

	// Engine
	"recommend_k":                "recommend.k",
	"recommend_path":             "recommend.path",
	"recommend_seed":             "recommend.seed",
	"recommend_parallel":         "recommend.parallel",
	"recommend_max_workers":      "recommend.max_workers",
	"recommend_timeout":          "recommend.timeout",
	"recommend_dry_run":          "recommend.dry_run",
	"recommend_interval":         "recommend.interval",
	"recommend_run_on_startup":   "recommend.run_on_startup",
	"recommend_trigger_interval": "recommend.trigger_interval",
	"recommend_trigger_burst":    "recommend.trigger_burst",

	// Snapshots
	"snapshots_enabled":     "snapshots.enabled",
	"snapshots_path":        "snapshots.path",
	"snapshots_in_memory":   "snapshots.in_memory",
	"snapshots_retain":      "snapshots.retain",
	"snapshots_sync_writes": "snapshots.sync_writes",
	"snapshots_compression": "snapshots.compression",

	// Events
	"events_enabled":         "events.enabled",
	"events_backend":         "events.backend",
	"events_topic":           "events.topic",
	"events_publish_timeout": "events.publish_timeout",
	"nats_url":               "events.nats_url",

	// Server
	"http_enabled":          "server.enabled",
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",
	"cors_origins":          "server.cors_origins",
	"api_cache_ttl":         "server.cache_ttl",
	"api_cache_size":        "server.cache_size",
	"api_default_page_size": "server.default_page_size",
	"api_max_page_size":     "server.max_page_size",

	// Logging
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"log_caller":    "logging.caller",
	"log_timestamp": "logging.timestamp",
}

// envTransformFunc maps environment variable names to koanf paths. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
