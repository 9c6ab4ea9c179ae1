// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/peerrec/internal/database/query"
	"github.com/tomtom215/peerrec/internal/validation"
)

// Validate checks struct tags and then the cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateTables(); err != nil {
		return err
	}
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	if err := c.validateSnapshots(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateDatabase() error {
	dsn := strings.TrimSpace(c.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("DB_DSN is required for driver %s", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" {
		if err := validatePostgresDSN(dsn); err != nil {
			return fmt.Errorf("DB_DSN is invalid: %w", err)
		}
	}
	return nil
}

// validatePostgresDSN accepts URLs and libpq key=value strings.
func validatePostgresDSN(dsn string) error {
	if !strings.Contains(dsn, "://") {
		if !strings.Contains(dsn, "=") {
			return fmt.Errorf("expected a postgres:// URL or key=value pairs")
		}
		return nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("scheme must be postgres or postgresql, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// validateTables checks the attribute list and that no attribute column
// collides with the id column or a recommendation column.
func (c *Config) validateTables() error {
	attrs, err := c.Catalog.ParsedAttributes()
	if err != nil {
		return fmt.Errorf("CATALOG_ATTRIBUTES: %w", err)
	}

	refColumns := make(map[string]bool, c.Recommend.K)
	for _, name := range query.RefColumnNames(c.Output.ColumnPrefix, c.Recommend.K) {
		refColumns[strings.ToLower(name)] = true
	}

	for _, attr := range attrs {
		if err := query.ValidateIdent(attr.Name); err != nil {
			return fmt.Errorf("CATALOG_ATTRIBUTES: %w", err)
		}
		if err := query.ValidateType(attr.Type); err != nil {
			return fmt.Errorf("CATALOG_ATTRIBUTES: %w", err)
		}
		if strings.EqualFold(attr.Name, c.Catalog.IDColumn) {
			return fmt.Errorf("CATALOG_ATTRIBUTES: %q is the id column", attr.Name)
		}
		if refColumns[strings.ToLower(attr.Name)] {
			return fmt.Errorf("CATALOG_ATTRIBUTES: %q collides with a recommendation column", attr.Name)
		}
	}

	if strings.EqualFold(c.Catalog.Table, c.Output.Table) {
		return fmt.Errorf("OUTPUT_TABLE must differ from CATALOG_TABLE, both are %q", c.Output.Table)
	}
	return nil
}

func (c *Config) validateSnapshots() error {
	if c.Snapshots.Enabled && !c.Snapshots.InMemory && c.Snapshots.Path == "" {
		return fmt.Errorf("SNAPSHOTS_PATH is required when snapshots are enabled on disk")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled || c.Events.Backend != "nats" {
		return nil
	}
	if c.Events.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_BACKEND=nats")
	}
	if err := validateNATSURL(c.Events.NATSURL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	return nil
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.DefaultPageSize > c.Server.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE (%d) exceeds API_MAX_PAGE_SIZE (%d)",
			c.Server.DefaultPageSize, c.Server.MaxPageSize)
	}
	return nil
}

// HasWildcardCORS reports whether any allowed origin is "*".
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
