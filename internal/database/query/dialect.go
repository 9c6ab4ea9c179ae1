// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect selects driver-specific SQL syntax.
type Dialect int

// Supported dialects.
const (
	DuckDB Dialect = iota
	SQLite
	Postgres
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "duckdb":
		return DuckDB, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// String returns the driver name.
func (d Dialect) String() string {
	switch d {
	case DuckDB:
		return "duckdb"
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// DriverName returns the database/sql driver name registered for d.
func (d Dialect) DriverName() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "pgx"
	default:
		return "duckdb"
	}
}

// Placeholder returns the bind parameter for 1-based position n.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	typePattern  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\(\s*\d+(\s*,\s*\d+)?\s*\))?$`)
)

// ValidateIdent checks a table or column name. Qualified names ("schema.table")
// are accepted part by part.
func ValidateIdent(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	for _, part := range strings.Split(name, ".") {
		if !identPattern.MatchString(part) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

// ValidateType checks a column type such as VARCHAR, INTEGER or DECIMAL(10, 2).
func ValidateType(typ string) error {
	if !typePattern.MatchString(strings.TrimSpace(typ)) {
		return fmt.Errorf("invalid column type %q", typ)
	}
	return nil
}

// QuoteIdent double-quotes each part of a validated identifier.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func validateAll(names []string) error {
	for _, n := range names {
		if err := ValidateIdent(n); err != nil {
			return err
		}
	}
	return nil
}
