// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package query

import (
	"errors"
	"fmt"
	"strings"
)

// Column is a column name with its store-native type.
type Column struct {
	Name string
	Type string
}

// ForeignKey names the column that recommendation columns reference.
type ForeignKey struct {
	Table  string
	Column string
}

// TableSpec describes the recommendation table: a composite primary key over
// the attribute columns followed by nullable item reference columns.
type TableSpec struct {
	Name       string
	KeyColumns []Column
	RefColumns []string
	RefType    string

	// References adds a foreign key per reference column when set.
	References *ForeignKey

	IfNotExists bool
}

// RefColumnNames returns prefix1 ... prefixK.
func RefColumnNames(prefix string, k int) []string {
	names := make([]string, k)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return names
}

// KeyNames returns the attribute column names.
func (s TableSpec) KeyNames() []string {
	names := make([]string, len(s.KeyColumns))
	for i, c := range s.KeyColumns {
		names[i] = c.Name
	}
	return names
}

// ColumnNames returns all columns in insert order.
func (s TableSpec) ColumnNames() []string {
	return append(s.KeyNames(), s.RefColumns...)
}

// Validate checks every identifier and type in the table definition.
func (s TableSpec) Validate() error {
	if err := ValidateIdent(s.Name); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if len(s.KeyColumns) == 0 {
		return errors.New("at least one key column is required")
	}
	if len(s.RefColumns) == 0 {
		return errors.New("at least one reference column is required")
	}

	seen := make(map[string]bool)
	for _, c := range s.KeyColumns {
		if err := ValidateIdent(c.Name); err != nil {
			return fmt.Errorf("key column: %w", err)
		}
		if err := ValidateType(c.Type); err != nil {
			return fmt.Errorf("key column %s: %w", c.Name, err)
		}
		if seen[strings.ToLower(c.Name)] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[strings.ToLower(c.Name)] = true
	}
	for _, name := range s.RefColumns {
		if err := ValidateIdent(name); err != nil {
			return fmt.Errorf("reference column: %w", err)
		}
		if seen[strings.ToLower(name)] {
			return fmt.Errorf("duplicate column %q", name)
		}
		seen[strings.ToLower(name)] = true
	}
	if err := ValidateType(s.RefType); err != nil {
		return fmt.Errorf("reference type: %w", err)
	}
	if s.References != nil {
		if err := ValidateIdent(s.References.Table); err != nil {
			return fmt.Errorf("foreign key table: %w", err)
		}
		if err := ValidateIdent(s.References.Column); err != nil {
			return fmt.Errorf("foreign key column: %w", err)
		}
	}
	return nil
}

// DropTableIfExists returns the statement removing table.
func DropTableIfExists(table string) (string, error) {
	if err := ValidateIdent(table); err != nil {
		return "", err
	}
	return "DROP TABLE IF EXISTS " + QuoteIdent(table), nil
}

// CreateTable returns the CREATE TABLE statement for spec.
func CreateTable(spec TableSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if spec.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(QuoteIdent(spec.Name))
	b.WriteString(" (\n")
	for _, c := range spec.KeyColumns {
		fmt.Fprintf(&b, "\t%s %s NOT NULL,\n", QuoteIdent(c.Name), strings.TrimSpace(c.Type))
	}
	for _, name := range spec.RefColumns {
		fmt.Fprintf(&b, "\t%s %s,\n", QuoteIdent(name), strings.TrimSpace(spec.RefType))
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)", quoteAll(spec.KeyNames()))
	if spec.References != nil {
		for _, name := range spec.RefColumns {
			fmt.Fprintf(&b, ",\n\tFOREIGN KEY (%s) REFERENCES %s (%s)",
				QuoteIdent(name), QuoteIdent(spec.References.Table), QuoteIdent(spec.References.Column))
		}
	}
	b.WriteString("\n)")
	return b.String(), nil
}

// Insert returns a parameterized INSERT for columns.
func Insert(d Dialect, table string, columns []string) (string, error) {
	if err := ValidateIdent(table); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", errors.New("insert needs at least one column")
	}
	if err := validateAll(columns); err != nil {
		return "", err
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table), quoteAll(columns), strings.Join(placeholders, ", ")), nil
}

// Select returns "SELECT columns FROM table", optionally followed by where.
func Select(table string, columns []string, where *WhereBuilder, d Dialect) (string, []any, error) {
	if err := ValidateIdent(table); err != nil {
		return "", nil, err
	}
	if len(columns) == 0 {
		return "", nil, errors.New("select needs at least one column")
	}
	if err := validateAll(columns); err != nil {
		return "", nil, err
	}

	q := fmt.Sprintf("SELECT %s FROM %s", quoteAll(columns), QuoteIdent(table))
	if where == nil || where.IsEmpty() {
		return q, nil, nil
	}
	clause, args, err := where.Build(d)
	if err != nil {
		return "", nil, err
	}
	return q + " WHERE " + clause, args, nil
}

// OrderedPage appends ORDER BY columns and LIMIT/OFFSET to a SELECT.
func OrderedPage(selectSQL string, orderBy []string, limit, offset int) (string, error) {
	if limit < 1 || offset < 0 {
		return "", fmt.Errorf("invalid page limit=%d offset=%d", limit, offset)
	}
	if err := validateAll(orderBy); err != nil {
		return "", err
	}
	q := selectSQL
	if len(orderBy) > 0 {
		q += " ORDER BY " + quoteAll(orderBy)
	}
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", q, limit, offset), nil
}
