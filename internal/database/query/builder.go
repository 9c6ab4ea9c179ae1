// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package query

import (
	"fmt"
	"strings"
)

type condition struct {
	column string
	value  any
	isNull bool
}

// WhereBuilder collects equality conditions joined with AND. Placeholders are
// rendered for a dialect when Build is called.
//
//	wb := query.NewWhereBuilder()
//	wb.AddEquals("category", "shoes").AddEquals("brand", nil)
//	clause, args, err := wb.Build(query.Postgres)
//	// "category" = $1 AND "brand" IS NULL
type WhereBuilder struct {
	conditions []condition
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddEquals adds column = value. A nil value becomes column IS NULL.
func (wb *WhereBuilder) AddEquals(column string, value any) *WhereBuilder {
	wb.conditions = append(wb.conditions, condition{column: column, value: value, isNull: value == nil})
	return wb
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.conditions)
}

// IsEmpty reports whether no conditions were added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.conditions) == 0
}

// Build renders the clause without the WHERE keyword. An empty builder yields
// "1=1".
func (wb *WhereBuilder) Build(d Dialect) (string, []any, error) {
	if wb.IsEmpty() {
		return "1=1", nil, nil
	}

	clauses := make([]string, 0, len(wb.conditions))
	args := make([]any, 0, len(wb.conditions))
	for _, c := range wb.conditions {
		if err := ValidateIdent(c.column); err != nil {
			return "", nil, fmt.Errorf("where: %w", err)
		}
		if c.isNull {
			clauses = append(clauses, QuoteIdent(c.column)+" IS NULL")
			continue
		}
		args = append(args, c.value)
		clauses = append(clauses, QuoteIdent(c.column)+" = "+d.Placeholder(len(args)))
	}
	return strings.Join(clauses, " AND "), args, nil
}
