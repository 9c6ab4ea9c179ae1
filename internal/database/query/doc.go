// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package query builds the SQL statements used by the database package.
//
// Identifiers and column types come from configuration, so every identifier is
// validated and double-quoted and every type is checked against a conservative
// pattern before it reaches a statement. Values always travel as bind
// parameters; Dialect decides the placeholder syntax.
//
//	spec := query.TableSpec{
//	    Name:       "content_filtered",
//	    KeyColumns: []query.Column{{Name: "category", Type: "VARCHAR"}, {Name: "brand", Type: "VARCHAR"}},
//	    RefColumns: query.RefColumnNames("rcmd_", 4),
//	    RefType:    "VARCHAR",
//	    References: &query.ForeignKey{Table: "products", Column: "id"},
//	}
//	ddl, err := query.CreateTable(spec)
//	insert, err := query.Insert(query.Postgres, spec.Name, spec.ColumnNames())
//	// INSERT INTO "content_filtered" ("category", "brand", "rcmd_1", ...) VALUES ($1, $2, $3, ...)
package query
