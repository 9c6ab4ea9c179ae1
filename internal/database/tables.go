// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"fmt"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/database/query"
)

// CatalogTable is the source of catalog records.
type CatalogTable struct {
	Name       string
	IDColumn   string
	Attributes []query.Column
}

// Columns returns the id column followed by the attribute columns, the shape
// of every catalog record.
func (c CatalogTable) Columns() []string {
	cols := make([]string, 0, len(c.Attributes)+1)
	cols = append(cols, c.IDColumn)
	for _, a := range c.Attributes {
		cols = append(cols, a.Name)
	}
	return cols
}

// Tables describes both tables the store works with.
type Tables struct {
	Catalog CatalogTable

	// Output is the recommendation table. Its key columns are the attributes
	// on the engine's attribute path, in path order.
	Output query.TableSpec
}

// K returns the number of item columns in the output table.
func (t Tables) K() int {
	return len(t.Output.RefColumns)
}

// TablesFromConfig derives both table layouts. The output key columns follow
// the engine's attribute path so exported keys line up with them.
func TablesFromConfig(cfg *config.Config) (Tables, error) {
	attrs, err := cfg.Catalog.ParsedAttributes()
	if err != nil {
		return Tables{}, err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return Tables{}, err
	}

	catalog := CatalogTable{
		Name:       cfg.Catalog.Table,
		IDColumn:   cfg.Catalog.IDColumn,
		Attributes: make([]query.Column, len(attrs)),
	}
	for i, a := range attrs {
		catalog.Attributes[i] = query.Column{Name: a.Name, Type: a.Type}
	}

	keys := make([]query.Column, len(engineCfg.Path))
	for i, pos := range engineCfg.Path {
		keys[i] = catalog.Attributes[pos-1]
	}

	output := query.TableSpec{
		Name:       cfg.Output.Table,
		KeyColumns: keys,
		RefColumns: query.RefColumnNames(cfg.Output.ColumnPrefix, engineCfg.K),
		RefType:    cfg.Output.IDType,
	}
	if cfg.Output.ForeignKeys {
		output.References = &query.ForeignKey{Table: catalog.Name, Column: catalog.IDColumn}
	}
	if err := output.Validate(); err != nil {
		return Tables{}, fmt.Errorf("output table: %w", err)
	}
	return Tables{Catalog: catalog, Output: output}, nil
}
