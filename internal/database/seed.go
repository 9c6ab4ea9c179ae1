// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/tomtom215/peerrec/internal/database/query"
	"github.com/tomtom215/peerrec/internal/logging"
)

// demoValues supplies realistic values for the default attribute names.
var demoValues = map[string][]string{
	"category": {"shoes", "jackets", "bags", "watches", "hats", "scarves", "gloves"},
	"brand":    {"acme", "globex", "initech", "umbrella", "hooli", "stark", "wayne", "wonka"},
	"color":    {"black", "white", "red", "navy", "olive"},
	"size":     {"xs", "s", "m", "l", "xl"},
}

// SeedDemoCatalog replaces the catalog table with n random items. The output
// table is dropped first because it may reference the catalog.
func (db *DB) SeedDemoCatalog(ctx context.Context, n int, seed uint64) error {
	if n < 1 {
		return fmt.Errorf("demo catalog needs at least one item, got %d", n)
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	catalog := db.tables.Catalog
	idType := db.tables.Output.RefType

	dropOutput, err := query.DropTableIfExists(db.tables.Output.Name)
	if err != nil {
		return err
	}
	dropCatalog, err := query.DropTableIfExists(catalog.Name)
	if err != nil {
		return err
	}
	createCatalog, err := createCatalogTable(catalog, idType)
	if err != nil {
		return err
	}
	insertSQL, err := query.Insert(db.dialect, catalog.Name, catalog.Columns())
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{dropOutput, dropCatalog, createCatalog} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare demo catalog: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	rng := rand.New(rand.NewPCG(seed, seed^0x5deece66d))
	for i := 1; i <= n; i++ {
		args := make([]any, 0, len(catalog.Attributes)+1)
		args = append(args, demoID(i, idType))
		for _, attr := range catalog.Attributes {
			args = append(args, demoValue(rng, attr))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert demo item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit demo catalog: %w", err)
	}
	committed = true

	logging.Info().Int("items", n).Str("table", catalog.Name).Msg("Seeded demo catalog")
	return nil
}

func createCatalogTable(catalog CatalogTable, idType string) (string, error) {
	if err := query.ValidateType(idType); err != nil {
		return "", err
	}
	if err := query.ValidateIdent(catalog.Name); err != nil {
		return "", err
	}

	defs := make([]string, 0, len(catalog.Attributes)+1)
	if err := query.ValidateIdent(catalog.IDColumn); err != nil {
		return "", err
	}
	defs = append(defs, fmt.Sprintf("%s %s PRIMARY KEY", query.QuoteIdent(catalog.IDColumn), idType))
	for _, attr := range catalog.Attributes {
		if err := query.ValidateIdent(attr.Name); err != nil {
			return "", err
		}
		if err := query.ValidateType(attr.Type); err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("%s %s", query.QuoteIdent(attr.Name), attr.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", query.QuoteIdent(catalog.Name), strings.Join(defs, ", ")), nil
}

var integerTypes = map[string]bool{
	"INT": true, "INTEGER": true, "BIGINT": true, "SMALLINT": true, "TINYINT": true,
	"HUGEINT": true, "INT2": true, "INT4": true, "INT8": true, "UBIGINT": true,
	"UINTEGER": true, "USMALLINT": true, "UTINYINT": true,
}

func isIntegerType(typ string) bool {
	return integerTypes[strings.ToUpper(strings.TrimSpace(typ))]
}

func demoID(i int, idType string) any {
	if isIntegerType(idType) {
		return int64(i)
	}
	return fmt.Sprintf("item-%05d", i)
}

func demoValue(rng *rand.Rand, attr query.Column) any {
	if isIntegerType(attr.Type) {
		return int64(rng.IntN(10) + 1)
	}
	if values, ok := demoValues[strings.ToLower(attr.Name)]; ok {
		return values[rng.IntN(len(values))]
	}
	return fmt.Sprintf("%s-%d", strings.ToLower(attr.Name), rng.IntN(6)+1)
}
