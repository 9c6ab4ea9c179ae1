// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/peerrec/internal/database/query"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
)

// RecommendationRow is one stored attribute permutation with its items.
type RecommendationRow struct {
	Attributes map[string]any `json:"attributes"`
	ItemIDs    []any          `json:"item_ids"`
}

// ReplaceRecommendations drops and recreates the output table and inserts
// rows, all in one transaction.
func (db *DB) ReplaceRecommendations(ctx context.Context, rows []recommend.ExportRow) (err error) {
	spec := db.tables.Output
	start := time.Now()
	defer func() { metrics.RecordDBQuery("replace_recommendations", spec.Name, time.Since(start), err) }()

	for i, row := range rows {
		if len(row.Key) != len(spec.KeyColumns) || len(row.ItemIDs) != len(spec.RefColumns) {
			return fmt.Errorf("row %d has %d key values and %d items, table %s expects %d and %d",
				i, len(row.Key), len(row.ItemIDs), spec.Name, len(spec.KeyColumns), len(spec.RefColumns))
		}
	}

	dropSQL, err := query.DropTableIfExists(spec.Name)
	if err != nil {
		return err
	}
	createSQL, err := query.CreateTable(spec)
	if err != nil {
		return err
	}
	insertSQL, err := query.Insert(db.dialect, spec.Name, spec.ColumnNames())
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

	if _, err := tx.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("failed to drop %s: %w", spec.Name, err)
	}
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create %s: %w", spec.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Args()...); err != nil {
			return fmt.Errorf("failed to insert row %d %v: %w", i, row.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	committed = true
	return nil
}

// EnsureOutputTable creates the output table when it does not exist yet so
// lookups work before the first run.
func (db *DB) EnsureOutputTable(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	spec := db.tables.Output
	spec.IfNotExists = true
	createSQL, err := query.CreateTable(spec)
	if err != nil {
		return err
	}
	if _, err := db.conn.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create %s: %w", spec.Name, err)
	}
	return nil
}

// AttributeNames returns the output key columns in order.
func (db *DB) AttributeNames() []string {
	return db.tables.Output.KeyNames()
}

// Lookup returns the row whose key columns equal values, in AttributeNames
// order. A nil value matches NULL.
func (db *DB) Lookup(ctx context.Context, values []any) (row *RecommendationRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	spec := db.tables.Output
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordDBQuery("lookup_recommendation", spec.Name, time.Since(start), nil)
			return
		}
		metrics.RecordDBQuery("lookup_recommendation", spec.Name, time.Since(start), err)
	}()

	keys := spec.KeyNames()
	if len(values) != len(keys) {
		return nil, fmt.Errorf("lookup needs %d attribute values, got %d", len(keys), len(values))
	}

	where := query.NewWhereBuilder()
	for i, name := range keys {
		where.AddEquals(name, values[i])
	}
	q, args, err := query.Select(spec.Name, spec.ColumnNames(), where, db.dialect)
	if err != nil {
		return nil, err
	}

	scanned, err := db.scanRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(scanned) == 0 {
		return nil, ErrNotFound
	}
	return &scanned[0], nil
}

// List returns a page of rows ordered by the key columns.
func (db *DB) List(ctx context.Context, limit, offset int) (rows []RecommendationRow, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	spec := db.tables.Output
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_recommendations", spec.Name, time.Since(start), err) }()

	q, _, err := query.Select(spec.Name, spec.ColumnNames(), nil, db.dialect)
	if err != nil {
		return nil, err
	}
	q, err = query.OrderedPage(q, spec.KeyNames(), limit, offset)
	if err != nil {
		return nil, err
	}
	return db.scanRows(ctx, q)
}

// Count returns the number of stored rows.
func (db *DB) Count(ctx context.Context) (n int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	spec := db.tables.Output
	start := time.Now()
	defer func() { metrics.RecordDBQuery("count_recommendations", spec.Name, time.Since(start), err) }()

	if err := query.ValidateIdent(spec.Name); err != nil {
		return 0, err
	}
	q := "SELECT COUNT(*) FROM " + query.QuoteIdent(spec.Name)
	if err := db.conn.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", spec.Name, err)
	}
	return n, nil
}

func (db *DB) scanRows(ctx context.Context, q string, args ...any) ([]RecommendationRow, error) {
	spec := db.tables.Output
	keys := spec.KeyNames()
	width := len(keys) + len(spec.RefColumns)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", spec.Name, err)
	}
	defer closeQuietly(rows)

	var out []RecommendationRow
	for rows.Next() {
		values := make([]any, width)
		dest := make([]any, width)
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", spec.Name, err)
		}

		row := RecommendationRow{
			Attributes: make(map[string]any, len(keys)),
			ItemIDs:    make([]any, 0, len(spec.RefColumns)),
		}
		for i, name := range keys {
			row.Attributes[name] = normalizeValue(values[i])
		}
		for _, v := range values[len(keys):] {
			row.ItemIDs = append(row.ItemIDs, normalizeValue(v))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", spec.Name, err)
	}
	return out, nil
}
