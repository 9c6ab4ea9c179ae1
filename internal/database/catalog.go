// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/peerrec/internal/database/query"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
)

// LoadCatalog selects (id, attribute...) for every catalog row.
func (db *DB) LoadCatalog(ctx context.Context) (records []recommend.Record, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	table := db.tables.Catalog
	start := time.Now()
	defer func() { metrics.RecordDBQuery("load_catalog", table.Name, time.Since(start), err) }()

	columns := table.Columns()
	q, _, err := query.Select(table.Name, columns, nil, db.dialect)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog %s: %w", table.Name, err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		records = append(records, recommend.Record(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}
	return records, nil
}

// normalizeValue makes a scanned value usable as a grouping map key. Drivers
// return text as []byte in some cases, and a few return structs or maps that
// are not comparable.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
