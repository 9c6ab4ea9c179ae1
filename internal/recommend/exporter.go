// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import "fmt"

// Export flattens batch into one row per slot, in slot order. The key is read
// from the slot's first entry at the path positions. Identifiers are padded with
// nil up to k so every row has the same shape.
func Export(batch Batch, path AttributePath, k int) ([]ExportRow, error) {
	rows := make([]ExportRow, 0, len(batch.Slots))
	for i, slot := range batch.Slots {
		if !slot.Complete || len(slot.Entries) == 0 {
			return nil, fmt.Errorf("%w: slot %d holds %d entries", ErrIncompleteSlot, i, len(slot.Entries))
		}
		if len(slot.Entries) > k {
			return nil, fmt.Errorf("slot %d holds %d entries, want at most %d", i, len(slot.Entries), k)
		}

		ids := make([]any, k)
		copy(ids, slot.IDs())
		rows = append(rows, ExportRow{
			Key:     slot.Entries[0].Key(path),
			ItemIDs: ids,
		})
	}
	return rows, nil
}
