// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import "math"

// Group partitions records into a tree with one Interior level per path
// position. Buckets keep the first-seen order of their attribute values.
//
// Only the first record is checked against the path; the remaining records
// must share its width.
func Group(records []Record, path AttributePath) (GroupNode, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	if err := path.Validate(len(records[0])); err != nil {
		return nil, err
	}
	return group(records, path), nil
}

func group(records []Record, path AttributePath) GroupNode {
	node := &Interior{Children: make(map[any]GroupNode)}
	buckets := make(map[any][]Record)

	pos := path[0]
	for _, rec := range records {
		value := groupKey(rec[pos])
		if _, seen := buckets[value]; !seen {
			node.Values = append(node.Values, value)
		}
		buckets[value] = append(buckets[value], rec)
	}

	for _, value := range node.Values {
		if len(path) > 1 {
			node.Children[value] = group(buckets[value], path[1:])
		} else {
			node.Children[value] = &Leaf{Records: buckets[value]}
		}
	}
	return node
}

// CountLeaves returns the number of leaves under node.
func CountLeaves(node GroupNode) int {
	switch n := node.(type) {
	case *Leaf:
		return 1
	case *Interior:
		total := 0
		for _, value := range n.Values {
			total += CountLeaves(n.Children[value])
		}
		return total
	default:
		return 0
	}
}

// nanKey stands in for NaN attribute values, which never compare equal to
// themselves and would otherwise miss their own bucket.
type nanKey struct{}

// groupKey returns the bucket key for an attribute value.
func groupKey(value any) any {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return nanKey{}
		}
	case float32:
		if math.IsNaN(float64(v)) {
			return nanKey{}
		}
	}
	return value
}
