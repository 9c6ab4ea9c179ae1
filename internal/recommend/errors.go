// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package recommend

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	// ErrConfig marks precondition violations. They are not retried.
	ErrConfig = errors.New("recommend: configuration error")

	// ErrStore marks catalog read or recommendation write failures.
	ErrStore = errors.New("recommend: store access error")

	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("recommend: run already in progress")

	// ErrIncompleteSlot is returned by Export when a slot never reached its quota.
	ErrIncompleteSlot = errors.New("recommend: incomplete slot")
)

// Configuration errors.
var (
	ErrEmptyCatalog    = fmt.Errorf("%w: empty catalog", ErrConfig)
	ErrEmptyPath       = fmt.Errorf("%w: empty attribute path", ErrConfig)
	ErrFieldOutOfRange = fmt.Errorf("%w: attribute path references out-of-range field", ErrConfig)
	ErrInvalidK        = fmt.Errorf("%w: k must be positive", ErrConfig)
)

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
