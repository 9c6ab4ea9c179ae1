// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/peerrec/internal/recommend/storage"
)

func (h *Handler) snapshotsDisabled(w http.ResponseWriter, r *http.Request) bool {
	if h.snapshots != nil {
		return false
	}
	respondError(w, r, http.StatusServiceUnavailable, codeServiceUnavailable, "Snapshots are disabled", nil)
	return true
}

// ListSnapshots returns the stored snapshot versions, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshotsDisabled(w, r) {
		return
	}
	start := time.Now()
	metas, err := h.snapshots.List(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSnapshot, "Failed to list snapshots", err)
		return
	}
	if metas == nil {
		metas = []storage.SnapshotMeta{}
	}
	total := int64(len(metas))
	meta := newMeta(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	meta.Total = &total
	respondData(w, http.StatusOK, metas, meta)
}

// GetSnapshot returns one snapshot with its rows. The version may be
// "latest".
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshotsDisabled(w, r) {
		return
	}

	param := chi.URLParam(r, "version")
	var version int64
	if param != "latest" {
		v, err := strconv.ParseInt(param, 10, 64)
		if err != nil || v < 1 {
			respondError(w, r, http.StatusBadRequest, codeValidation, "version must be a positive integer or \"latest\"", nil)
			return
		}
		version = v
	}

	start := time.Now()
	snap, err := h.snapshots.Load(r.Context(), version)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "Snapshot not found", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeSnapshot, "Failed to load snapshot", err)
		return
	}
	meta := newMeta(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	respondData(w, http.StatusOK, snap, meta)
}
