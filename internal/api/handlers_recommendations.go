// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/peerrec/internal/database"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/models"
)

// ListRequest holds the paging parameters of GET /recommendations/list.
type ListRequest struct {
	Limit  int `validate:"gte=1"`
	Offset int `validate:"gte=0"`
}

// cacheKey joins attribute values with a separator that cannot appear in a
// query value after decoding.
func cacheKey(values []string) string {
	return strings.Join(values, "\x00")
}

// lookupValues extracts one value per attribute, in attribute order, from the
// query string. Unknown, missing and repeated parameters are rejected.
func lookupValues(names []string, r *http.Request) ([]string, *models.APIError) {
	query := r.URL.Query()

	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		known[name] = struct{}{}
	}
	for param := range query {
		if _, ok := known[param]; !ok {
			return nil, &models.APIError{
				Code:    codeValidation,
				Message: "unknown attribute: " + param,
				Details: map[string]any{"attributes": names},
			}
		}
	}

	values := make([]string, len(names))
	for i, name := range names {
		got, ok := query[name]
		switch {
		case !ok:
			return nil, &models.APIError{
				Code:    codeValidation,
				Message: "missing attribute: " + name,
				Details: map[string]any{"attributes": names},
			}
		case len(got) > 1:
			return nil, &models.APIError{
				Code:    codeValidation,
				Message: "attribute given more than once: " + name,
			}
		}
		values[i] = got[0]
	}
	return values, nil
}

// storeError maps store failures to a response.
func storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		respondError(w, r, http.StatusServiceUnavailable, codeServiceUnavailable, "Recommendation store temporarily unavailable", err)
		return
	}
	respondError(w, r, http.StatusInternalServerError, codeDatabase, "Failed to query recommendations", err)
}

// Recommendation returns the row for one attribute permutation. Rows are
// served from the cache when possible.
func (h *Handler) Recommendation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	values, apiErr := lookupValues(h.store.AttributeNames(), r)
	if apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	key := cacheKey(values)
	var gen uint64
	if h.cache != nil {
		if row, ok := h.cache.Get(key); ok {
			metrics.RecordCacheLookup(true)
			meta := newMeta(r)
			meta.Cached = true
			meta.QueryTimeMS = time.Since(start).Milliseconds()
			respondData(w, http.StatusOK, row, meta)
			return
		}
		metrics.RecordCacheLookup(false)

		// Read the generation before querying so a purge during the query
		// keeps the result out of the cache.
		gen = h.cache.Generation()
	}

	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	row, err := h.store.Lookup(r.Context(), args)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "No recommendations for this attribute combination", nil)
		return
	}
	if err != nil {
		storeError(w, r, err)
		return
	}
	if h.cache != nil {
		h.cache.Add(key, row, gen)
	}

	meta := newMeta(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	respondData(w, http.StatusOK, row, meta)
}

// ListRecommendations returns a page of rows ordered by attribute values.
func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := ListRequest{Limit: h.config.DefaultPageSize}

	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "limit must be an integer", nil)
			return
		}
		req.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidation, "offset must be an integer", nil)
			return
		}
		req.Offset = n
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}
	if req.Limit > h.config.MaxPageSize {
		req.Limit = h.config.MaxPageSize
	}

	rows, err := h.store.List(r.Context(), req.Limit, req.Offset)
	if err != nil {
		storeError(w, r, err)
		return
	}
	total, err := h.store.Count(r.Context())
	if err != nil {
		storeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []database.RecommendationRow{}
	}

	meta := newMeta(r)
	meta.QueryTimeMS = time.Since(start).Milliseconds()
	meta.Total = &total
	meta.Limit = req.Limit
	meta.Offset = req.Offset
	respondData(w, http.StatusOK, rows, meta)
}
