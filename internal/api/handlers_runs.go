// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/models"
	"github.com/tomtom215/peerrec/internal/recommend"
	"github.com/tomtom215/peerrec/internal/supervisor/services"
)

// TriggerRun queues a recomputation and returns 202 without waiting for it.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	err := h.runs.Trigger()
	switch {
	case errors.Is(err, recommend.ErrRunInProgress):
		respondError(w, r, http.StatusConflict, codeRunInProgress, "A recommendation run is already in progress", nil)
		return
	case errors.Is(err, services.ErrTriggerThrottled):
		w.Header().Set("Retry-After", "60")
		respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "Runs are being triggered too often", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "Failed to trigger run", err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("recommendation run triggered via API")
	respondData(w, http.StatusAccepted, models.RunAccepted{
		Message:   "Recommendation run queued",
		StatusURL: "/api/v1/runs/status",
	}, newMeta(r))
}

// RunStatus returns the running flag and the last Run Report.
func (h *Handler) RunStatus(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.runs.Status(), newMeta(r))
}
