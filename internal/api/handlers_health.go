// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/peerrec/internal/models"
)

const healthPingTimeout = 2 * time.Second

// Health reports store connectivity and the engine's run counters. It answers
// 503 when the store cannot be reached.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	start := time.Now()
	pingErr := h.store.Ping(ctx)
	storeHealth := models.ComponentHealth{
		Healthy:   pingErr == nil,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if pingErr != nil {
		storeHealth.Error = pingErr.Error()
	}

	status := h.runs.Status()
	body := models.HealthStatus{
		Status:    "healthy",
		Store:     storeHealth,
		Running:   status.Running,
		Runs:      status.Runs,
		Failures:  status.Failures,
		LastRun:   status.LastRun,
		Snapshots: h.snapshots != nil,
	}

	code := http.StatusOK
	if pingErr != nil {
		body.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else if status.LastRun != nil && !status.LastRun.Succeeded() {
		body.Status = "degraded"
	}

	respondData(w, code, body, newMeta(r))
}
