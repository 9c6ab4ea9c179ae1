// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

// Package models defines the JSON bodies of the HTTP API.
package models

import (
	"time"

	"github.com/tomtom215/peerrec/internal/recommend"
)

// APIResponse is the envelope of every API response.
//
// Success:
//
//	{
//	  "success": true,
//	  "data": {"attributes": {"category": "shoes", "brand": "acme"}, "item_ids": ["a", "b", "c", "d"]},
//	  "meta": {"timestamp": "2026-10-19T12:00:00Z", "query_time_ms": 3}
//	}
//
// Error:
//
//	{
//	  "success": false,
//	  "error": {"code": "VALIDATION_ERROR", "message": "missing attribute: brand"},
//	  "meta": {"timestamp": "2026-10-19T12:00:00Z"}
//	}
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    Meta      `json:"meta"`
}

// Meta carries timing, caching and paging information.
type Meta struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`

	// Paging, set on list endpoints.
	Total  *int64 `json:"total,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes: VALIDATION_ERROR, NOT_FOUND, RUN_IN_PROGRESS, RATE_LIMIT_EXCEEDED,
// SERVICE_UNAVAILABLE, DATABASE_ERROR, SNAPSHOT_ERROR, INTERNAL_ERROR.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string               `json:"status"`
	Store     ComponentHealth      `json:"store"`
	Running   bool                 `json:"running"`
	Runs      int64                `json:"runs"`
	Failures  int64                `json:"failures"`
	LastRun   *recommend.RunReport `json:"last_run,omitempty"`
	Snapshots bool                 `json:"snapshots_enabled"`
}

// ComponentHealth reports one dependency.
type ComponentHealth struct {
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// RunAccepted is the body of a 202 from POST /runs.
type RunAccepted struct {
	Message   string `json:"message"`
	StatusURL string `json:"status_url"`
}
