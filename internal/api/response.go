// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/models"
	"github.com/tomtom215/peerrec/internal/validation"
)

// Error codes.
const (
	codeValidation         = "VALIDATION_ERROR"
	codeNotFound           = "NOT_FOUND"
	codeRunInProgress      = "RUN_IN_PROGRESS"
	codeRateLimited        = "RATE_LIMIT_EXCEEDED"
	codeServiceUnavailable = "SERVICE_UNAVAILABLE"
	codeDatabase           = "DATABASE_ERROR"
	codeSnapshot           = "SNAPSHOT_ERROR"
	codeInternal           = "INTERNAL_ERROR"
)

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func newMeta(r *http.Request) models.Meta {
	return models.Meta{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData writes a success envelope.
func respondData(w http.ResponseWriter, status int, data any, meta models.Meta) {
	writeJSON(w, status, &models.APIResponse{Success: true, Data: data, Meta: meta})
}

// respondError writes an error envelope. Server errors are logged with err.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	writeJSON(w, status, &models.APIResponse{
		Success: false,
		Error:   &models.APIError{Code: code, Message: message},
		Meta:    newMeta(r),
	})
}

// respondAPIError writes a prepared error body.
func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	writeJSON(w, status, &models.APIResponse{
		Success: false,
		Error:   apiErr,
		Meta:    newMeta(r),
	})
}

// validateRequest runs struct validation and converts failures to a
// VALIDATION_ERROR body.
func validateRequest(v any) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
