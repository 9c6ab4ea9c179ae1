// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

/*
Package api serves the recommendation table over HTTP with a chi router.

# Endpoints

All routes live under /api/v1:

	GET  /health                    store ping and last run summary
	GET  /recommendations?a=v&...   the row for one attribute permutation
	GET  /recommendations/list      paginated rows (limit, offset)
	POST /runs                      trigger a recomputation (202, 409, 429)
	GET  /runs/status               last Run Report and running flag
	GET  /snapshots                 stored snapshot versions
	GET  /snapshots/{version}       one snapshot's rows ("latest" allowed)
	GET  /metrics                   Prometheus exposition

Every JSON response uses the models.APIResponse envelope:

	{"success": true, "data": ..., "meta": {"timestamp": ...}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": ...}, "meta": {...}}

# Lookups

A lookup must name every output attribute exactly once, e.g. with the default
layout:

	GET /api/v1/recommendations?category=shoes&brand=acme

Rows are cached in a bounded TTL cache. Handler implements
recommend.RunListener and purges the cache after every run that replaced the
table, so a lookup never serves rows from before the latest replacement for
longer than the request that raced it.

# Middleware

Requests pass through request id tagging, panic recovery, CORS (go-chi/cors),
per-IP rate limiting (go-chi/httprate) and Prometheus instrumentation.
*/
package api
