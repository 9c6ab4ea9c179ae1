// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

/*
Package services provides suture.Service wrappers for peerrec components.

Each wrapper implements suture's Service interface and a String method used as
the service name in supervisor logs:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

RecommendService:
  - Runs the recommendation Engine on startup (optional) and on a fixed interval
  - Accepts manual triggers through Trigger, throttled by a token bucket
  - Trigger returns recommend.ErrRunInProgress while a run is active or queued
    and ErrTriggerThrottled when the bucket is empty

HTTPServerService:
  - Binds the listener before serving so address errors surface at once
  - Shuts the server down gracefully on context cancellation

PublisherService:
  - Owns the event publisher for the messaging layer and closes it on shutdown

JanitorService:
  - Calls a cleanup function on an interval, e.g. to drop expired cache entries

All services return ctx.Err() when the context is canceled so suture treats the
stop as intentional.
*/
package services
