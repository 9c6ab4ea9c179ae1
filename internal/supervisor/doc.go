// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

/*
Package supervisor runs the long-lived parts of peerrec under a suture v4
supervisor tree.

# Overview

Services are grouped into three layers so a failure in one does not take the
others down:

	RootSupervisor ("peerrec")
	├── DataSupervisor ("data-layer")
	│   └── RecommendService (scheduled and triggered runs)
	├── MessagingSupervisor ("messaging-layer")
	│   └── PublisherService (if events.enabled)
	└── APISupervisor ("api-layer")
	    ├── HTTPServerService (if server.enabled)
	    └── JanitorService (expired cache entries)

The HTTP API keeps answering lookups from the store while a run is being
retried in the data layer, and a broken NATS connection only restarts the
messaging layer.

# Restart Policy

Each supervisor uses suture's failure accounting: FailureThreshold failures,
decaying at FailureDecay per second, put the supervisor into FailureBackoff
before it restarts children again. Services return ctx.Err() on shutdown,
which suture does not count as a failure.

# Logging

Supervisor events (service panics, restarts, backoff) are logged through
sutureslog. cmd/server passes logging.NewSlogLogger() so these events land in
the same zerolog stream as everything else.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewRecommendService(engine, svcCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
