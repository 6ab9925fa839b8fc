// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pollsync webhook.

# Routes

	GET  /health   → "OK"
	GET  /metrics  → Prometheus exposition
	POST /         → WebhookHandler.HandleUpdate
	GET  /         → banner

NewRouter builds the whole engine from a store and the config:

	mux := router.NewRouter(s, cfg)

The source allowlist is auth.DefaultSourceRanges; it is not configurable.
*/
package router
