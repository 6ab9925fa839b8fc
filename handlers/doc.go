// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handler for poll webhook updates.

# WebhookHandler

WebhookHandler is a struct with its dependencies injected by constructor:

	h := handlers.NewWebhookHandler(votesync.New(s, cfg), allow, cfg, m)

The dispatcher is an interface, so tests can replace the sync engine.

# Request Flow

	POST / → HandleUpdate
	  1. client address in auth allowlist?   no → 400 "Invalid request"
	  2. body within MaxBodyBytes?           no → 413
	  3. models.Classify                     malformed → 200 "ok" (ignored)
	  4. Dispatch                            error → 200 "Not Ok"
	  5.                                     200 "ok"

Failures after classification still answer 200: the event source only
reads the body text, and redelivery is its decision.

Dispatch runs detached from the request context with a deadline of four
store timeouts, so a client hanging up cannot cut a locate/mutate pair in
half.
*/
package handlers
