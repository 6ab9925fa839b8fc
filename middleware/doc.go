// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("POST /", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# Responses

The event source only looks at the status code and a short text body:

	middleware.TextResponse(w, http.StatusOK, "ok")

# Request Bodies

Read a bounded body:

	body, err := middleware.ReadBody(w, r, cfg.MaxBodyBytes)

# Client IP Extraction

Get the client IP used for source authentication:

	ip := middleware.GetClientIP(r, cfg.TrustProxy)

Proxy headers are only honoured when the deployment sits behind a trusted
reverse proxy.
*/
package middleware
