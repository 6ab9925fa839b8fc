// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/pollsync/auth"
	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/handlers"
	"github.com/danielhkuo/pollsync/metrics"
	"github.com/danielhkuo/pollsync/middleware"
	"github.com/danielhkuo/pollsync/store"
	"github.com/danielhkuo/pollsync/votesync"
)

func NewRouter(s store.Store, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	m := metrics.New()
	allow := auth.MustAllowlist(auth.DefaultSourceRanges)
	slog.Info("accepting webhooks", "source_ranges", allow.Ranges(), "trust_proxy", cfg.TrustProxy)
	webhookHandler := handlers.NewWebhookHandler(votesync.New(s, cfg), allow, cfg, m)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", m.Handler())

	// Webhook updates from the event source
	mux.HandleFunc("POST /{$}", middleware.WithLogging(webhookHandler.HandleUpdate))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollsync webhook v1"))
	})

	return mux
}
