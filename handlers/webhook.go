// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/pollsync/auth"
	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/metrics"
	"github.com/danielhkuo/pollsync/middleware"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/votesync"
)

// storeCallsPerEvent bounds how many store round trips one event makes
// (resolve, locate, archive, create).
const storeCallsPerEvent = 4

// EventDispatcher applies a classified event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev models.Event) error
}

type WebhookHandler struct {
	dispatcher EventDispatcher
	allow      *auth.Allowlist
	cfg        cliparse.Config
	metrics    *metrics.Metrics
}

// NewWebhookHandler builds the handler. m may be nil.
func NewWebhookHandler(dispatcher EventDispatcher, allow *auth.Allowlist, cfg cliparse.Config, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, allow: allow, cfg: cfg, metrics: m}
}

// HandleUpdate handles POST /
func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	clientIP := middleware.GetClientIP(r, h.cfg.TrustProxy)
	if !h.allow.Contains(clientIP) {
		slog.Warn("rejected update from unknown source", "addr", clientIP)
		h.metrics.Observe(models.EventUnknown.String(), metrics.OutcomeRejected)
		middleware.TextResponse(w, http.StatusBadRequest, models.ReplyInvalidRequest)
		return
	}

	body, err := middleware.ReadBody(w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("rejected oversized update", "addr", clientIP, "limit", tooLarge.Limit)
			h.metrics.Observe(models.EventUnknown.String(), metrics.OutcomeRejected)
			middleware.TextResponse(w, http.StatusRequestEntityTooLarge, models.ReplyInvalidRequest)
			return
		}
		slog.Warn("failed to read update body", "addr", clientIP, "error", err)
		h.metrics.Observe(models.EventUnknown.String(), metrics.OutcomeRejected)
		middleware.TextResponse(w, http.StatusBadRequest, models.ReplyInvalidRequest)
		return
	}

	ev, err := models.Classify(body)
	if err != nil {
		// not a poll update; acknowledge so the source does not redeliver
		slog.Debug("ignoring update", "reason", err, "bytes", len(body))
		h.metrics.Observe(models.EventUnknown.String(), metrics.OutcomeIgnored)
		middleware.TextResponse(w, http.StatusOK, models.ReplyOK)
		return
	}

	ctx, cancel := h.eventContext(r)
	defer cancel()

	slog.Info("processing update", "event", ev.Kind.String(), "update_id", ev.UpdateID)

	start := time.Now()
	err = h.dispatcher.Dispatch(ctx, ev)
	h.metrics.ObserveDuration(ev.Kind.String(), time.Since(start))
	if err != nil {
		h.metrics.Observe(ev.Kind.String(), votesync.Category(err))
		middleware.TextResponse(w, http.StatusOK, models.ReplyNotOK)
		return
	}

	h.metrics.Observe(ev.Kind.String(), metrics.OutcomeOK)
	middleware.TextResponse(w, http.StatusOK, models.ReplyOK)
}

// eventContext detaches from the request so a client disconnect cannot
// abort a half-applied locate/mutate pair.
func (h *WebhookHandler) eventContext(r *http.Request) (context.Context, context.CancelFunc) {
	parent := context.WithoutCancel(r.Context())
	if h.cfg.StoreTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, storeCallsPerEvent*h.cfg.StoreTimeout)
}
