// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/store"
)

// Dispatcher routes classified events to the result updater or the ledger.
type Dispatcher struct {
	results *ResultUpdater
	ledger  *Ledger
}

// New wires the sync engine on top of s. Every store call is bounded by
// cfg.StoreTimeout.
func New(s store.Store, cfg cliparse.Config) *Dispatcher {
	s = store.WithTimeout(s, cfg.StoreTimeout)
	locks := NewKeyedMutex()
	options := NewOptionResolver(s, cfg)

	return &Dispatcher{
		results: NewResultUpdater(s, locks, cfg),
		ledger:  NewLedger(s, options, locks, cfg),
	}
}

// Dispatch applies one event. Failures are logged here with their
// category and returned so the caller can pick a reply.
func (d *Dispatcher) Dispatch(ctx context.Context, ev models.Event) error {
	var err error
	switch ev.Kind {
	case models.EventPollResult:
		err = d.results.Apply(ctx, ev.Result)
	case models.EventVoteCast:
		err = d.ledger.Record(ctx, ev.Answer)
	case models.EventVoteRetracted:
		err = d.ledger.Retract(ctx, ev.Answer)
	default:
		return fmt.Errorf("votesync.Dispatch: %w", models.ErrMalformedEvent)
	}

	if err != nil {
		logFailure(ev, err)
	}
	return err
}

// Failure categories reported by Category.
const (
	CategoryNotFound  = "not_found"
	CategoryDuplicate = "duplicate"
	CategoryMapping   = "mapping_not_found"
	CategoryTransport = "transport"
	CategoryMalformed = "malformed"
	CategoryOther     = "error"
)

// Category names the failure class of an error returned by Dispatch.
func Category(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, store.ErrDuplicateRecords):
		return CategoryDuplicate
	case errors.Is(err, ErrMappingNotFound):
		return CategoryMapping
	case store.IsRetriable(err):
		return CategoryTransport
	case errors.Is(err, models.ErrMalformedEvent):
		return CategoryMalformed
	default:
		return CategoryOther
	}
}

func logFailure(ev models.Event, err error) {
	attrs := []any{
		"event", ev.Kind.String(),
		"update_id", ev.UpdateID,
		"category", Category(err),
		"error", err,
	}
	if ev.Kind == models.EventPollResult {
		attrs = append(attrs, "poll_id", ev.Result.ID)
	} else {
		attrs = append(attrs, "poll_id", ev.Answer.PollID, "user_id", ev.Answer.User.ID)
	}

	switch Category(err) {
	case CategoryNotFound:
		slog.Error("event dropped: no matching record", attrs...)
	case CategoryDuplicate:
		slog.Error("event dropped: duplicate records", attrs...)
	case CategoryMapping:
		slog.Warn("event dropped: unknown poll option", attrs...)
	case CategoryTransport:
		slog.Error("event aborted: record store unavailable", attrs...)
	default:
		slog.Error("event failed", attrs...)
	}
}
