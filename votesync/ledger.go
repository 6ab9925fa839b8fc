// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/store"
)

// Ledger keeps one active vote entry per (poll, user). Retracted votes are
// archived, never deleted.
type Ledger struct {
	store      store.Store
	collection string
	options    *OptionResolver
	locks      *KeyedMutex
	now        func() time.Time
}

func NewLedger(s store.Store, options *OptionResolver, locks *KeyedMutex, cfg cliparse.Config) *Ledger {
	return &Ledger{
		store:      s,
		collection: cfg.VoteLedgerCollection,
		options:    options,
		locks:      locks,
		now:        time.Now,
	}
}

// Record stores a user's selection.
//
// An active entry with the same choice means the event was redelivered and
// nothing is written. An active entry with a different choice is patched in
// place, so a changed answer is a single mutation and a failed write leaves
// the previous vote active.
func (l *Ledger) Record(ctx context.Context, a models.PollAnswer) error {
	const op = "votesync.Ledger.Record"

	if len(a.OptionIDs) == 0 || !a.User.ExactID() {
		return fmt.Errorf("%s: %w", op, models.ErrMalformedEvent)
	}

	choice, err := l.options.Resolve(ctx, a.PollID, a.Choice())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := l.lock(ctx, a)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	existing, err := store.Locate(ctx, l.store, l.collection, activeVote(a))
	switch {
	case err == nil:
		previous := existing.Properties.Text(models.PropChoice)
		if previous == choice {
			slog.Info("vote already recorded",
				"poll_id", a.PollID,
				"user_id", a.User.ID,
				"record_id", existing.ID,
			)
			return nil
		}
		if _, err := l.store.Patch(ctx, existing.ID, store.Patch{Properties: l.entry(a, choice)}); err != nil {
			return fmt.Errorf("%s: change vote: %w", op, err)
		}
		slog.Info("vote changed",
			"poll_id", a.PollID,
			"user_id", a.User.ID,
			"record_id", existing.ID,
			"previous", previous,
			"choice", choice,
		)
		return nil
	case errors.Is(err, store.ErrNotFound):
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	rec, err := l.store.Create(ctx, l.collection, l.entry(a, choice))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("vote recorded",
		"poll_id", a.PollID,
		"user_id", a.User.ID,
		"record_id", rec.ID,
		"choice", choice,
	)
	return nil
}

// Retract archives the user's active entry. A missing or duplicated entry
// is reported, not repaired.
func (l *Ledger) Retract(ctx context.Context, a models.PollAnswer) error {
	const op = "votesync.Ledger.Retract"

	if !a.User.ExactID() {
		return fmt.Errorf("%s: %w", op, models.ErrMalformedEvent)
	}

	unlock, err := l.lock(ctx, a)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	existing, err := store.Locate(ctx, l.store, l.collection, activeVote(a))
	if err != nil {
		return fmt.Errorf("%s: poll %s user %d: %w", op, a.PollID, a.User.ID, err)
	}

	if _, err := l.store.Patch(ctx, existing.ID, store.Patch{Archive: true}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("vote retracted",
		"poll_id", a.PollID,
		"user_id", a.User.ID,
		"record_id", existing.ID,
	)
	return nil
}

func (l *Ledger) lock(ctx context.Context, a models.PollAnswer) (func(), error) {
	key := fmt.Sprintf("vote:%s:%d", a.PollID, a.User.ID)
	unlock, err := l.locks.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w: %w", key, store.ErrTransport, err)
	}
	return unlock, nil
}

func (l *Ledger) entry(a models.PollAnswer, choice string) store.Properties {
	return store.Properties{
		models.PropPollID:    store.Title(a.PollID),
		models.PropDate:      store.Date(l.now()),
		models.PropUserID:    store.Number(a.User.ID),
		models.PropUsername:  store.Text(a.User.Username),
		models.PropFirstName: store.Text(a.User.FirstName),
		models.PropLastName:  store.Text(a.User.LastName),
		models.PropChoice:    store.Text(choice),
	}
}

func activeVote(a models.PollAnswer) store.Filter {
	return store.Where(
		store.Equals(models.PropUserID, store.Number(a.User.ID)),
		store.Equals(models.PropPollID, store.Title(a.PollID)),
	)
}
