// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votesync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/store"
)

// ResultUpdater mirrors aggregate poll results onto the poll's single
// summary record.
type ResultUpdater struct {
	store      store.Store
	collection string
	prefix     string
	locks      *KeyedMutex
}

func NewResultUpdater(s store.Store, locks *KeyedMutex, cfg cliparse.Config) *ResultUpdater {
	return &ResultUpdater{
		store:      s,
		collection: cfg.PollResultCollection,
		prefix:     cfg.OptionPrefix,
		locks:      locks,
	}
}

// Apply overwrites the counts and status of the summary record for
// res.ID. If the record already holds the same values nothing is written,
// so redelivered events are harmless.
func (u *ResultUpdater) Apply(ctx context.Context, res models.PollResult) error {
	const op = "votesync.ResultUpdater.Apply"

	unlock, err := u.locks.Lock(ctx, "poll:"+res.ID)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, store.ErrTransport, err)
	}
	defer unlock()

	filter := store.Where(store.Equals(models.PropPollID, store.Title(res.ID)))
	rec, err := store.Locate(ctx, u.store, u.collection, filter)
	if err != nil {
		return fmt.Errorf("%s: poll %s: %w", op, res.ID, err)
	}

	want := u.properties(res)
	if matches(rec.Properties, want) {
		slog.Debug("poll results unchanged", "poll_id", res.ID, "record_id", rec.ID)
		return nil
	}

	if _, err := u.store.Patch(ctx, rec.ID, store.Patch{Properties: want}); err != nil {
		return fmt.Errorf("%s: poll %s: %w", op, res.ID, err)
	}

	slog.Info("poll results updated",
		"poll_id", res.ID,
		"record_id", rec.ID,
		"counts", res.Counts(),
		"status", res.Status(),
	)
	return nil
}

func (u *ResultUpdater) properties(res models.PollResult) store.Properties {
	props := store.Properties{
		models.PropStatus: store.Select(string(res.Status())),
	}
	for i, n := range res.Counts() {
		props[models.OptionProperty(u.prefix, i)] = store.Number(n)
	}
	return props
}

func matches(have, want store.Properties) bool {
	for k, v := range want {
		if cur, ok := have[k]; !ok || !cur.Equal(v) {
			return false
		}
	}
	return true
}
