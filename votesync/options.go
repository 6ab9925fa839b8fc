// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votesync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/store"
)

var ErrMappingNotFound = errors.New("poll option mapping not found")

type optionLabels [models.OptionCount]string

// OptionResolver maps (poll id, option index) to the label the poll
// publisher stored in the option map. Mappings never change once written,
// so they are cached for the life of the process.
type OptionResolver struct {
	store      store.Store
	collection string
	prefix     string
	timeout    time.Duration

	mu    sync.RWMutex
	cache map[string]optionLabels
	group singleflight.Group
}

func NewOptionResolver(s store.Store, cfg cliparse.Config) *OptionResolver {
	return &OptionResolver{
		store:      s,
		collection: cfg.OptionMapCollection,
		prefix:     cfg.OptionPrefix,
		timeout:    cfg.StoreTimeout,
		cache:      make(map[string]optionLabels),
	}
}

// Resolve returns the label for a zero-based option index.
func (r *OptionResolver) Resolve(ctx context.Context, pollID string, index int) (string, error) {
	const op = "votesync.OptionResolver.Resolve"

	if index < 0 || index >= models.OptionCount {
		return "", fmt.Errorf("%s: poll %s option %d: %w", op, pollID, index, ErrMappingNotFound)
	}

	labels, err := r.labels(ctx, pollID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	label := labels[index]
	if label == "" {
		return "", fmt.Errorf("%s: poll %s option %d has no label: %w", op, pollID, index, ErrMappingNotFound)
	}
	return label, nil
}

func (r *OptionResolver) labels(ctx context.Context, pollID string) (optionLabels, error) {
	r.mu.RLock()
	labels, ok := r.cache[pollID]
	r.mu.RUnlock()
	if ok {
		return labels, nil
	}

	// Concurrent misses for one poll share a single lookup. It runs on its
	// own deadline so one caller giving up does not fail the others.
	ch := r.group.DoChan(pollID, func() (any, error) {
		return r.lookup(context.WithoutCancel(ctx), pollID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return optionLabels{}, res.Err
		}
		return res.Val.(optionLabels), nil
	case <-ctx.Done():
		return optionLabels{}, fmt.Errorf("poll %s option map: %w: %w", pollID, store.ErrTransport, ctx.Err())
	}
}

func (r *OptionResolver) lookup(ctx context.Context, pollID string) (optionLabels, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	filter := store.Where(store.Equals(models.PropPollID, store.Title(pollID)))
	rec, err := store.Locate(ctx, r.store, r.collection, filter)
	if errors.Is(err, store.ErrNotFound) {
		return optionLabels{}, fmt.Errorf("poll %s: %w", pollID, ErrMappingNotFound)
	}
	if err != nil {
		return optionLabels{}, err
	}

	var labels optionLabels
	for i := range labels {
		labels[i] = rec.Properties.Text(models.OptionProperty(r.prefix, i))
	}

	r.mu.Lock()
	r.cache[pollID] = labels
	r.mu.Unlock()
	return labels, nil
}
