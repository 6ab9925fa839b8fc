// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pollsync/store"
)

// MemoryStore is an in-memory store.Store. Unlike a real database it allows
// duplicate records, so tests can seed the integrity failures the sync
// engine must refuse to resolve.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]store.Record
	order   []string

	creates int
	patches int
	queries int

	queryErr  error
	patchErr  error
	createErr error
	latency   time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]store.Record)}
}

// Seed inserts a record directly, bypassing mutation counters.
func (m *MemoryStore) Seed(collection string, props store.Properties) store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(collection, props)
}

func (m *MemoryStore) insert(collection string, props store.Properties) store.Record {
	rec := store.Record{
		ID:         uuid.NewString(),
		Collection: collection,
		Properties: props.Clone(),
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	rec.Properties = rec.Properties.Clone()
	return rec
}

// FailQueries makes every Query return err until reset with nil.
func (m *MemoryStore) FailQueries(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErr = err
}

func (m *MemoryStore) FailPatches(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchErr = err
}

func (m *MemoryStore) FailCreates(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// SetLatency delays every call by d, honouring context cancellation.
func (m *MemoryStore) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// Mutations returns the number of Create and Patch calls that succeeded.
func (m *MemoryStore) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates + m.patches
}

func (m *MemoryStore) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func (m *MemoryStore) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

// Get returns a record by id, archived or not.
func (m *MemoryStore) Get(id string) (store.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if ok {
		rec.Properties = rec.Properties.Clone()
	}
	return rec, ok
}

// All returns every record in a collection, archived included, in insertion order.
func (m *MemoryStore) All(collection string) []store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.Record
	for _, id := range m.order {
		rec := m.records[id]
		if rec.Collection == collection {
			rec.Properties = rec.Properties.Clone()
			out = append(out, rec)
		}
	}
	return out
}

func (m *MemoryStore) wait(ctx context.Context) error {
	m.mu.Lock()
	d := m.latency
	m.mu.Unlock()
	if d == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", store.ErrTransport, ctx.Err())
	}
}

func (m *MemoryStore) Query(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	if m.queryErr != nil {
		return nil, m.queryErr
	}

	var out []store.Record
	for _, id := range m.order {
		rec := m.records[id]
		if rec.Collection != collection || rec.Archived || !filter.Match(rec.Properties) {
			continue
		}
		rec.Properties = rec.Properties.Clone()
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) Patch(ctx context.Context, id string, patch store.Patch) (store.Record, error) {
	if err := m.wait(ctx); err != nil {
		return store.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.patchErr != nil {
		return store.Record{}, m.patchErr
	}
	rec, ok := m.records[id]
	if !ok {
		return store.Record{}, fmt.Errorf("patch %s: %w", id, store.ErrNotFound)
	}

	props := rec.Properties.Clone()
	for k, v := range patch.Properties {
		props[k] = v
	}
	rec.Properties = props
	if patch.Archive {
		rec.Archived = true
	}
	m.records[id] = rec
	m.patches++

	rec.Properties = rec.Properties.Clone()
	return rec, nil
}

func (m *MemoryStore) Create(ctx context.Context, collection string, props store.Properties) (store.Record, error) {
	if err := m.wait(ctx); err != nil {
		return store.Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return store.Record{}, m.createErr
	}
	m.creates++
	return m.insert(collection, props), nil
}
