// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateRecords = errors.New("duplicate records")
	ErrTransport        = errors.New("record store unavailable")
)

// IsRetriable reports whether err came from talking to the store rather than
// from the data it returned. Redelivering the same event later may succeed.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Record is one row/page of a collection.
type Record struct {
	ID         string
	Collection string
	Properties Properties
	Archived   bool
}

// Condition matches records whose property equals Value.
type Condition struct {
	Property string
	Value    Value
}

func Equals(property string, v Value) Condition {
	return Condition{Property: property, Value: v}
}

// Filter is a conjunction of conditions. Archived records never match a
// query, so a Filter always selects among active records.
type Filter struct {
	Conditions []Condition
}

func Where(conds ...Condition) Filter {
	return Filter{Conditions: conds}
}

// Match evaluates the filter against a property set.
func (f Filter) Match(props Properties) bool {
	for _, c := range f.Conditions {
		v, ok := props[c.Property]
		if !ok || !v.Equal(c.Value) {
			return false
		}
	}
	return true
}

// Patch is a partial update. Properties not named are left untouched.
type Patch struct {
	Properties Properties
	Archive    bool
}

// Store is the external record store. It has no transactions and no upsert:
// callers locate a record, then mutate it by id.
type Store interface {
	Query(ctx context.Context, collection string, filter Filter) ([]Record, error)
	Patch(ctx context.Context, id string, patch Patch) (Record, error)
	Create(ctx context.Context, collection string, props Properties) (Record, error)
}

// Locate returns the single active record in collection matching filter.
// Zero matches yield ErrNotFound and more than one yields
// ErrDuplicateRecords; it never chooses among duplicates.
func Locate(ctx context.Context, s Store, collection string, filter Filter) (Record, error) {
	const op = "store.Locate"

	records, err := s.Query(ctx, collection, filter)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", op, asTransport(err))
	}

	switch len(records) {
	case 0:
		return Record{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	case 1:
		return records[0], nil
	default:
		return Record{}, fmt.Errorf("%s: %w (%d matches)", op, ErrDuplicateRecords, len(records))
	}
}

func asTransport(err error) error {
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every call on s. A call that runs out of time fails
// with ErrTransport.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{next: s, timeout: d}
}

func (t *timeoutStore) Query(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	records, err := t.next.Query(ctx, collection, filter)
	if err != nil {
		return nil, asTransport(err)
	}
	return records, nil
}

func (t *timeoutStore) Patch(ctx context.Context, id string, patch Patch) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	rec, err := t.next.Patch(ctx, id, patch)
	if err != nil {
		return Record{}, asTransport(err)
	}
	return rec, nil
}

func (t *timeoutStore) Create(ctx context.Context, collection string, props Properties) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	rec, err := t.next.Create(ctx, collection, props)
	if err != nil {
		return Record{}, asTransport(err)
	}
	return rec, nil
}
