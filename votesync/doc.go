// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package votesync applies poll webhook events to the record store.

# Components

  - Dispatcher: routes a models.Event to the right component
  - ResultUpdater: rewrites counts and status on the poll summary record
  - Ledger: records and retracts per-user votes
  - OptionResolver: maps an option index to its label (cached)
  - KeyedMutex: per-key serialization

Build them together with New:

	d := votesync.New(s, cfg)
	err := d.Dispatch(ctx, ev)

# Locate, Then Mutate

The store has no transactions or upsert. Every mutation first calls
store.Locate, which yields exactly one record, store.ErrNotFound or
store.ErrDuplicateRecords. Only a single match is ever patched.

Each locate/mutate pair runs under a KeyedMutex key:

	poll:<poll id>             result updates
	vote:<poll id>:<user id>   vote record and retract

so a vote and its retraction for one user never interleave within a
process.

# Errors

	store.ErrNotFound, store.ErrDuplicateRecords  integrity; event dropped
	ErrMappingNotFound                            unknown poll or option; vote dropped
	store.ErrTransport                            store unreachable or timed out

Dispatch logs each failure once with its category and returns it.
Nothing is retried here; the event source redelivers.
*/
package votesync
