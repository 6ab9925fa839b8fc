// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the external record store and the locate helper the
sync engine mutates through.

A store holds collections of records with typed properties. It offers
Query, Patch and Create and nothing else: no transactions, no upsert, no
uniqueness. Archived records are soft-deleted and never returned by Query.

Locate turns a query into one of three outcomes:

	exactly one match   the record
	no match            ErrNotFound
	several matches     ErrDuplicateRecords

Any failure talking to the store wraps ErrTransport; IsRetriable reports it.
WithTimeout bounds each call.
*/
package store
