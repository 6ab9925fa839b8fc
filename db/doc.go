// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides the SQL record store backend.

# Drivers

PostgreSQL (github.com/lib/pq) and SQLite (modernc.org/sqlite) are both
registered; pick one with DATABASE_TYPE:

	conn, err := db.Open(db.DriverPostgres, cfg.DatabaseURL)
	s := db.NewStore(conn, db.DriverPostgres)

Open pings the database and calls CreateSchema. SQLite connections are
limited to one open connection.

# Schema

One table holds every collection:

	store_record(id, collection, title, archived, properties, created_at, updated_at)

properties is the JSON encoding of store.Properties. title mirrors the
record's title property (the poll id) and is indexed together with
collection and archived.

# Queries

Query pushes the collection, the title condition and archived = false into
SQL; the remaining conditions (for example UserID) are checked with
store.Filter.Match. Rows come back in creation order.

Patch reads and rewrites a row inside a transaction. Archiving is one-way.

All database failures wrap store.ErrTransport; patching a missing id wraps
store.ErrNotFound.
*/
package db
