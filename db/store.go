// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/pollsync/store"
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects, pings and creates the schema.
func Open(driver, url string) (*sql.DB, error) {
	const op = "db.Open"

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == DriverSQLite {
		// one writer at a time; also keeps :memory: databases on one connection
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := CreateSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}

// Store is a store.Store backed by the store_record table.
type Store struct {
	db     *sql.DB
	driver string
}

func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Query(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	const op = "db.Store.Query"

	query := `SELECT id, properties FROM store_record WHERE collection = ? AND archived = ?`
	args := []any{collection, false}
	if title, ok := titleCondition(filter); ok {
		query += ` AND title = ?`
		args = append(args, title)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, transport(op, err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var (
			id  string
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, transport(op, err)
		}
		props, err := decodeProperties(raw)
		if err != nil {
			return nil, transport(op, fmt.Errorf("record %s: %w", id, err))
		}
		if !filter.Match(props) {
			continue
		}
		records = append(records, store.Record{ID: id, Collection: collection, Properties: props})
	}
	if err := rows.Err(); err != nil {
		return nil, transport(op, err)
	}

	return records, nil
}

func (s *Store) Patch(ctx context.Context, id string, patch store.Patch) (store.Record, error) {
	const op = "db.Store.Patch"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Record{}, transport(op, err)
	}
	defer tx.Rollback()

	var (
		collection string
		raw        string
		archived   bool
	)
	err = tx.QueryRowContext(ctx, s.rebind(`
		SELECT collection, properties, archived FROM store_record WHERE id = ?
	`), id).Scan(&collection, &raw, &archived)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, fmt.Errorf("%s: %s: %w", op, id, store.ErrNotFound)
	}
	if err != nil {
		return store.Record{}, transport(op, err)
	}

	props, err := decodeProperties(raw)
	if err != nil {
		return store.Record{}, transport(op, err)
	}
	for k, v := range patch.Properties {
		props[k] = v
	}
	encoded, err := json.Marshal(props)
	if err != nil {
		return store.Record{}, fmt.Errorf("%s: %w", op, err)
	}
	archived = archived || patch.Archive

	_, err = tx.ExecContext(ctx, s.rebind(`
		UPDATE store_record
		SET properties = ?, title = ?, archived = ?, updated_at = ?
		WHERE id = ?
	`), string(encoded), titleOf(props), archived, time.Now().UTC(), id)
	if err != nil {
		return store.Record{}, transport(op, err)
	}

	if err := tx.Commit(); err != nil {
		return store.Record{}, transport(op, err)
	}

	return store.Record{ID: id, Collection: collection, Properties: props, Archived: archived}, nil
}

func (s *Store) Create(ctx context.Context, collection string, props store.Properties) (store.Record, error) {
	const op = "db.Store.Create"

	encoded, err := json.Marshal(props)
	if err != nil {
		return store.Record{}, fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO store_record (id, collection, title, archived, properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), id, collection, titleOf(props), false, string(encoded), now, now)
	if err != nil {
		return store.Record{}, transport(op, err)
	}

	return store.Record{ID: id, Collection: collection, Properties: props.Clone()}, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func titleCondition(f store.Filter) (string, bool) {
	for _, c := range f.Conditions {
		if c.Value.Kind == store.KindTitle {
			return c.Value.Str, true
		}
	}
	return "", false
}

func titleOf(props store.Properties) string {
	for _, v := range props {
		if v.Kind == store.KindTitle {
			return v.Str
		}
	}
	return ""
}

func decodeProperties(raw string) (store.Properties, error) {
	props := store.Properties{}
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, err
	}
	return props, nil
}

func transport(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrTransport, err)
}
