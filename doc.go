// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the pollsync webhook server.

pollsync receives daily-poll webhook updates (aggregate results and
individual answers) and mirrors them into a record store that has no
transactions or upsert: a Notion workspace, PostgreSQL or SQLite.

# Starting the Server

Configuration comes from flags, the environment, or a .env file:

	POLL_RESULT_DB_ID=... POLL_DET_RESULT_DB_ID=... POLL_TO_EVENT_DBID=... \
	API_KEY=... CHANNEL_ID=... NOTION_TOKEN=... go run .

Or against a local SQLite file:

	go run . -t sqlite -d pollsync.db -poll-results results \
		-vote-ledger ledger -option-map options

# Configuration

Required settings:

  - POLL_RESULT_DB_ID (--poll-results): poll summary collection
  - POLL_DET_RESULT_DB_ID (--vote-ledger): vote ledger collection
  - POLL_TO_EVENT_DBID (--option-map): poll option map collection
  - API_KEY, CHANNEL_ID: event source credentials
  - NOTION_TOKEN (--notion-token) for the notion backend, or
    DATABASE_URL (-d) for postgres and sqlite

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): notion, postgres or sqlite (default: notion)
  - OPTION_PREFIX or EVENT_NAME: option property prefix (default: "Event ")
  - STORE_TIMEOUT: per store call (default: 10s)
  - MAX_BODY_BYTES: webhook body limit (default: 1 MiB)
  - TRUST_PROXY: honour X-Forwarded-For
  - LOG_LEVEL, LOG_FILE

# Architecture

  - handlers: webhook handler (authenticate, classify, dispatch)
  - votesync: result updater, vote ledger, option resolver
  - store: record store interface and the locate-then-mutate helper
  - notion, db: store backends
  - router: Route definitions using Go 1.22+ routing
  - middleware: logging, body limits, client IP
  - metrics: Prometheus counters
  - models: webhook payloads and event classification
  - auth: source address allowlist
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
