// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

The Config is built once in main and passed to every component constructor.
Nothing reads the environment after startup.

# CLI Flags

	-p              Server port
	-t              Record store backend (notion, postgres, sqlite)
	-d              Database URL (postgres, sqlite)
	-poll-results   Poll summary collection ID
	-vote-ledger    Vote ledger collection ID
	-option-map     Poll option map collection ID
	-notion-token   Notion integration token

# Environment Variables

Flags fall back to environment variables:

	PORT                  → -p (default 3318)
	DATABASE_TYPE         → -t (default notion)
	DATABASE_URL          → -d
	NOTION_TOKEN          → -notion-token
	POLL_RESULT_DB_ID     → -poll-results
	POLL_DET_RESULT_DB_ID → -vote-ledger
	POLL_TO_EVENT_DBID    → -option-map

Environment only:

	API_KEY          event-source bot credential (required)
	CHANNEL_ID       event-source channel (required)
	NOTION_BASE_URL  default https://api.notion.com/v1
	OPTION_PREFIX    per-option property prefix, falls back to EVENT_NAME (default "Event ")
	STORE_TIMEOUT    bound on every store call (default 10s)
	MAX_BODY_BYTES   webhook body limit (default 1 MiB)
	TRUST_PROXY      honour X-Forwarded-For / X-Real-IP (default false)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if a required identifier is missing or a
tunable does not parse. main exits on that error; it is never retried.
*/
package cliparse
