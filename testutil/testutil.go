// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/db"
	"github.com/danielhkuo/pollsync/models"
	"github.com/danielhkuo/pollsync/store"
)

// SourceAddr is a RemoteAddr inside the event source's ranges.
const SourceAddr = "149.154.167.220:443"

// SetupTestDB opens a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                 3318,
		DatabaseType:         cliparse.BackendSQLite,
		DatabaseURL:          ":memory:",
		PollResultCollection: "poll-results",
		VoteLedgerCollection: "vote-ledger",
		OptionMapCollection:  "option-map",
		BotToken:             "123:test-bot",
		ChannelID:            "@test-channel",
		OptionPrefix:         cliparse.DefaultOptionPrefix,
		StoreTimeout:         2 * time.Second,
		MaxBodyBytes:         cliparse.DefaultMaxBodyBytes,
	}
}

// SeedPollSummary creates the summary record the poll publisher would
// have written for a fresh poll.
func SeedPollSummary(t *testing.T, s Seeder, cfg cliparse.Config, pollID string) store.Record {
	t.Helper()

	props := store.Properties{
		models.PropPollID:   store.Title(pollID),
		models.PropPollDate: store.Date(time.Now()),
		models.PropStatus:   store.Select(string(models.StatusOpen)),
	}
	return s.Seed(cfg.PollResultCollection, props)
}

// SeedOptionMap records the option labels for a poll.
func SeedOptionMap(t *testing.T, s Seeder, cfg cliparse.Config, pollID string, labels ...string) store.Record {
	t.Helper()

	if len(labels) != models.OptionCount {
		t.Fatalf("SeedOptionMap needs %d labels, got %d", models.OptionCount, len(labels))
	}
	props := store.Properties{models.PropPollID: store.Title(pollID)}
	for i, label := range labels {
		props[models.OptionProperty(cfg.OptionPrefix, i)] = store.Text(label)
	}
	return s.Seed(cfg.OptionMapCollection, props)
}

// SeedVote creates an active ledger entry directly.
func SeedVote(t *testing.T, s Seeder, cfg cliparse.Config, pollID string, userID int64, choice string) store.Record {
	t.Helper()

	return s.Seed(cfg.VoteLedgerCollection, store.Properties{
		models.PropPollID: store.Title(pollID),
		models.PropUserID: store.Number(userID),
		models.PropChoice: store.Text(choice),
		models.PropDate:   store.Date(time.Now()),
	})
}

// Seeder is implemented by MemoryStore.
type Seeder interface {
	Seed(collection string, props store.Properties) store.Record
}

// PollResultBody builds a poll result webhook payload.
func PollResultBody(pollID string, closed bool, counts ...int) map[string]any {
	options := make([]map[string]any, len(counts))
	total := 0
	for i, c := range counts {
		options[i] = map[string]any{"text": "option", "voter_count": c}
		total += c
	}
	return map[string]any{
		"update_id": 1,
		"poll": map[string]any{
			"id":                pollID,
			"question":          "Where to?",
			"options":           options,
			"is_closed":         closed,
			"total_voter_count": total,
		},
	}
}

// PollAnswerBody builds a poll answer webhook payload. No option ids means
// a retraction.
func PollAnswerBody(pollID string, userID int64, optionIDs ...int) map[string]any {
	if optionIDs == nil {
		optionIDs = []int{}
	}
	return map[string]any{
		"update_id": 2,
		"poll_answer": map[string]any{
			"poll_id":    pollID,
			"option_ids": optionIDs,
			"user": map[string]any{
				"id":         userID,
				"is_bot":     false,
				"username":   "voter",
				"first_name": "Vee",
			},
		},
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = SourceAddr

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertBody checks the plain-text response body
func AssertBody(t *testing.T, w *httptest.ResponseRecorder, expected string) {
	t.Helper()
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}
