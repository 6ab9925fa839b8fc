// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/pollsync/store"
)

const (
	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	pageSize         = 100
	maxErrorBodySize = 4096
)

// Client is a store.Store backed by Notion databases. A collection is a
// database id and a record is a page.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the Notion REST API at baseURL. timeout
// bounds each HTTP round trip; zero means no client-side limit.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiError is a non-2xx reply.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion returned %d: %s", e.Status, e.Message)
}

// Query pages through every match in the database.
func (c *Client) Query(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	const op = "notion.Query"

	var (
		records []store.Record
		cursor  string
	)
	for {
		req := queryRequest{PageSize: pageSize, StartCursor: cursor}
		if len(filter.Conditions) > 0 {
			req.Filter = encodeFilter(filter)
		}

		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+collection+"/query", req, &resp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, transport(err))
		}

		for _, p := range resp.Results {
			rec := p.record(collection)
			// archived pages are never returned by the API; the check
			// guards against stale caches in front of it
			if rec.Archived || !filter.Match(rec.Properties) {
				continue
			}
			records = append(records, rec)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	slog.Debug("notion query", "database", collection, "matches", len(records))
	return records, nil
}

func (c *Client) Patch(ctx context.Context, id string, patch store.Patch) (store.Record, error) {
	const op = "notion.Patch"

	req := updateRequest{Properties: encodeProperties(patch.Properties)}
	if patch.Archive {
		archived := true
		req.Archived = &archived
	}

	var p page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+id, req, &p); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return store.Record{}, fmt.Errorf("%s: %w", op, store.ErrNotFound)
		}
		return store.Record{}, fmt.Errorf("%s: %w", op, transport(err))
	}
	return p.record(p.Parent.DatabaseID), nil
}

func (c *Client) Create(ctx context.Context, collection string, props store.Properties) (store.Record, error) {
	const op = "notion.Create"

	req := createRequest{
		Parent:     parent{DatabaseID: collection},
		Properties: encodeProperties(props),
	}

	var p page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &p); err != nil {
		return store.Record{}, fmt.Errorf("%s: %w", op, transport(err))
	}
	return p.record(collection), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		apiErr := &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var decoded struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &decoded) == nil && decoded.Message != "" {
			apiErr.Code = decoded.Code
			apiErr.Message = decoded.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func transport(err error) error {
	return fmt.Errorf("%w: %w", store.ErrTransport, err)
}
