// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithLogging(t *testing.T) {
	// Create a simple handler that returns OK
	handlerCalled := false
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	// Wrap with logging middleware
	wrappedHandler := WithLogging(testHandler)

	// Create test request and recorder
	req := httptest.NewRequest("GET", "/test-path", nil)
	w := httptest.NewRecorder()

	// Execute
	wrappedHandler(w, req)

	// Verify handler was called
	if !handlerCalled {
		t.Error("Expected handler to be called")
	}

	// Verify response was written correctly
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	// Test that logging doesn't interfere with various response codes
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"NotOk", http.StatusOK, "Not Ok"},
		{"BadRequest", http.StatusBadRequest, "Invalid request"},
		{"TooLarge", http.StatusRequestEntityTooLarge, "too large"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestTextResponse(t *testing.T) {
	w := httptest.NewRecorder()

	TextResponse(w, http.StatusBadRequest, "Invalid request")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain Content-Type, got '%s'", ct)
	}
	if w.Body.String() != "Invalid request" {
		t.Errorf("Expected body 'Invalid request', got '%s'", w.Body.String())
	}
}

func TestReadBody(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"poll":{}}`))
		w := httptest.NewRecorder()

		body, err := ReadBody(w, req, 1024)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if string(body) != `{"poll":{}}` {
			t.Errorf("Unexpected body '%s'", body)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 2048)))
		w := httptest.NewRecorder()

		if _, err := ReadBody(w, req, 1024); err == nil {
			t.Error("Expected error for oversized body")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		expected   string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "149.154.160.5:43210",
			expected:   "149.154.160.5",
		},
		{
			name:       "ipv6 remote addr with port",
			remoteAddr: "[2001:db8::1]:443",
			expected:   "2001:db8::1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "149.154.160.5",
			expected:   "149.154.160.5",
		},
		{
			name:       "forwarded header ignored without trust",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "149.154.160.5"},
			expected:   "10.0.0.1",
		},
		{
			name:       "forwarded header first hop",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "149.154.160.5, 10.0.0.2"},
			trustProxy: true,
			expected:   "149.154.160.5",
		},
		{
			name:       "real ip header",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "91.108.4.9"},
			trustProxy: true,
			expected:   "91.108.4.9",
		},
		{
			name:       "trusted proxy without headers",
			remoteAddr: "10.0.0.1:1234",
			trustProxy: true,
			expected:   "10.0.0.1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req, tc.trustProxy); got != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, got)
			}
		})
	}
}
