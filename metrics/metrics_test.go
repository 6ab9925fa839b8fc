package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObserveAndScrape(t *testing.T) {
	m := New()
	m.Observe("vote_cast", OutcomeOK)
	m.Observe("vote_cast", OutcomeOK)
	m.Observe("poll_result", "transport")
	m.ObserveDuration("vote_cast", 15*time.Millisecond)

	assert.Equal(t, float64(2), m.Count("vote_cast", OutcomeOK))
	assert.Equal(t, float64(1), m.Count("poll_result", "transport"))
	assert.Zero(t, m.Count("vote_retracted", OutcomeOK))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `pollsync_events_total{kind="vote_cast",outcome="ok"} 2`), body)
	assert.Contains(t, body, `pollsync_event_duration_seconds_count{kind="vote_cast"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe("vote_cast", OutcomeOK)
	m.ObserveDuration("vote_cast", time.Second)
	assert.Zero(t, m.Count("vote_cast", OutcomeOK))
}
