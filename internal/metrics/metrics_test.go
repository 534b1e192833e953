package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Completion("web3-basics", OutcomeRecorded)
	m.VersionConflict("web3-basics")
	m.Claim("solidity", OutcomeClaimed)
	m.ObserveRequest(http.MethodGet, "/health", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `progress_engine_section_completions_total{module="web3-basics",outcome="recorded"} 1`)
	assert.Contains(t, body, `progress_engine_version_conflicts_total{module="web3-basics"} 1`)
	assert.Contains(t, body, `progress_engine_certification_claims_total{module="solidity",outcome="claimed"} 1`)
	assert.Contains(t, body, "progress_engine_http_request_duration_seconds")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Completion("defi", OutcomeNoop)
		m.Claim("defi", OutcomeError)
		m.VersionConflict("defi")
		m.ObserveRequest("GET", "/", "200", time.Second)
	})
}
