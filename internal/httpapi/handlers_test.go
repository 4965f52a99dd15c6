package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocx/compliance-gateway/internal/agentstate"
	"github.com/ocx/compliance-gateway/internal/audit"
	"github.com/ocx/compliance-gateway/internal/classifier"
	"github.com/ocx/compliance-gateway/internal/clock"
	"github.com/ocx/compliance-gateway/internal/config"
	"github.com/ocx/compliance-gateway/internal/metrics"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	tier := config.TierThresholds{ReportIntervalSec: 3600, ReportEveryNMessages: 25}
	cfg := &config.Config{
		Gateway: config.GatewayConfig{
			MinCoverage:          0.9,
			MinSummaryLength:     10,
			ViolationCooldownHrs: 24,
			MaxViolations:        3,
			SkewToleranceSec:     5,
			ThrottleRate:         1,
			ThrottleWindowSec:    5,
		},
		RiskTiers: config.RiskTierConfig{Low: tier, Medium: tier, High: tier, Critical: tier},
	}
	m, _ := metrics.NewUnregistered()
	gw := agentstate.NewGateway(classifier.NewHeuristic(), audit.NewMemorySink(), m, cfg, clock.NewFixed(time.Unix(1_000_000, 0)))
	return NewServer(gw)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doJSON(t, testServer(t).Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestRegisterProtocolEndpoint(t *testing.T) {
	router := testServer(t).Router()

	rec := doJSON(t, router, http.MethodPost, "/register_protocol_for_agent", map[string]interface{}{
		"agent_id": "a1",
		"protocol": map[string]interface{}{
			"name": "p", "version": "1", "purpose": "x", "scope": "y", "risk_tier": "low", "translation_method": "m",
		},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterProtocolEndpointRejectsMalformedBody(t *testing.T) {
	router := testServer(t).Router()

	rec := doJSON(t, router, http.MethodPost, "/register_protocol_for_agent", map[string]interface{}{
		"protocol": map[string]interface{}{"name": "p", "version": "1", "risk_tier": "low"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageEndpointRoundTrip(t *testing.T) {
	router := testServer(t).Router()

	reg := doJSON(t, router, http.MethodPost, "/register_protocol_for_agent", map[string]interface{}{
		"agent_id": "a2",
		"protocol": map[string]interface{}{
			"name": "p", "version": "1", "purpose": "x", "scope": "y", "risk_tier": "low", "translation_method": "m",
		},
	})
	require.Equal(t, http.StatusOK, reg.Code)

	rec := doJSON(t, router, http.MethodPost, "/send", map[string]interface{}{
		"from": "a2", "to": "a3", "content": "X9|st=17",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["message_id"])
}

func TestSendMessageEndpointUnregisteredIsRejected(t *testing.T) {
	router := testServer(t).Router()

	rec := doJSON(t, router, http.MethodPost, "/send", map[string]interface{}{
		"from": "a4", "to": "a5", "content": "X9|st=17",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "protocol_not_registered", body["reason"])
}

func TestGetAgentEndpointNotFound(t *testing.T) {
	router := testServer(t).Router()

	rec := doJSON(t, router, http.MethodGet, "/agents/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAgentEndpointReturnsSnapshot(t *testing.T) {
	router := testServer(t).Router()
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/register_protocol_for_agent", map[string]interface{}{
		"agent_id": "a6",
		"protocol": map[string]interface{}{
			"name": "p", "version": "1", "purpose": "x", "scope": "y", "risk_tier": "low", "translation_method": "m",
		},
	}).Code)

	rec := doJSON(t, router, http.MethodGet, "/agents/a6", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a6", body["agent_id"])
	assert.Equal(t, "active", body["enforcement"])
}

func TestMetricsEndpointIsServed(t *testing.T) {
	router := testServer(t).Router()
	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
