package ui

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypolab/adapters/generator"
	"hypolab/adapters/llm"
	"hypolab/app"
	"hypolab/internal/ledger"
	"hypolab/ports"
)

func newTestApp(t *testing.T) *App {
	return newTestAppWith(t, generator.NewSynthetic())
}

func newTestAppWith(t *testing.T, gen ports.Generator) *App {
	t.Helper()
	led, err := ledger.New(t.TempDir(), nil)
	require.NoError(t, err)
	pipeline, err := app.NewPipeline(app.Config{
		Ledger:    led,
		Generator: gen,
		Clock:     func() time.Time { return time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC) },
	})
	require.NoError(t, err)
	a, err := NewApp(Config{Port: "0"}, pipeline, nil)
	require.NoError(t, err)
	return a
}

func createRun(t *testing.T, a *App, count int) app.RunResult {
	t.Helper()
	body, err := json.Marshal(app.RunRequest{Domain: "generic_local", Seed: 42, Count: count})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result app.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestCreateRunEndpoint(t *testing.T) {
	a := newTestApp(t)
	result := createRun(t, a, 3)

	assert.Equal(t, 3, result.TotalHypotheses)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.AcceptedIDs, 3)
}

func TestCreateRunRejectsBadRequests(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{not json"},
		{"zero count", `{"domain":"d","seed":1,"count":0}`},
		{"negative seed", `{"domain":"d","seed":-1,"count":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader([]byte(tc.body))))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var payload map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, "INVALID_INPUT", payload["code"])
		})
	}
}

func TestGetRunEndpoint(t *testing.T) {
	a := newTestApp(t)
	result := createRun(t, a, 1)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+result.RunID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var detail app.RunDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, result.RunID, detail.Run.ID)
	require.NotNil(t, detail.Manifest)
	assert.Equal(t, 1, detail.Manifest.TotalHypotheses)
}

func TestGetRunNotFound(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/G-unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "NOT_FOUND", payload["code"])
	assert.NotEmpty(t, payload["error"])
}

func TestCreateRunWithUnimplementedGenerator(t *testing.T) {
	a := newTestAppWith(t, llm.NewGenerator("local-7b"))

	body := []byte(`{"domain":"generic_local","seed":42,"count":1}`)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewReader(body)))
	require.Equal(t, http.StatusNotImplemented, rec.Code, rec.Body.String())

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "NOT_IMPLEMENTED", payload["code"])
}

func TestInstructionsEndpointRendersHTML(t *testing.T) {
	a := newTestApp(t)
	result := createRun(t, a, 1)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+result.RunID.String()+"/instructions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), result.RunID.String())
}

func TestListHypothesesEndpoint(t *testing.T) {
	a := newTestApp(t)
	createRun(t, a, 2)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hypotheses?domain=generic_local&status=ACCEPTED", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Total)

	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hypotheses?domain=no_such_domain", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 0, payload.Total, "empty result is an empty list, not an error")
}

func TestExecuteExperimentEndpoint(t *testing.T) {
	a := newTestApp(t)
	result := createRun(t, a, 1)
	require.Len(t, result.ExperimentIDs, 1)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/experiments/"+result.ExperimentIDs[0].String()+"/execute", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var execution app.StubExecution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &execution))
	assert.Equal(t, "SIMULATED", execution.Status)
	assert.Equal(t, result.ExperimentIDs[0], execution.ExperimentID)

	rec = httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/experiments/E-unknown/execute", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelfCheckEndpoint(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/selfcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.SelfCheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Deterministic)
	assert.Equal(t, result.Run1ID, result.Run2ID)
}

func TestHealthEndpoint(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
