package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"market-loader/src/helpers"
	"market-loader/src/interfaces"
	"market-loader/src/models"
	"market-loader/src/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPipeline fails when asked for the symbol "FAIL".
type stubPipeline struct{}

func (stubPipeline) Name() string        { return "stub" }
func (stubPipeline) Description() string { return "test pipeline" }

func (stubPipeline) Stages(opts pipeline.RunOptions) []pipeline.Stage {
	return []pipeline.Stage{
		{Name: "init", Setup: true, Run: func(context.Context) (int64, error) { return 0, nil }},
		{Name: "load", Run: func(context.Context) (int64, error) {
			if opts.Symbol == "FAIL" {
				return 0, helpers.NewLoadError("boom", errors.New("duplicate key"))
			}
			return 3, nil
		}},
	}
}

func newTestServer(t *testing.T) (*APIServer, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &models.MConfig{Host: "127.0.0.1", Port: 8090, LogLevel: "info"}
	runner := pipeline.NewRunner(nil)
	registry := pipeline.NewRegistry(runner, pipeline.NewHistory(10), stubPipeline{})
	s := NewAPIServer(cfg, registry)
	runner.Publisher = s

	go s.handleWebsockets()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Stop()
	})
	return s, srv
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// -----------------------------------------------------------------------------

func TestHealthAndPipelines(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	decode(t, resp, &health)
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(srv.URL + "/api/pipelines")
	require.NoError(t, err)
	var body struct {
		Pipelines []pipeline.PipelineInfo `json:"pipelines"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Pipelines, 1)
	assert.Equal(t, "stub", body.Pipelines[0].Name)
	assert.Equal(t, []string{"init", "load"}, body.Pipelines[0].Stages)
}

func TestRunPipelineAndHistory(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/pipelines/stub/run", "application/json", strings.NewReader(`{"symbol":"AMZN"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var report models.MRunReport
	decode(t, resp, &report)
	assert.Equal(t, models.StatusSucceeded, report.Status)
	assert.EqualValues(t, 3, report.Stages[1].Rows)

	resp, err = http.Get(srv.URL + "/api/runs/" + report.RunID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/runs/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/runs")
	require.NoError(t, err)
	var runs struct {
		Runs []models.MRunReport `json:"runs"`
	}
	decode(t, resp, &runs)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, report.RunID, runs.Runs[0].RunID)
}

func TestRunPipelineErrors(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/pipelines/nope/run", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/api/pipelines/stub/run?symbol=FAIL", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body struct {
		Kind   string            `json:"kind"`
		Report models.MRunReport `json:"report"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "LoadError", body.Kind)
	assert.Equal(t, models.StatusFailed, body.Report.Status)

	resp, err = http.Post(srv.URL+"/api/pipelines/stub/run", "application/json", strings.NewReader(`{bad`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestWebSocketStreamsStageEvents(t *testing.T) {
	s, srv := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/pipelines/stub/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var types []string
	for {
		var event models.MStageEvent
		require.NoError(t, conn.ReadJSON(&event))
		types = append(types, event.Type)
		if event.Type == pipeline.EventRunFinished {
			assert.Equal(t, models.StatusSucceeded, event.Status)
			break
		}
	}
	assert.Equal(t, pipeline.EventRunStarted, types[0])
	assert.Contains(t, types, pipeline.EventStageFinished)

	require.NoError(t, conn.WriteJSON(map[string]string{"command": "runs"}))
	var runs runsMessage
	require.NoError(t, conn.ReadJSON(&runs))
	assert.Equal(t, "runs", runs.Type)
	assert.Len(t, runs.Runs, 1)
}

func TestStopBeforeStartShutsDown(t *testing.T) {
	cfg := &models.MConfig{Host: "127.0.0.1", Port: 8091, LogLevel: "info"}
	registry := pipeline.NewRegistry(pipeline.NewRunner(nil), pipeline.NewHistory(10), stubPipeline{})
	var srv interfaces.IDataExchanger = NewAPIServer(cfg, registry)

	require.NoError(t, srv.Stop())

	started := make(chan error, 1)
	go func() { started <- srv.Start() }()

	select {
	case err := <-started:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Stop")
	}
	assert.NoError(t, srv.Stop())
}
