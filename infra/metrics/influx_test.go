package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, strings.TrimSpace(string(data)))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordSolve(t *testing.T) {
	var c capture
	srv := c.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.SolveEvent{
		ScenarioID: "s1",
		Status:     model.StatusOptimal,
		Objective:  1500,
		Nodes:      3,
		Duration:   1500 * time.Microsecond,
		Time:       now,
	}
	if err := sink.RecordSolve(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("ucommit_solve").
		AddTag("scenario_id", "s1").
		AddTag("status", "optimal").
		AddTag("warm_start", "false").
		AddField("objective", 1500.0).
		AddField("nodes", 3).
		AddField("duration_ms", 1.5).
		SetTime(now)
	require.Len(t, c.bodies, 1)
	assert.Equal(t, line(p), c.bodies[0])
}

func TestInfluxSink_RecordCorpusAndAccuracy(t *testing.T) {
	var c capture
	srv := c.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	require.NoError(t, sink.RecordCorpus(coremetrics.CorpusEvent{
		RunID: "r", Scenarios: 10, Optimal: 7, Infeasible: 2, SolverErrors: 1,
		Samples: 28, Train: 22, Test: 6, Duration: 2 * time.Second, Time: now,
	}))
	require.NoError(t, sink.RecordAccuracy([]coremetrics.AccuracyEvent{
		{RunID: "r", Generator: 0, Accuracy: 1, BaseRate: 1, Samples: 6, Time: now},
		{RunID: "r", Generator: 2, Accuracy: 0.8333333, BaseRate: 0.1666667, Samples: 6, Time: now},
	}))
	require.NoError(t, sink.RecordAccuracy(nil))

	corpus := write.NewPointWithMeasurement("ucommit_corpus").
		AddTag("run_id", "r").
		AddField("scenarios", 10).
		AddField("optimal", 7).
		AddField("infeasible", 2).
		AddField("solver_errors", 1).
		AddField("samples", 28).
		AddField("train", 22).
		AddField("test", 6).
		AddField("duration_ms", 2000.0).
		SetTime(now)
	acc0 := write.NewPointWithMeasurement("ucommit_accuracy").
		AddTag("run_id", "r").
		AddTag("generator", "0").
		AddField("accuracy", 1.0).
		AddField("base_rate", 1.0).
		AddField("samples", 6).
		SetTime(now)
	acc2 := write.NewPointWithMeasurement("ucommit_accuracy").
		AddTag("run_id", "r").
		AddTag("generator", "2").
		AddField("accuracy", 0.833).
		AddField("base_rate", 0.167).
		AddField("samples", 6).
		SetTime(now)

	require.Len(t, c.bodies, 2, "empty accuracy batches must not be written")
	assert.Equal(t, line(corpus), c.bodies[0])
	assert.Equal(t, []string{line(acc0), line(acc2)}, strings.Split(c.bodies[1], "\n"))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestNewInfluxSinkWithFallback_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[]}`)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "tok", Org: "org", Bucket: "bucket"})
	is, ok := sink.(*InfluxSink)
	require.True(t, ok, "expected InfluxSink on passing health check")
	is.Close()
}
