package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/planday/core/factory"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/infra/logger"
	itestutil "github.com/kilianp07/planday/internal/testutil"
)

func TestPromSinkRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordGeneration(coremetrics.GenerationEvent{Category: "Work", Attempts: 3, Elapsed: time.Millisecond}))
	require.NoError(t, sink.RecordGeneration(coremetrics.GenerationEvent{Category: "Work", Attempts: 10000, Failed: true}))
	require.NoError(t, sink.RecordValidation(coremetrics.ValidationEvent{Policy: "strict", Reason: "valid", Valid: true, Score: 100}))
	require.NoError(t, sink.RecordValidation(coremetrics.ValidationEvent{Policy: "strict", Reason: "not_sorted"}))
	require.NoError(t, sink.RecordEvaluation(coremetrics.EvaluationEvent{Policy: "strict", Total: 4, ValidCount: 1, Mean: 25}))

	expected := `
# HELP planday_instances_generated_total Generation requests by category and outcome
# TYPE planday_instances_generated_total counter
planday_instances_generated_total{category="Work",outcome="failed"} 1
planday_instances_generated_total{category="Work",outcome="ok"} 1
`
	require.NoError(t, testutil.CollectAndCompare(sink.generated, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.verdicts.WithLabelValues("strict", "valid", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.verdicts.WithLabelValues("strict", "not_sorted", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.scores))
	assert.Equal(t, 0.25, testutil.ToFloat64(sink.runValid.WithLabelValues("strict")))
	assert.Equal(t, 25.0, testutil.ToFloat64(sink.runMean.WithLabelValues("strict")))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.runTotal.WithLabelValues("strict")))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	require.NoError(t, err)
	second, err := NewPromSink(reg)
	require.NoError(t, err)
	require.NoError(t, first.RecordValidation(coremetrics.ValidationEvent{Policy: "partial", Reason: "valid", Valid: true}))
	assert.Equal(t, 1.0, testutil.ToFloat64(second.verdicts.WithLabelValues("partial", "valid", "true")))
}

type influxCapture struct {
	mu     sync.Mutex
	bodies []string
	health int
}

func (c *influxCapture) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(c.health)
		status := "pass"
		if c.health != http.StatusOK {
			status = "fail"
		}
		_, _ = io.WriteString(w, `{"name":"influxdb","status":"`+status+`","checks":[]}`)
		return
	}
	data, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, strings.TrimSpace(string(data)))
	c.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func TestInfluxSinkWritesPoints(t *testing.T) {
	capture := &influxCapture{health: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(capture.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"}, logger.NopLogger{})
	defer sink.Close()
	now := time.Unix(1700000000, 0)

	require.NoError(t, sink.RecordValidation(coremetrics.ValidationEvent{Policy: "strict", Reason: "valid", Valid: true, Score: 66.66666, Time: now}))
	require.NoError(t, sink.RecordEvaluation(coremetrics.EvaluationEvent{Policy: "strict", Total: 10, ValidCount: 7, Mean: 61.2, StdDev: 3.5, Time: now}))

	wantValidation := write.NewPointWithMeasurement("validation_event").
		AddTag("policy", "strict").
		AddTag("reason", "valid").
		AddTag("valid", "true").
		AddField("score", 66.667).
		SetTime(now)
	wantRun := write.NewPointWithMeasurement("evaluation_run").
		AddTag("policy", "strict").
		AddField("total", 10).
		AddField("valid", 7).
		AddField("mean", 61.2).
		AddField("std_dev", 3.5).
		SetTime(now)

	require.Len(t, capture.bodies, 2)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(wantValidation, time.Nanosecond)), capture.bodies[0])
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(wantRun, time.Nanosecond)), capture.bodies[1])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	failing := &influxCapture{health: http.StatusServiceUnavailable}
	srv := httptest.NewServer(http.HandlerFunc(failing.handler))
	defer srv.Close()
	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "tok", Org: "org", Bucket: "bucket"}, logger.NopLogger{})
	assert.IsType(t, coremetrics.NopSink{}, sink)

	healthy := &influxCapture{health: http.StatusOK}
	srv2 := httptest.NewServer(http.HandlerFunc(healthy.handler))
	defer srv2.Close()
	sink = NewInfluxSinkWithFallback(InfluxConfig{URL: srv2.URL, Token: "tok", Org: "org", Bucket: "bucket"}, logger.NopLogger{})
	require.IsType(t, &InfluxSink{}, sink)
	sink.(*InfluxSink).Close()
}

func TestSinksRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinks := Sinks(reg, logger.NopLogger{})
	assert.Equal(t, []string{"influx", "nop", "prometheus", "sqlite"}, sinks.Types())

	_, err := sinks.Create(factory.ModuleConfig{Type: "sqlite"})
	assert.Error(t, err)
	kpiSink, err := sinks.Create(factory.ModuleConfig{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "kpi.db")}})
	require.NoError(t, err)
	require.NoError(t, kpiSink.RecordValidation(coremetrics.ValidationEvent{Policy: "strict", Reason: "valid", Valid: true, Score: 100}))
	require.NoError(t, kpiSink.(io.Closer).Close())

	s, err := coremetrics.NewMetricsSink(sinks, []factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}})
	require.NoError(t, err)
	require.NoError(t, s.RecordValidation(coremetrics.ValidationEvent{Policy: "strict", Reason: "valid", Valid: true, Score: 100}))
	rec, ok := s.(coremetrics.EvaluationRecorder)
	require.True(t, ok)
	require.NoError(t, rec.RecordEvaluation(coremetrics.EvaluationEvent{Policy: "strict", Total: 1, ValidCount: 1, Mean: 100}))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["planday_validations_total"])
	assert.True(t, names["planday_evaluation_mean_score"])
}

func TestServeProm(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordGeneration(coremetrics.GenerationEvent{Category: "Travel", Attempts: 1}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeProm(ctx, ln, reg, logger.NopLogger{}) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), itestutil.MetricTimeout)
	defer waitCancel()
	require.NoError(t, itestutil.WaitForMetric(waitCtx, "http://"+ln.Addr().String()+"/metrics",
		`planday_instances_generated_total{category="Travel",outcome="ok"} 1`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
