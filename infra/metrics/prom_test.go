package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
	"github.com/kilianp07/fjsm/core/preference"
)

func TestPromSink_RecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordRequest(coremetrics.RequestEvent{
		Operation: "solver_status", DB: model.SelectionMongo, Status: 200,
		Outcome: coremetrics.OutcomeOK, Duration: 20 * time.Millisecond,
	}))
	require.NoError(t, sink.RecordRequest(coremetrics.RequestEvent{
		Operation: "solver_status", DB: model.SelectionMongo,
		Outcome: coremetrics.OutcomeSkipped,
	}))

	expected := `
# HELP fjsm_backend_requests_total Total number of backend operations by outcome
# TYPE fjsm_backend_requests_total counter
fjsm_backend_requests_total{db="MONGO",operation="solver_status",outcome="ok",status="200"} 1
fjsm_backend_requests_total{db="MONGO",operation="solver_status",outcome="skipped",status="0"} 1
`
	if err := testutil.CollectAndCompare(sink.requests, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(sink.latency))
}

func TestPromSink_RecordSelection(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, sink.RecordSelection(coremetrics.SelectionEvent{Selection: model.SelectionMongo}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.selection.WithLabelValues("MONGO")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.selection.WithLabelValues("PG")))
}

func TestPromSink_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	assert.Same(t, first.requests, second.requests)
}

func TestPushSink_Flush(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewPushSink(srv.URL, "fjsm-cli")
	require.NoError(t, err)
	require.NoError(t, sink.RecordRequest(coremetrics.RequestEvent{
		Operation: "create_order", DB: model.SelectionPG, Status: 201, Outcome: coremetrics.OutcomeOK,
	}))
	require.NoError(t, sink.Flush(context.Background()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/fjsm-cli", path)

	_, err = NewPushSink("", "")
	assert.Error(t, err)
}

func TestStartSelectionCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := preference.NewStore(ctx, preference.NewMemoryPersister(), "", nil)
	require.NoError(t, err)
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)

	done := StartSelectionCollector(ctx, store, sink)
	_, err = store.Set(ctx, "mongo")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(sink.selection.WithLabelValues("MONGO")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, store.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after store close")
	}
}

func TestStartSelectionCollectorWithoutRecorder(t *testing.T) {
	done := StartSelectionCollector(context.Background(), nil, coremetrics.NopSink{})
	_, open := <-done
	assert.False(t, open)
}
