package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fjsm/config"
	"github.com/kilianp07/fjsm/core/factory"
	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
	"github.com/kilianp07/fjsm/infra/backend"
	"github.com/kilianp07/fjsm/infra/notify"
)

type countingSink struct {
	coremetrics.NopSink
}

var sinkCloses atomic.Int32

func (countingSink) Close() { sinkCloses.Add(1) }

func init() {
	_ = coremetrics.RegisterMetricsSink("counting", func(map[string]any) (coremetrics.MetricsSink, error) {
		return countingSink{}, nil
	})
}

func newTestConfig(t *testing.T, baseURL string, store factory.ModuleConfig) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Backend:    backend.Config{BaseURL: baseURL},
		Preference: config.PreferenceConfig{Store: store},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceTagsRequestsWithSelection(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(backend.HeaderDB)+" "+r.URL.Query().Get(backend.QueryDB))
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := New(ctx, newTestConfig(t, srv.URL, factory.ModuleConfig{Type: "memory"}))
	require.NoError(t, err)
	assert.Equal(t, model.SelectionPG, svc.Selection())

	_, err = svc.Client.RecentPlans(ctx)
	require.NoError(t, err)
	sel, err := svc.SetSelection(ctx, "mongo")
	require.NoError(t, err)
	assert.Equal(t, model.SelectionMongo, sel)
	_, err = svc.Client.RecentPlans(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PG pg", "MONGO mongo"}, seen)
}

func TestServiceSelectionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": filepath.Join(t.TempDir(), "prefs.json")}}
	cfg := newTestConfig(t, backend.DefaultBaseURL, store)

	svc, err := New(ctx, cfg)
	require.NoError(t, err)
	_, err = svc.SetSelection(ctx, "MONGO")
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	svc, err = New(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.Equal(t, model.SelectionMongo, svc.Selection())
}

func TestServiceServeMetricsDisabled(t *testing.T) {
	svc, err := New(context.Background(), newTestConfig(t, backend.DefaultBaseURL, factory.ModuleConfig{Type: "memory"}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.False(t, svc.ServeMetrics(context.Background()))
}

func TestServiceUnknownSink(t *testing.T) {
	cfg := newTestConfig(t, backend.DefaultBaseURL, factory.ModuleConfig{Type: "memory"})
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "statsd")
}

func TestServiceUnknownStore(t *testing.T) {
	cfg := newTestConfig(t, backend.DefaultBaseURL, factory.ModuleConfig{Type: "memory"})
	cfg.Preference.Store.Type = "etcd"
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown type "etcd"`)
	assert.ErrorContains(t, err, "memory")
}

func TestServiceNotifierFailureClosesSinks(t *testing.T) {
	cfg := newTestConfig(t, backend.DefaultBaseURL, factory.ModuleConfig{Type: "memory"})
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "counting"}}
	cfg.Notify = notify.Config{Broker: "tcp://127.0.0.1:1883", UseTLS: true}
	before := sinkCloses.Load()

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "mqtt notifier")
	assert.Equal(t, before+1, sinkCloses.Load())
}

func TestServiceNotifyTopicDisabled(t *testing.T) {
	svc, err := New(context.Background(), newTestConfig(t, backend.DefaultBaseURL, factory.ModuleConfig{Type: "memory"}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	assert.Empty(t, svc.NotifyTopic())
}
