package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushSink records into a private registry and pushes it to a Prometheus
// Pushgateway on Flush. It suits short-lived CLI invocations that exit
// before a scrape could happen.
type PushSink struct {
	*PromSink
	pusher *push.Pusher
}

// NewPushSink creates a sink pushing to url under the given job name.
func NewPushSink(url, job string) (*PushSink, error) {
	if url == "" {
		return nil, fmt.Errorf("pushgateway url is required")
	}
	if job == "" {
		job = "fjsm"
	}
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, err
	}
	return &PushSink{PromSink: prom, pusher: push.New(url, job).Gatherer(reg)}, nil
}

// Flush pushes all collected metrics, replacing the job's previous group.
func (s *PushSink) Flush(ctx context.Context) error {
	if err := s.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
