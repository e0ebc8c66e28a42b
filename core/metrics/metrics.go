package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/fjsm/core/model"
)

// Outcome classifies how a backend call ended from the caller's view.
type Outcome string

const (
	// OutcomeOK means a 2xx response was decoded and returned.
	OutcomeOK Outcome = "ok"
	// OutcomeDegraded means a read call returned its empty sentinel.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFailed means the caller received an error.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means no request was issued (missing run id).
	OutcomeSkipped Outcome = "skipped"
)

// RequestEvent describes one backend operation.
type RequestEvent struct {
	RequestID string
	Operation string
	Method    string
	Path      string
	DB        model.DatabaseSelection
	// Status is the HTTP status code, 0 when no response was received.
	Status   int
	Outcome  Outcome
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records backend calls for observability purposes.
type MetricsSink interface {
	RecordRequest(ev RequestEvent) error
}

// SelectionEvent captures a change of the database selection.
type SelectionEvent struct {
	Selection model.DatabaseSelection
	Time      time.Time
}

// SelectionRecorder records selection changes.
type SelectionRecorder interface {
	RecordSelection(ev SelectionEvent) error
}

// Flusher is implemented by sinks that buffer observations and must be
// flushed before a short-lived process exits.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRequest(RequestEvent) error     { return nil }
func (NopSink) RecordSelection(SelectionEvent) error { return nil }
func (NopSink) Flush(context.Context) error          { return nil }
