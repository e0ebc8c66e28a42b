package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
)

// PromSink records backend calls in Prometheus metrics.
type PromSink struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	selection *prometheus.GaugeVec
}

// NewPromSink registers client metrics on the default Prometheus registerer.
// The metrics endpoint should be started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fjsm_backend_requests_total",
		Help: "Total number of backend operations by outcome",
	}, []string{"operation", "db", "status", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fjsm_backend_request_duration_seconds",
		Help:    "Duration of backend operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "db"})
	selection := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fjsm_database_selection",
		Help: "1 for the database variant requests are currently routed to",
	}, []string{"db"})

	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			requests = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(selection); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			selection = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{requests: requests, latency: latency, selection: selection}, nil
}

// RecordRequest counts the call and observes its duration. Skipped calls
// never reached the network and are only counted.
func (s *PromSink) RecordRequest(ev coremetrics.RequestEvent) error {
	db := ev.DB.String()
	s.requests.WithLabelValues(ev.Operation, db, strconv.Itoa(ev.Status), string(ev.Outcome)).Inc()
	if ev.Outcome != coremetrics.OutcomeSkipped {
		s.latency.WithLabelValues(ev.Operation, db).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordSelection flips the selection gauge to the new variant.
func (s *PromSink) RecordSelection(ev coremetrics.SelectionEvent) error {
	for _, sel := range []model.DatabaseSelection{model.SelectionPG, model.SelectionMongo} {
		v := 0.0
		if sel == ev.Selection {
			v = 1
		}
		s.selection.WithLabelValues(sel.String()).Set(v)
	}
	return nil
}
