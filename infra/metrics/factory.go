package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/fjsm/core/factory"
	coremetrics "github.com/kilianp07/fjsm/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("pushgateway", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL string `json:"url"`
			Job string `json:"job"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPushSink(c.URL, c.Job)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
