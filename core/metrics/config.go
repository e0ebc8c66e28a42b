package metrics

import "github.com/kilianp07/fjsm/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is where long-running commands expose /metrics.
	// Empty disables the endpoint.
	PrometheusAddr string `json:"prometheus_addr"`
}
