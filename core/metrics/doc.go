// Package metrics defines the observations the backend client emits and the
// sink interfaces that record them. Sinks like PromSink and InfluxSink
// live in infra/metrics and are created from configuration through the
// sink registry; several configured sinks are combined with NewMultiSink.
package metrics
