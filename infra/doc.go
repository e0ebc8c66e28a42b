// Package infra contains technical adapters: the backend HTTP client,
// preference stores, metrics sinks, the MQTT notifier, chart rendering and
// error monitoring. These packages should depend only on the interfaces
// defined in the core packages.
package infra
