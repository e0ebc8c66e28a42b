// Package monitoring holds the process-wide error monitor. Commands and
// background publishers report failures here; the concrete backend (Sentry
// or nothing) is chosen at startup.
package monitoring

import (
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// ReportCommand captures err as the failure of a CLI command and returns it
// unchanged.
func ReportCommand(command string, err error) error {
	if err != nil {
		CaptureException(err, map[string]string{"module": "cli", "command": command})
	}
	return err
}

// Recover captures panics in goroutines.
func Recover() {
	get().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
