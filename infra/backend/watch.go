package backend

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kilianp07/fjsm/core/model"
)

// ErrNoRunID is returned by Watch when no run identifier is given.
var ErrNoRunID = errors.New("run_id is required")

// DefaultWatchInterval separates two status polls.
const DefaultWatchInterval = 2 * time.Second

// StatusUpdate is one observation made while watching a run.
type StatusUpdate struct {
	Status model.RunStatus
	Raw    json.RawMessage
}

// Watch polls SolverStatus right away and then every interval until the run
// reaches a terminal status or ctx is done. Each successful poll is passed
// to onUpdate. Failed polls are logged and retried on the next tick. The
// last observed status is returned together with ctx.Err() when the context
// ends first.
func (c *Client) Watch(ctx context.Context, runID model.RunID, interval time.Duration, onUpdate func(StatusUpdate)) (model.RunStatus, error) {
	if runID.Empty() {
		return model.RunStatus{}, ErrNoRunID
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last model.RunStatus
	for {
		raw, err := c.SolverStatus(ctx, runID)
		switch {
		case err != nil:
			c.log.Errorf("poll %s: %v", runID, err)
		case raw == nil:
			c.log.Debugf("no status yet for %s", runID)
		default:
			last = model.ParseRunStatus(raw)
			if onUpdate != nil {
				onUpdate(StatusUpdate{Status: last, Raw: raw})
			}
			if last.Terminal() {
				return last, nil
			}
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
