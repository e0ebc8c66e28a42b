package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
)

// SelectionSource is the subscription side of the preference store.
type SelectionSource interface {
	Subscribe() <-chan model.DatabaseSelection
	Unsubscribe(<-chan model.DatabaseSelection)
}

// StartSelectionCollector records every selection change published by src
// on sinks implementing SelectionRecorder. It stops when the context is
// canceled or the source closes the subscription. The returned channel is
// closed once the collector has exited.
func StartSelectionCollector(ctx context.Context, src SelectionSource, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.SelectionRecorder)
	if src == nil || !ok {
		close(done)
		return done
	}
	sub := src.Subscribe()
	go func() {
		defer close(done)
		defer src.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case sel, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordSelection(coremetrics.SelectionEvent{Selection: sel, Time: time.Now()})
			}
		}
	}()
	return done
}
