package application

import (
	"context"
	"fmt"
)

// WatchCallback is invoked after every cycle with its 1-based number.
type WatchCallback func(run int, result RunResult, err error)

// WatchHandler reruns coverage whenever source files change.
type WatchHandler struct {
	Collector *Collector
	Watcher   FileWatcher
}

// Watch performs an initial Run and then one Rerun per change notification
// until ctx is done or the watcher closes.
func (h *WatchHandler) Watch(ctx context.Context, root string, opts RunOptions, callback WatchCallback) error {
	if err := h.Watcher.WatchDir(root); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	runNumber := 1
	result, runErr := h.Collector.Run(ctx, opts)
	if callback != nil {
		callback(runNumber, result, runErr)
	}
	if isFatal(runErr) {
		return runErr
	}

	events := h.Watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			result, runErr := h.Collector.Rerun(ctx, nil)
			if callback != nil {
				callback(runNumber, result, runErr)
			}
		}
	}
}
