package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/reporters"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/watcher"
)

// newWatcher is replaced in tests.
var newWatcher = func(opts ...watcher.Option) (application.FileWatcher, error) {
	return watcher.New(opts...)
}

func (a *app) runWatch(ctx context.Context, svc Service, req application.Request) error {
	resolved, err := svc.Resolve(ctx, req)
	if err != nil {
		return err
	}

	w, err := newWatcher(
		watcher.WithExtensions(resolved.Extensions...),
		watcher.WithIgnore(watcher.UnderDir(reporters.OutputDir(resolved))),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(a.stdout, "Watching for file changes... (Ctrl+C to stop)")
	fmt.Fprintln(a.stdout, "")

	callback := func(runNumber int, result application.RunResult, runErr error) {
		fmt.Fprintf(a.stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		switch err := a.printResult(result, runErr); {
		case err == nil:
			fmt.Fprintln(a.stdout, "Coverage run completed successfully")
		case errors.Is(err, errThresholds):
			fmt.Fprintln(a.stdout, "Coverage thresholds not met")
		default:
			fmt.Fprintf(a.stderr, "Coverage run failed: %v\n", err)
		}
	}

	if err := svc.Watch(ctx, req, w, callback); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.stdout, "\nStopping watch mode...")
			return nil
		}
		return err
	}
	return nil
}
