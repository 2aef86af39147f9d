package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// ProfileHooks hand the coverage file written by a test command back to
// the controller. Commands write to WorkerContext.ProfilePath; Fallback
// optionally names a file inside the worker directory that is read when
// the per-file profile is missing. Files are removed once read so the next
// test file of the worker starts clean.
type ProfileHooks struct {
	Fallback func(opts domain.ResolvedCoverageOptions) string
}

func (h ProfileHooks) StartCoverage(_ context.Context, w domain.WorkerContext) error {
	if w.TempDir == "" {
		return errors.New("worker has no temp directory")
	}
	return os.MkdirAll(w.TempDir, 0o750)
}

func (h ProfileHooks) TakeCoverage(_ context.Context, w domain.WorkerContext, file string) ([]byte, error) {
	candidates := []string{w.ProfilePath(file)}
	if h.Fallback != nil {
		if name := h.Fallback(w.Coverage); name != "" {
			candidates = append(candidates, filepath.Join(w.TempDir, name))
		}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path) // #nosec G304 - path is inside the worker directory
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := os.Remove(path); err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, fmt.Errorf("no coverage written for %s: %w", file, os.ErrNotExist)
}

func (h ProfileHooks) StopCoverage(context.Context, domain.WorkerContext) error {
	return nil
}
