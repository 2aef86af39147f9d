package application

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

var (
	ErrConfigNotFound  = errors.New("config not found")
	ErrUnknownProvider = errors.New("provider not registered")
)

// ProviderRegistry resolves provider modules by name.
type ProviderRegistry interface {
	Lookup(name string) (ProviderModule, error)
	Names() []string
}

// TestExecutor runs a single test file (or package) inside a worker. A
// non-nil error means the tests failed or could not run.
type TestExecutor interface {
	Execute(ctx context.Context, w domain.WorkerContext, file string) error
}

// BlobStore persists serialized coverage results for merge mode.
type BlobStore interface {
	Save(provider string, data []byte) (string, error)
	Load(path string) ([]byte, error)
	// Expand turns files and directories into a sorted list of blob paths.
	Expand(paths []string) ([]string, error)
}

// ThresholdWriter persists auto-raised thresholds back into configuration.
type ThresholdWriter interface {
	WriteThresholds(th domain.Thresholds) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// RunOptions configures one collector run.
type RunOptions struct {
	Coverage domain.CoverageOptions
	Resolve  domain.ResolveConfig
	// Files are the test files or packages to execute.
	Files []string
	// Filtered is true when Files is a subset selected by the user.
	Filtered bool
	Project  string
	// WriteBlob persists the finalized results through the BlobStore.
	WriteBlob bool
}

// MergeOptions configures merge-reports mode.
type MergeOptions struct {
	Coverage domain.CoverageOptions
	Resolve  domain.ResolveConfig
	// Inputs are blob files or directories containing blobs.
	Inputs []string
}

// RunResult is the outcome of a run, rerun or merge.
type RunResult struct {
	RunID      string
	Options    domain.ResolvedCoverageOptions
	Summary    domain.CoverageSummary
	Evaluation domain.EvaluationResult
	// Partial lists files whose coverage payload was missing or malformed.
	Partial []string
	// Failed lists test files that failed.
	Failed   []string
	BlobPath string
	Results  domain.CoverageResults
}

// Passed reports whether tests and thresholds both passed.
func (r RunResult) Passed() bool {
	return len(r.Failed) == 0 && !r.Evaluation.Failed()
}
