package domain

import (
	"path/filepath"
	"strings"
)

// AfterSuiteRunMeta is emitted once per executed test file and consumed
// exactly once by the provider.
type AfterSuiteRunMeta struct {
	RunID    string
	File     string
	Project  string
	WorkerID int
	// Payload is the serialized coverage taken inside the worker.
	Payload []byte
	// Err is set when the worker could not take coverage for the file.
	Err error
}

// ReportContext is passed to generation and reporting.
type ReportContext struct {
	// AllTestsRun is false when a filtered subset of tests ran.
	AllTestsRun bool
}

// WorkerContext identifies an isolated execution worker.
type WorkerContext struct {
	WorkerID int
	Project  string
	RunID    string
	// TempDir is private to the worker.
	TempDir string
	// Coverage is the worker's copy of the resolved options.
	Coverage ResolvedCoverageOptions
}

// ProfilePath returns the per-file profile path inside a worker directory.
func (w WorkerContext) ProfilePath(file string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_", ".", "_").Replace(file)
	if name == "" {
		name = "root"
	}
	return filepath.Join(w.TempDir, name+".out")
}
