package runners

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/gotool"
)

// Registry holds the runners in detection order.
type Registry struct {
	runners []Runner
}

// RegistryOption configures the runner registry.
type RegistryOption func(*Registry)

// WithRunner adds a custom runner. Custom runners are tried before the
// bundled ones.
func WithRunner(runner Runner) RegistryOption {
	return func(r *Registry) {
		r.runners = append([]Runner{runner}, r.runners...)
	}
}

// NewRegistry creates a registry with every bundled runner.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{runners: Builtins()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect returns the first runner that handles the project in dir.
func (r *Registry) Detect(dir string) (Runner, error) {
	for _, runner := range r.runners {
		if runner.Detect(dir) {
			return runner, nil
		}
	}
	return Runner{}, fmt.Errorf("no test runner found for project at %s", dir)
}

// Get returns a runner by name.
func (r *Registry) Get(name string) (Runner, error) {
	for _, runner := range r.runners {
		if runner.Name == name {
			return runner, nil
		}
	}
	return Runner{}, fmt.Errorf("no test runner with name: %s", name)
}

// Names returns the runner names in detection order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for _, runner := range r.runners {
		names = append(names, runner.Name)
	}
	return names
}

// Executor builds the test executor for runner in dir.
func (r *Registry) Executor(runner Runner, dir string, stdout, stderr io.Writer) application.TestExecutor {
	if runner.Command == "" {
		return gotool.Executor{Dir: dir, Stdout: stdout, Stderr: stderr}
	}
	exec := NewCommandExecutor(dir, runner.Command)
	exec.Stdout = stdout
	exec.Stderr = stderr
	return exec
}
