// Package providers is the plugin registry mapping provider names to
// provider modules. The gocover and lcov built-ins are always present;
// custom modules are registered under the name used in
// customProviderModule.
package providers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/providers/gocover"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/providers/lcov"
)

// ErrDuplicateModule is returned when a name is registered twice.
var ErrDuplicateModule = errors.New("provider module already registered")

// Registry manages provider modules. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]application.ProviderModule
	logger  *slog.Logger
	console io.Writer
	extra   map[string]application.ProviderModule
}

// RegistryOption configures the registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger handed to built-in providers.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithConsole sets the writer console reporters print to.
func WithConsole(w io.Writer) RegistryOption {
	return func(r *Registry) {
		r.console = w
	}
}

// WithModule registers an additional module. A module named like a
// built-in replaces it.
func WithModule(name string, m application.ProviderModule) RegistryOption {
	return func(r *Registry) {
		r.extra[name] = m
	}
}

// NewRegistry creates a registry holding the built-in providers.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		modules: map[string]application.ProviderModule{},
		extra:   map[string]application.ProviderModule{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.modules[gocover.Name] = gocover.Module{Logger: r.logger, Console: r.console}
	r.modules[lcov.Name] = lcov.Module{Logger: r.logger, Console: r.console}
	for name, m := range r.extra {
		r.modules[name] = m
	}
	r.extra = nil
	return r
}

// Register adds a custom provider module.
func (r *Registry) Register(name string, m application.ProviderModule) error {
	if name == "" {
		return errors.New("provider module name is empty")
	}
	if m == nil {
		return fmt.Errorf("provider module %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, name)
	}
	r.modules[name] = m
	return nil
}

// Lookup implements application.ProviderRegistry.
func (r *Registry) Lookup(name string) (application.ProviderModule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", application.ErrUnknownProvider, name)
	}
	return m, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
