// Package lcov is the tracefile-based provider: an external sampler or
// instrumenter writes LCOV (or Cobertura XML) per test file.
package lcov

import (
	"io"
	"log/slog"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/providers/engine"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/tracefile"
)

// Name is the registry key of the provider.
const Name = string(domain.ProviderLCOV)

// Module hands out lcov providers and their worker hooks.
type Module struct {
	Logger  *slog.Logger
	Console io.Writer
}

func (m Module) GetProvider() (application.Provider, error) {
	return engine.New(engine.Config{
		Name:    Name,
		Parse:   tracefile.Parse,
		Logger:  m.Logger,
		Console: m.Console,
	}), nil
}

func (m Module) WorkerHooks() (application.WorkerHooks, bool) {
	return engine.ProfileHooks{Fallback: TracefileName}, true
}

// TracefileName returns the tracefile a test command writes into its
// worker directory when it cannot target the per-file profile path.
func TracefileName(opts domain.ResolvedCoverageOptions) string {
	if v, ok := opts.Variant.(domain.LCOVOptions); ok && v.Tracefile != "" {
		return v.Tracefile
	}
	return domain.DefaultTracefile
}
