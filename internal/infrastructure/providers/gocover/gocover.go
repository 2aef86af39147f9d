// Package gocover is the instrumentation-based provider: go test writes
// cover profiles that are parsed with golang.org/x/tools/cover.
package gocover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"

	"golang.org/x/tools/cover"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/gotool"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/paths"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/providers/engine"
)

// Name is the registry key of the provider.
const Name = string(domain.ProviderGoCover)

// Module hands out gocover providers and their worker hooks.
type Module struct {
	Logger  *slog.Logger
	Console io.Writer
}

func (m Module) GetProvider() (application.Provider, error) {
	return engine.New(engine.Config{
		Name:    Name,
		Parse:   Parse,
		Setup:   Setup,
		Logger:  m.Logger,
		Console: m.Console,
	}), nil
}

func (m Module) WorkerHooks() (application.WorkerHooks, bool) {
	return engine.ProfileHooks{}, true
}

// Parse converts a cover profile. Each block contributes NumStmt
// statements and one count per spanned line. Profiles carry no function
// or branch data.
func Parse(payload []byte) ([]*coverage.FileCoverage, error) {
	profiles, err := cover.ParseProfilesFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse cover profile: %w", err)
	}
	out := make([]*coverage.FileCoverage, 0, len(profiles))
	for _, p := range profiles {
		fc := coverage.NewFileCoverage(p.FileName)
		for _, b := range p.Blocks {
			hits := int64(b.Count)
			fc.AddStatement(blockKey(b), b.NumStmt, hits)
			if b.NumStmt == 0 {
				continue
			}
			for line := b.StartLine; line <= b.EndLine; line++ {
				fc.AddLine(line, hits)
			}
		}
		out = append(out, fc)
	}
	return out, nil
}

func blockKey(b cover.ProfileBlock) string {
	return fmt.Sprintf("%d.%d,%d.%d", b.StartLine, b.StartCol, b.EndLine, b.EndCol)
}

// Setup maps import-path file names onto the root. When the root is a
// subdirectory of the module, the import path prefix includes it.
func Setup(ctx context.Context, root string, _ domain.ResolvedCoverageOptions) (paths.Normalizer, error) {
	resolver := gotool.ModuleResolver{Dir: root}
	moduleRoot, err := resolver.ModuleRoot(ctx)
	if err != nil {
		return nil, err
	}
	modulePath, err := resolver.ModulePath(ctx)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(moduleRoot, root)
	if err != nil {
		return nil, err
	}
	prefix := modulePath
	if rel != "." {
		prefix = path.Join(modulePath, filepath.ToSlash(rel))
	}
	return paths.NewGoModuleNormalizer(root, prefix), nil
}
