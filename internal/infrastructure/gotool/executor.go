package gotool

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Executor runs go test for one package per call. Coverage flags are
// added when the worker's options enable the gocover provider; the
// profile is written to the worker's per-package profile path.
type Executor struct {
	// Dir is the directory go test runs in.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Exec   func(ctx context.Context, dir string, args []string) error
}

// Execute implements application.TestExecutor.
func (e Executor) Execute(ctx context.Context, w domain.WorkerContext, pkg string) error {
	args := TestArgs(w, pkg)
	execFn := e.Exec
	if execFn == nil {
		execFn = e.runCommand
	}
	if err := execFn(ctx, e.Dir, args); err != nil {
		return fmt.Errorf("go test %s: %w", pkg, err)
	}
	return nil
}

// TestArgs builds the go test arguments for pkg.
func TestArgs(w domain.WorkerContext, pkg string) []string {
	args := []string{"test"}
	if gc, ok := w.Coverage.Variant.(domain.GoCoverOptions); ok && w.Coverage.Enabled {
		args = append(args, "-covermode="+gc.CoverMode, "-coverprofile="+w.ProfilePath(pkg))
		if coverpkg := buildCoverPkg(gc.CoverPkg); coverpkg != "" {
			args = append(args, "-coverpkg="+coverpkg)
		}
	}
	return append(args, pkg)
}

func buildCoverPkg(patterns []string) string {
	seen := make(map[string]struct{}, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, ",")
}

func (e Executor) runCommand(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	cmd.Stdout = writerOr(e.Stdout, os.Stdout)
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)
	return cmd.Run()
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
