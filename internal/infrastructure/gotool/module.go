// Package gotool runs the go command on behalf of the gocover provider.
package gotool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ErrNoModule is returned when no go.mod encloses the directory.
var ErrNoModule = errors.New("module root not found: no go.mod in current or parent directories")

// ModuleInfo provides Go module information.
type ModuleInfo interface {
	ModuleRoot(ctx context.Context) (string, error)
	ModulePath(ctx context.Context) (string, error)
}

// ModuleResolver finds the module enclosing Dir. An empty Dir means the
// working directory.
type ModuleResolver struct {
	Dir string
}

// ModuleRoot searches Dir and its parents for go.mod.
func (m ModuleResolver) ModuleRoot(ctx context.Context) (string, error) {
	dir := m.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoModule
		}
		dir = parent
	}
}

// ModulePath reads the module directive of the enclosing go.mod.
func (m ModuleResolver) ModulePath(ctx context.Context) (string, error) {
	root, err := m.ModuleRoot(ctx)
	if err != nil {
		return "", err
	}
	gomod := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(gomod) // #nosec G304 - fixed name under the module root
	if err != nil {
		return "", err
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("%s: module path not found", gomod)
	}
	return path, nil
}
