package gotool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
)

// PackageLister expands package patterns into the packages that have
// tests, as "./"-relative directories of Dir.
type PackageLister struct {
	Dir string
}

type goPackage struct {
	Dir          string   `json:"Dir"`
	ImportPath   string   `json:"ImportPath"`
	TestGoFiles  []string `json:"TestGoFiles"`
	XTestGoFiles []string `json:"XTestGoFiles"`
}

// TestPackages lists the packages matching patterns that contain tests.
func (l PackageLister) TestPackages(ctx context.Context, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	pkgs, err := goList(ctx, l.Dir, patterns)
	if err != nil {
		return nil, fmt.Errorf("go list: %w", err)
	}
	base, err := realDir(l.Dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		if len(pkg.TestGoFiles)+len(pkg.XTestGoFiles) == 0 {
			continue
		}
		dir, err := realDir(pkg.Dir)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(base, dir)
		if err != nil {
			return nil, err
		}
		if rel == "." {
			out = append(out, ".")
			continue
		}
		out = append(out, "./"+filepath.ToSlash(rel))
	}
	out = unique(out)
	sort.Strings(out)
	return out, nil
}

func goList(ctx context.Context, dir string, patterns []string) ([]goPackage, error) {
	args := append([]string{"list", "-json"}, patterns...)
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(out))
	pkgs := []goPackage{}
	for {
		var pkg goPackage
		if err := dec.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func realDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
