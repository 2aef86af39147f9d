package runners

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/gotool"
)

// Runner describes how one toolchain runs a single test file with
// coverage.
type Runner struct {
	Name     string
	Provider domain.ProviderKind
	// Markers are files whose presence in the project directory selects
	// the runner.
	Markers []string
	// Dependency, when set, must be listed in package.json.
	Dependency string
	// Patterns select test files relative to the project directory.
	Patterns []string
	// Command is the argv template. An empty command runs go test.
	Command string
}

var nodeMarkers = []string{"package.json", "tsconfig.json"}

var nodePatterns = []string{
	"**/*.test.{js,cjs,mjs,ts,mts,jsx,tsx}",
	"**/*.spec.{js,cjs,mjs,ts,mts,jsx,tsx}",
}

// Builtins returns the bundled runners in detection order.
func Builtins() []Runner {
	return []Runner{
		{
			Name:     "go",
			Provider: domain.ProviderGoCover,
			Markers:  []string{"go.mod"},
		},
		{
			Name:       "jest",
			Provider:   domain.ProviderLCOV,
			Markers:    nodeMarkers,
			Dependency: "jest",
			Patterns:   nodePatterns,
			Command:    "npx jest --coverage --coverageReporters=lcovonly --coverageDirectory={dir} {file}",
		},
		{
			Name:       "c8",
			Provider:   domain.ProviderLCOV,
			Markers:    nodeMarkers,
			Dependency: "c8",
			Patterns:   nodePatterns,
			Command:    "npx c8 --reporter=lcovonly --report-dir={dir} node --test {file}",
		},
		{
			Name:       "nyc",
			Provider:   domain.ProviderLCOV,
			Markers:    nodeMarkers,
			Dependency: "nyc",
			Patterns:   nodePatterns,
			Command:    "npx nyc --reporter=lcovonly --report-dir={dir} npx mocha {file}",
		},
		{
			Name:     "node",
			Provider: domain.ProviderLCOV,
			Markers:  nodeMarkers,
			Patterns: nodePatterns,
			Command:  "npx --yes c8 --reporter=lcovonly --report-dir={dir} node --test {file}",
		},
		{
			Name:     "pytest",
			Provider: domain.ProviderLCOV,
			Markers:  []string{"pyproject.toml", "setup.py", "setup.cfg", "pytest.ini", "requirements.txt"},
			Patterns: []string{"**/test_*.py", "**/*_test.py"},
			Command:  "python -m pytest --cov --cov-report=lcov:{profile} {file}",
		},
		{
			Name:     "cargo",
			Provider: domain.ProviderLCOV,
			Markers:  []string{"Cargo.toml"},
			Patterns: []string{"tests/*.rs"},
			Command:  "cargo llvm-cov --lcov --output-path {profile} --test {name}",
		},
	}
}

// Detect reports whether the runner handles the project in dir.
func (r Runner) Detect(dir string) bool {
	found := false
	for _, marker := range r.Markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if r.Dependency == "" {
		return true
	}
	return packageDepends(dir, r.Dependency)
}

// Discover lists the runner's test files under dir, sorted. Go projects
// yield package paths instead of files.
func (r Runner) Discover(ctx context.Context, dir string) ([]string, error) {
	if r.Command == "" {
		return gotool.PackageLister{Dir: dir}.TestPackages(ctx, nil)
	}
	seen := map[string]struct{}{}
	var files []string
	fsys := os.DirFS(dir)
	for _, pattern := range r.Patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("discover %s tests: %w", r.Name, err)
		}
		for _, m := range matches {
			if skipDir(m) {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func skipDir(path string) bool {
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "node_modules", "target", ".venv", "venv", ".git":
			return true
		}
	}
	return false
}

// packageDepends reports whether package.json in dir lists dep as a
// dependency or dev dependency.
func packageDepends(dir, dep string) bool {
	// #nosec G304 -- Path is constructed from trusted project directory
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false
	}
	var pkg struct {
		Dependencies map[string]string `json:"dependencies"`
		DevDeps      map[string]string `json:"devDependencies"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return false
	}
	if _, ok := pkg.DevDeps[dep]; ok {
		return true
	}
	_, ok := pkg.Dependencies[dep]
	return ok
}
