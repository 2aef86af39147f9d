// Package sources discovers source files that no test loaded so they can
// be reported as untested.
package sources

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

// Scanner walks a root directory for untested source files.
type Scanner struct {
	Logger *slog.Logger
}

// Untested returns zero-hit entries for every file under root that passes
// filter, is not ignored, and is not already covered. Files are stubbed
// with at most limit in flight. Unparseable files are skipped.
func (s Scanner) Untested(ctx context.Context, root string, filter domain.Filter, covered func(string) bool, limit int) ([]*coverage.FileCoverage, error) {
	ignore, err := NewIgnoreMatcher(root)
	if err != nil {
		return nil, err
	}

	var candidates []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}
		id := filepath.ToSlash(rel)
		if d.IsDir() {
			if ignore.ShouldIgnore(id) || ignore.ShouldIgnore(id+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignore.ShouldIgnore(id) || !filter.Matches(id) || covered(id) {
			return nil
		}
		candidates = append(candidates, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(candidates)

	stubs, err := application.ProcessAll(ctx, candidates, limit, func(_ context.Context, id string) (*coverage.FileCoverage, error) {
		abs := filepath.Join(root, filepath.FromSlash(id))
		skip, err := skipByHeader(abs)
		if err != nil || skip {
			return nil, nil
		}
		fc, err := StubFile(abs, id)
		if err != nil {
			s.logger().Debug("skip untested file", "file", id, "error", err)
			return nil, nil
		}
		return fc, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*coverage.FileCoverage, 0, len(stubs))
	for _, fc := range stubs {
		if fc != nil {
			out = append(out, fc)
		}
	}
	return out, nil
}

func (s Scanner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
