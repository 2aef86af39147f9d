package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

// parseHits reads "path hits" lines; each line is one statement on line 1.
func parseHits(payload []byte) ([]*coverage.FileCoverage, error) {
	var out []*coverage.FileCoverage
	for _, line := range strings.Split(strings.TrimSpace(string(payload)), "\n") {
		var (
			path string
			hits int64
		)
		if _, err := fmt.Sscanf(line, "%s %d", &path, &hits); err != nil {
			return nil, fmt.Errorf("bad line %q", line)
		}
		fc := coverage.NewFileCoverage(path)
		fc.AddStatement("1", 1, hits)
		fc.AddLine(1, hits)
		out = append(out, fc)
	}
	return out, nil
}

func newEngine(t *testing.T, mutate func(*domain.CoverageOptions)) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	raw := domain.CoverageOptions{
		Root:     &root,
		Reporter: []domain.RawReporter{{Name: "json-summary"}},
		All:      ptr(false),
	}
	if mutate != nil {
		mutate(&raw)
	}
	opts, err := domain.Resolve(raw, domain.ResolveConfig{Parallelism: 4})
	require.NoError(t, err)

	e := New(Config{Name: "hits", Parse: parseHits})
	require.NoError(t, e.Initialize(context.Background(), opts))
	return e, root
}

func ptr[T any](v T) *T { return &v }

func meta(file, payload string) domain.AfterSuiteRunMeta {
	return domain.AfterSuiteRunMeta{File: file, Payload: []byte(payload)}
}

func TestGenerateNormalizesAndFilters(t *testing.T) {
	e, root := newEngine(t, nil)

	var wg sync.WaitGroup
	for i, payload := range []string{
		"src/a.go 1\nvendor/x/y.go 3",
		filepath.ToSlash(filepath.Join(root, "src", "a.go")) + " 2",
		"src/b.go 0\n/elsewhere/z.go 1\nsrc/c_test.go 4",
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.OnAfterSuiteRun(meta(fmt.Sprintf("t%d", i), payload)))
		}()
	}
	wg.Wait()

	results, err := e.GenerateCoverage(context.Background(), domain.ReportContext{AllTestsRun: true})
	require.NoError(t, err)
	m := results.(*coverage.Map)
	assert.Equal(t, []string{"src/a.go", "src/b.go"}, m.Paths())
	a, _ := m.Get("src/a.go")
	assert.Equal(t, int64(3), a.Lines[1])

	// the accumulator starts over after every generation
	results, err = e.GenerateCoverage(context.Background(), domain.ReportContext{AllTestsRun: true})
	require.NoError(t, err)
	assert.Zero(t, results.(*coverage.Map).Len())
}

func TestGenerateAllowExternal(t *testing.T) {
	e, _ := newEngine(t, func(o *domain.CoverageOptions) { o.AllowExternal = ptr(true) })
	require.NoError(t, e.OnAfterSuiteRun(meta("t", "../shared/z.go 1")))

	results, err := e.GenerateCoverage(context.Background(), domain.ReportContext{})
	require.NoError(t, err)
	assert.True(t, results.(*coverage.Map).Has("../shared/z.go"))
}

func TestCollectionErrors(t *testing.T) {
	e, _ := newEngine(t, nil)

	err := e.OnAfterSuiteRun(domain.AfterSuiteRunMeta{File: "a", Err: errors.New("worker died")})
	var collErr *domain.CollectionError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "a", collErr.File)

	err = e.OnAfterSuiteRun(meta("b", ""))
	assert.ErrorIs(t, err, ErrEmptyPayload)

	err = e.OnAfterSuiteRun(meta("c", "garbage"))
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "c", collErr.File)
}

func TestUntestedFilesOnlyForFullRuns(t *testing.T) {
	e, root := newEngine(t, func(o *domain.CoverageOptions) { o.All = ptr(true) })
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "idle.go"), []byte("package src\n\nfunc Idle() int {\n\treturn 1\n}\n"), 0o644))

	require.NoError(t, e.OnAfterSuiteRun(meta("t", "src/a.go 1")))
	results, err := e.GenerateCoverage(context.Background(), domain.ReportContext{AllTestsRun: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.go"}, results.(*coverage.Map).Paths())

	require.NoError(t, e.OnAfterSuiteRun(meta("t", "src/a.go 1")))
	results, err = e.GenerateCoverage(context.Background(), domain.ReportContext{AllTestsRun: true})
	require.NoError(t, err)
	m := results.(*coverage.Map)
	require.Equal(t, []string{"src/a.go", "src/idle.go"}, m.Paths())
	idle, _ := m.Get("src/idle.go")
	assert.Equal(t, domain.Metric{Covered: 0, Total: 1}, idle.Summary().Statements)

	// reporting adds nothing twice
	require.NoError(t, e.ReportCoverage(context.Background(), m, domain.ReportContext{AllTestsRun: true}))
	assert.Equal(t, 2, m.Len())
}

func TestReportAndClean(t *testing.T) {
	e, root := newEngine(t, nil)
	require.NoError(t, e.OnAfterSuiteRun(meta("t", "src/a.go 1")))
	results, err := e.GenerateCoverage(context.Background(), domain.ReportContext{})
	require.NoError(t, err)
	require.NoError(t, e.ReportCoverage(context.Background(), results, domain.ReportContext{}))

	summary := filepath.Join(root, "coverage", "coverage-summary.json")
	assert.FileExists(t, summary)

	require.NoError(t, e.Clean(context.Background(), false))
	assert.FileExists(t, summary)

	require.NoError(t, e.Clean(context.Background(), true))
	assert.NoDirExists(t, filepath.Join(root, "coverage"))
	// cleaning twice is fine
	require.NoError(t, e.Clean(context.Background(), true))
}

func TestCleanDiscardsCollectedData(t *testing.T) {
	e, _ := newEngine(t, nil)
	require.NoError(t, e.OnAfterSuiteRun(meta("t", "src/a.go 1")))
	require.NoError(t, e.Clean(context.Background(), false))

	results, err := e.GenerateCoverage(context.Background(), domain.ReportContext{})
	require.NoError(t, err)
	assert.Zero(t, results.(*coverage.Map).Len())
}

func TestCleanRefusesToRemoveRoot(t *testing.T) {
	e, root := newEngine(t, func(o *domain.CoverageOptions) { o.ReportsDirectory = ptr(".") })
	err := e.Clean(context.Background(), true)
	assert.ErrorContains(t, err, "refusing")
	assert.DirExists(t, root)
}

func TestInitializeRejectsMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	opts, err := domain.Resolve(domain.CoverageOptions{Root: &missing}, domain.ResolveConfig{})
	require.NoError(t, err)
	assert.Error(t, New(Config{Name: "hits", Parse: parseHits}).Initialize(context.Background(), opts))
}

func TestMergeAndBlobs(t *testing.T) {
	e, _ := newEngine(t, nil)
	a, _ := parseHits([]byte("src/a.go 1\nsrc/b.go 0"))
	b, _ := parseHits([]byte("src/b.go 2"))
	x, y := coverage.NewMap(), coverage.NewMap()
	for _, fc := range a {
		x.Add(fc)
	}
	for _, fc := range b {
		y.Add(fc)
	}

	merged, err := e.MergeReports(context.Background(), []domain.CoverageResults{x, y})
	require.NoError(t, err)
	assert.Equal(t, domain.Metric{Covered: 2, Total: 2}, merged.Summary().Global.Lines)

	data, err := e.WriteResults(merged)
	require.NoError(t, err)
	back, err := e.ReadResults(data)
	require.NoError(t, err)
	assert.Equal(t, merged.Summary(), back.Summary())

	other := New(Config{Name: "other", Parse: parseHits})
	_, err = other.ReadResults(data)
	assert.ErrorIs(t, err, coverage.ErrProviderMismatch)
}

func TestForeignResultsRejected(t *testing.T) {
	e, _ := newEngine(t, nil)
	_, err := e.WriteResults(foreign{})
	assert.Error(t, err)
	assert.True(t, e.SupportsMerge())
	assert.False(t, e.SupportsTransform())
}

type foreign struct{}

func (foreign) Summary() domain.CoverageSummary { return domain.CoverageSummary{} }

func TestProfileHooks(t *testing.T) {
	w := domain.WorkerContext{TempDir: filepath.Join(t.TempDir(), "w1")}
	hooks := ProfileHooks{Fallback: func(domain.ResolvedCoverageOptions) string { return "lcov.info" }}
	ctx := context.Background()
	require.NoError(t, hooks.StartCoverage(ctx, w))

	require.NoError(t, os.WriteFile(w.ProfilePath("pkg/a"), []byte("mode: set\n"), 0o644))
	data, err := hooks.TakeCoverage(ctx, w, "pkg/a")
	require.NoError(t, err)
	assert.Equal(t, "mode: set\n", string(data))
	assert.NoFileExists(t, w.ProfilePath("pkg/a"))

	require.NoError(t, os.WriteFile(filepath.Join(w.TempDir, "lcov.info"), []byte("SF:a.js\n"), 0o644))
	data, err = hooks.TakeCoverage(ctx, w, "a.test.js")
	require.NoError(t, err)
	assert.Equal(t, "SF:a.js\n", string(data))

	_, err = hooks.TakeCoverage(ctx, w, "b.test.js")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, hooks.StopCoverage(ctx, w))

	assert.Error(t, ProfileHooks{}.StartCoverage(ctx, domain.WorkerContext{}))
}
