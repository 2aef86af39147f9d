// Package engine implements the provider lifecycle shared by the built-in
// coverage providers. A provider only supplies a payload parser and a path
// normalizer; accumulation, filtering, untested-file discovery, reporting
// and blob serialization live here.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/coverkit/internal/application"
	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/paths"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/reporters"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/sources"
	"github.com/felixgeelhaar/coverkit/internal/pathutil"
)

// ErrEmptyPayload is returned when a worker handed back no coverage data.
var ErrEmptyPayload = errors.New("empty coverage payload")

// Parser converts one worker payload into entries keyed by the file names
// found in the payload.
type Parser func(payload []byte) ([]*coverage.FileCoverage, error)

// Setup prepares a provider for a run and returns the normalizer that maps
// payload file names to root-relative ids. root is absolute.
type Setup func(ctx context.Context, root string, opts domain.ResolvedCoverageOptions) (paths.Normalizer, error)

// Config describes a provider built on the engine.
type Config struct {
	Name   string
	Parse  Parser
	Setup  Setup
	Logger *slog.Logger
	// Console receives console reporter output.
	Console io.Writer
}

// Engine is a merge-capable application.Provider.
type Engine struct {
	application.BaseProvider

	parse     Parser
	setup     Setup
	logger    *slog.Logger
	reporters reporters.Set
	scanner   sources.Scanner

	mu         sync.Mutex
	opts       domain.ResolvedCoverageOptions
	root       string
	filter     domain.Filter
	normalizer paths.Normalizer
	acc        *coverage.Map
}

// New creates an engine-backed provider.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		BaseProvider: application.BaseProvider{ProviderName: cfg.Name},
		parse:        cfg.Parse,
		setup:        cfg.Setup,
		logger:       logger,
		reporters:    reporters.Set{Console: cfg.Console},
		scanner:      sources.Scanner{Logger: logger},
		acc:          coverage.NewMap(),
	}
}

func (e *Engine) Name() string { return e.ProviderName }

// Initialize stores the options and prepares path normalization.
func (e *Engine) Initialize(ctx context.Context, opts domain.ResolvedCoverageOptions) error {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", opts.Root)
	}

	var normalizer paths.Normalizer = paths.RootNormalizer{Root: root}
	if e.setup != nil {
		if normalizer, err = e.setup(ctx, root, opts); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
	e.root = root
	e.filter = domain.NewFilter(opts)
	e.normalizer = normalizer
	e.acc = coverage.NewMap()
	return nil
}

// ResolveOptions returns the options stored by Initialize.
func (e *Engine) ResolveOptions() domain.ResolvedCoverageOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// Clean discards collected data. With force it removes the reports
// directory; a missing directory is not an error.
func (e *Engine) Clean(_ context.Context, force bool) error {
	e.mu.Lock()
	e.acc = coverage.NewMap()
	opts, root := e.opts, e.root
	e.mu.Unlock()

	if !force || root == "" {
		return nil
	}
	dir, err := filepath.Abs(reporters.OutputDir(opts))
	if err != nil {
		return err
	}
	if pathutil.Within(dir, root) {
		return fmt.Errorf("refusing to remove reports directory %s: it contains the root", dir)
	}
	e.logger.Debug("removing reports directory", "dir", dir)
	return os.RemoveAll(dir)
}

// OnAfterSuiteRun parses a worker payload into the accumulator. It is safe
// for concurrent use.
func (e *Engine) OnAfterSuiteRun(meta domain.AfterSuiteRunMeta) error {
	if meta.Err != nil {
		return &domain.CollectionError{File: meta.File, Err: meta.Err}
	}
	if len(meta.Payload) == 0 {
		return &domain.CollectionError{File: meta.File, Err: ErrEmptyPayload}
	}
	entries, err := e.parse(meta.Payload)
	if err != nil {
		return &domain.CollectionError{File: meta.File, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, fc := range entries {
		e.acc.Add(fc)
	}
	return nil
}

// GenerateCoverage hands out the accumulated data as root-relative,
// filtered results and starts a fresh accumulator.
func (e *Engine) GenerateCoverage(ctx context.Context, rc domain.ReportContext) (domain.CoverageResults, error) {
	e.mu.Lock()
	raw := e.acc
	e.acc = coverage.NewMap()
	opts, normalizer, filter := e.opts, e.normalizer, e.filter
	e.mu.Unlock()

	remapped, err := application.ProcessAll(ctx, raw.Entries(), opts.ProcessingConcurrency, func(_ context.Context, fc *coverage.FileCoverage) (*coverage.FileCoverage, error) {
		id := normalizer.Normalize(fc.Path)
		if !filter.Matches(id) {
			return nil, nil
		}
		out := fc.Clone()
		out.Path = id
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	m := coverage.NewMap()
	for _, fc := range remapped {
		if fc != nil {
			m.Add(fc)
		}
	}
	if err := e.addUntested(ctx, m, rc); err != nil {
		return nil, err
	}
	e.logger.Debug("coverage generated", "provider", e.ProviderName, "files", m.Len(), "dropped", raw.Len()-countNonNil(remapped))
	return m, nil
}

// ReportCoverage renders every configured reporter. Untested files are
// added first when the whole suite ran; adding them twice is a no-op.
func (e *Engine) ReportCoverage(ctx context.Context, results domain.CoverageResults, rc domain.ReportContext) error {
	m, err := e.asMap(results)
	if err != nil {
		return err
	}
	if err := e.addUntested(ctx, m, rc); err != nil {
		return err
	}
	return e.reporters.Render(ctx, m, e.ResolveOptions())
}

func (e *Engine) addUntested(ctx context.Context, m *coverage.Map, rc domain.ReportContext) error {
	e.mu.Lock()
	opts, root, filter := e.opts, e.root, e.filter
	e.mu.Unlock()
	if !opts.All || !rc.AllTestsRun {
		return nil
	}
	stubs, err := e.scanner.Untested(ctx, root, filter, m.Has, opts.ProcessingConcurrency)
	if err != nil {
		return fmt.Errorf("discover untested files: %w", err)
	}
	for _, fc := range stubs {
		m.Add(fc)
	}
	return nil
}

func (e *Engine) SupportsMerge() bool { return true }

// MergeReports sums the hit counts of every input.
func (e *Engine) MergeReports(_ context.Context, results []domain.CoverageResults) (domain.CoverageResults, error) {
	out := coverage.NewMap()
	for _, r := range results {
		m, err := e.asMap(r)
		if err != nil {
			return nil, err
		}
		out.Merge(m)
	}
	return out, nil
}

// WriteResults serializes results into a blob tagged with the provider name.
func (e *Engine) WriteResults(results domain.CoverageResults) ([]byte, error) {
	m, err := e.asMap(results)
	if err != nil {
		return nil, err
	}
	return coverage.Encode(e.ProviderName, m)
}

// ReadResults deserializes a blob written by WriteResults.
func (e *Engine) ReadResults(data []byte) (domain.CoverageResults, error) {
	return coverage.Decode(e.ProviderName, data)
}

func (e *Engine) asMap(results domain.CoverageResults) (*coverage.Map, error) {
	m, ok := results.(*coverage.Map)
	if !ok {
		return nil, fmt.Errorf("%s: results of type %T were not produced by this provider", e.ProviderName, results)
	}
	return m, nil
}

func countNonNil(entries []*coverage.FileCoverage) int {
	n := 0
	for _, fc := range entries {
		if fc != nil {
			n++
		}
	}
	return n
}
