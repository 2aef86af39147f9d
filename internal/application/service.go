package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// ConfigLoader reads sparse options from a config file.
type ConfigLoader interface {
	Exists(path string) (bool, error)
	Load(path string) (domain.CoverageOptions, error)
}

// EnvOverlay applies environment overrides on top of file options.
type EnvOverlay func(opts *domain.CoverageOptions) error

// TestPlanner decides how and which tests run for a project.
type TestPlanner interface {
	Plan(ctx context.Context, req PlanRequest) (TestPlan, error)
}

// PlanRequest describes the project a TestPlanner inspects.
type PlanRequest struct {
	Dir string
	// Runner selects a runner by name instead of detecting one.
	Runner string
	// Command overrides the detected runner with a command template.
	Command string
	// Files restricts execution to the given tests; empty discovers all.
	Files []string
}

// TestPlan is the executor and test list chosen for a run.
type TestPlan struct {
	Runner   string
	Provider domain.ProviderKind
	Executor TestExecutor
	Files    []string
}

// Service wires configuration, test planning and the collector together
// for the command-line and MCP surfaces.
type Service struct {
	ConfigLoader ConfigLoader
	Env          EnvOverlay
	Planner      TestPlanner
	Registry     ProviderRegistry
	// Blobs returns the blob store rooted at dir.
	Blobs func(dir string) BlobStore
	// Thresholds returns the writer persisting thresholds into path.
	Thresholds func(path string) ThresholdWriter
	Events     domain.EventPublisher
	Logger     *slog.Logger
}

// Request carries the per-invocation inputs shared by every operation.
type Request struct {
	// Dir is the project directory; empty means the working directory.
	Dir        string
	ConfigPath string
	// ConfigRequired fails when ConfigPath does not exist.
	ConfigRequired bool
	// Overrides win over file and environment options.
	Overrides domain.CoverageOptions
	Resolve   domain.ResolveConfig
	Files     []string
	Runner    string
	Command   string
	// BlobDir enables blob output for Run when set.
	BlobDir string
	Workers int
}

// Options loads the layered sparse options: config file, then environment,
// then explicit overrides.
func (s *Service) Options(req Request) (domain.CoverageOptions, error) {
	var opts domain.CoverageOptions
	path := s.configPath(req)
	exists, err := s.ConfigLoader.Exists(path)
	if err != nil {
		return domain.CoverageOptions{}, err
	}
	switch {
	case exists:
		if opts, err = s.ConfigLoader.Load(path); err != nil {
			return domain.CoverageOptions{}, err
		}
	case req.ConfigRequired:
		return domain.CoverageOptions{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if s.Env != nil {
		if err := s.Env(&opts); err != nil {
			return domain.CoverageOptions{}, err
		}
	}
	return Overlay(opts, req.Overrides), nil
}

// Resolve returns the fully-defaulted options for req. The root defaults
// to the project directory.
func (s *Service) Resolve(_ context.Context, req Request) (domain.ResolvedCoverageOptions, error) {
	opts, err := s.Options(req)
	if err != nil {
		return domain.ResolvedCoverageOptions{}, err
	}
	s.defaultRoot(&opts, req)
	return domain.Resolve(opts, req.Resolve)
}

// Run executes the project's tests with coverage once.
func (s *Service) Run(ctx context.Context, req Request) (RunResult, error) {
	collector, runOpts, err := s.prepare(ctx, req)
	if err != nil {
		return RunResult{}, err
	}
	return collector.Run(ctx, runOpts)
}

// Watch runs once and then reruns on every change reported by watcher.
func (s *Service) Watch(ctx context.Context, req Request, watcher FileWatcher, callback WatchCallback) error {
	collector, runOpts, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}
	handler := &WatchHandler{Collector: collector, Watcher: watcher}
	return handler.Watch(ctx, s.dir(req), runOpts, callback)
}

// Merge combines blobs from previous runs into one report.
func (s *Service) Merge(ctx context.Context, req Request, inputs []string) (RunResult, error) {
	if len(inputs) == 0 {
		return RunResult{}, &domain.ConfigError{Field: "merge", Msg: "no blob inputs given"}
	}
	opts, err := s.Options(req)
	if err != nil {
		return RunResult{}, err
	}
	s.defaultRoot(&opts, req)
	collector := s.collector(req, nil)
	return collector.Merge(ctx, MergeOptions{Coverage: opts, Resolve: req.Resolve, Inputs: inputs})
}

// Providers lists the registered provider names.
func (s *Service) Providers() []string {
	return s.Registry.Names()
}

func (s *Service) prepare(ctx context.Context, req Request) (*Collector, RunOptions, error) {
	opts, err := s.Options(req)
	if err != nil {
		return nil, RunOptions{}, err
	}
	plan, err := s.Planner.Plan(ctx, PlanRequest{Dir: s.dir(req), Runner: req.Runner, Command: req.Command, Files: req.Files})
	if err != nil {
		return nil, RunOptions{}, err
	}
	if len(plan.Files) == 0 {
		return nil, RunOptions{}, errors.New("no tests found")
	}
	if opts.Provider == nil && plan.Provider != "" {
		provider := string(plan.Provider)
		opts.Provider = &provider
	}
	s.defaultRoot(&opts, req)
	s.logger().Debug("test plan", slog.String("runner", plan.Runner), slog.Int("tests", len(plan.Files)))

	runOpts := RunOptions{
		Coverage:  opts,
		Resolve:   req.Resolve,
		Files:     plan.Files,
		Filtered:  len(req.Files) > 0,
		Project:   s.dir(req),
		WriteBlob: req.BlobDir != "",
	}
	return s.collector(req, plan.Executor), runOpts, nil
}

func (s *Service) collector(req Request, executor TestExecutor) *Collector {
	c := &Collector{
		Registry: s.Registry,
		Executor: executor,
		Events:   s.Events,
		Logger:   s.Logger,
		Workers:  req.Workers,
	}
	if s.Blobs != nil {
		dir := req.BlobDir
		if dir == "" {
			dir = filepath.Join(s.dir(req), DefaultBlobDir)
		}
		c.Blobs = s.Blobs(dir)
	}
	if s.Thresholds != nil {
		c.Thresholds = s.Thresholds(s.configPath(req))
	}
	return c
}

func (s *Service) defaultRoot(opts *domain.CoverageOptions, req Request) {
	if opts.Root == nil {
		root := s.dir(req)
		opts.Root = &root
	}
}

func (s *Service) dir(req Request) string {
	if req.Dir == "" {
		return "."
	}
	return req.Dir
}

func (s *Service) configPath(req Request) string {
	path := req.ConfigPath
	if path == "" {
		path = DefaultConfigFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.dir(req), path)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// Default locations relative to the project directory.
const (
	DefaultConfigFile = ".coverkit.yaml"
	DefaultBlobDir    = ".coverkit/blobs"
)

// Overlay returns base with every field set in over replacing it.
func Overlay(base, over domain.CoverageOptions) domain.CoverageOptions {
	out := base
	setPtr(&out.Provider, over.Provider)
	setPtr(&out.Enabled, over.Enabled)
	setPtr(&out.Clean, over.Clean)
	setPtr(&out.CleanOnRerun, over.CleanOnRerun)
	setPtr(&out.ReportsDirectory, over.ReportsDirectory)
	setPtr(&out.Root, over.Root)
	setPtr(&out.ReportOnFailure, over.ReportOnFailure)
	setPtr(&out.AllowExternal, over.AllowExternal)
	setPtr(&out.All, over.All)
	setPtr(&out.SkipFull, over.SkipFull)
	setPtr(&out.ProcessingConcurrency, over.ProcessingConcurrency)
	setPtr(&out.Thresholds, over.Thresholds)
	setPtr(&out.CoverMode, over.CoverMode)
	setPtr(&out.Tracefile, over.Tracefile)
	setPtr(&out.CustomProviderModule, over.CustomProviderModule)
	setSlice(&out.Include, over.Include)
	setSlice(&out.Exclude, over.Exclude)
	setSlice(&out.Extensions, over.Extensions)
	setSlice(&out.Reporter, over.Reporter)
	setSlice(&out.CoverPkg, over.CoverPkg)
	if over.Watermarks != nil {
		out.Watermarks = over.Watermarks
	}
	return out
}

func setPtr[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

func setSlice[T any](dst *[]T, v []T) {
	if v != nil {
		*dst = v
	}
}
