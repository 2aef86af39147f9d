package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Collector drives the provider lifecycle across the controller and a pool
// of isolated workers. A Collector holds one session (the provider and its
// state for watch-mode reruns) and is not safe for concurrent use.
type Collector struct {
	Registry   ProviderRegistry
	Executor   TestExecutor
	Blobs      BlobStore
	Thresholds ThresholdWriter
	Events     domain.EventPublisher
	Logger     *slog.Logger
	// Workers is the number of isolated workers; values below 1 use 1.
	Workers int

	provider  Provider
	hooks     WorkerHooks
	hasHooks  bool
	lifecycle *domain.Lifecycle
	opts      domain.ResolvedCoverageOptions
	last      RunOptions
	recorder  *domain.EventCollector
}

// workerReport crosses from a worker to the controller.
type workerReport struct {
	meta    domain.AfterSuiteRunMeta
	testErr error
}

// Run resolves options, initializes the provider and executes one full
// cycle: clean, collect, generate, evaluate, persist and report.
func (c *Collector) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	resolved, err := domain.Resolve(opts.Coverage, opts.Resolve)
	if err != nil {
		return RunResult{}, err
	}
	for _, w := range resolved.Warnings {
		c.logger().Warn(w)
	}
	c.last = opts
	c.opts = resolved
	c.recorder = domain.NewEventCollector()

	if !resolved.Enabled {
		c.provider = nil
		return c.runWithoutCoverage(ctx, opts)
	}

	if err := c.initialize(ctx, resolved); err != nil {
		return RunResult{Options: resolved}, err
	}
	if c.opts.Clean {
		if err := c.provider.Clean(ctx, true); err != nil {
			return RunResult{Options: c.opts}, fmt.Errorf("clean coverage: %w", err)
		}
	}
	return c.cycle(ctx, opts.Files, domain.ReportContext{AllTestsRun: !opts.Filtered}, opts.WriteBlob)
}

// Rerun starts a new watch-mode cycle on the initialized provider. A nil
// files list reruns everything from the last Run.
func (c *Collector) Rerun(ctx context.Context, files []string) (RunResult, error) {
	if c.provider == nil {
		if c.last.Files == nil && files == nil {
			return RunResult{}, errors.New("rerun before run")
		}
		if files == nil {
			files = c.last.Files
		}
		return c.runWithoutCoverage(ctx, RunOptions{Files: files, Project: c.last.Project})
	}
	filtered := files != nil
	if files == nil {
		files = c.last.Files
	}
	c.recorder = domain.NewEventCollector()
	if err := c.provider.Clean(ctx, c.opts.CleanOnRerun); err != nil {
		return RunResult{Options: c.opts}, fmt.Errorf("clean coverage: %w", err)
	}
	allTests := !filtered && !c.last.Filtered
	return c.cycle(ctx, files, domain.ReportContext{AllTestsRun: allTests}, c.last.WriteBlob)
}

// Merge reads previously written blobs and reports their union.
func (c *Collector) Merge(ctx context.Context, opts MergeOptions) (RunResult, error) {
	resolved, err := domain.Resolve(opts.Coverage, opts.Resolve)
	if err != nil {
		return RunResult{}, err
	}
	c.opts = resolved
	c.recorder = domain.NewEventCollector()
	if err := c.initialize(ctx, resolved); err != nil {
		return RunResult{Options: resolved}, err
	}
	if !c.provider.SupportsMerge() {
		return RunResult{Options: c.opts}, &domain.CapabilityError{Provider: c.provider.Name(), Capability: CapabilityMerge}
	}
	if c.Blobs == nil {
		return RunResult{Options: c.opts}, errors.New("merge requires a blob store")
	}

	paths, err := c.Blobs.Expand(opts.Inputs)
	if err != nil {
		return RunResult{Options: c.opts}, err
	}
	inputs := make([]domain.CoverageResults, 0, len(paths))
	for _, path := range paths {
		data, err := c.Blobs.Load(path)
		if err != nil {
			return RunResult{Options: c.opts}, err
		}
		results, err := c.provider.ReadResults(data)
		if err != nil {
			return RunResult{Options: c.opts}, fmt.Errorf("read %s: %w", path, err)
		}
		inputs = append(inputs, results)
	}
	c.logger().Info("merging coverage results", "inputs", len(inputs), "provider", c.provider.Name())

	if err := c.lifecycle.To(domain.StateGenerating); err != nil {
		return RunResult{Options: c.opts}, err
	}
	merged, err := ReportMerger{Provider: c.provider}.Merge(ctx, inputs)
	if err != nil {
		_ = c.lifecycle.To(domain.StateCleaned)
		return RunResult{Options: c.opts}, err
	}
	if c.opts.Clean {
		if err := c.provider.Clean(ctx, true); err != nil {
			return RunResult{Options: c.opts}, fmt.Errorf("clean coverage: %w", err)
		}
	}

	result := RunResult{RunID: uuid.NewString(), Options: c.opts}
	return c.finish(ctx, result, merged, domain.ReportContext{AllTestsRun: true}, false)
}

// Provider returns the active provider, or nil before Run.
func (c *Collector) Provider() Provider {
	return c.provider
}

// State returns the lifecycle state of the active provider.
func (c *Collector) State() domain.ProviderState {
	if c.lifecycle == nil {
		return domain.StateUninitialized
	}
	return c.lifecycle.State()
}

func (c *Collector) initialize(ctx context.Context, resolved domain.ResolvedCoverageOptions) error {
	name := resolved.ProviderName()
	if c.Registry == nil {
		return &domain.ProviderInitError{Provider: name, Err: errors.New("no provider registry")}
	}
	module, err := c.Registry.Lookup(name)
	if err != nil {
		return &domain.ProviderInitError{Provider: name, Err: err}
	}
	provider, err := module.GetProvider()
	if err != nil {
		return &domain.ProviderInitError{Provider: name, Err: err}
	}
	if err := provider.Initialize(ctx, resolved); err != nil {
		return &domain.ProviderInitError{Provider: name, Err: err}
	}
	c.provider = provider
	c.hooks, c.hasHooks = module.WorkerHooks()
	c.lifecycle = domain.NewLifecycle()
	c.opts = provider.ResolveOptions()
	c.logger().Debug("coverage provider initialized", "provider", name, "reporters", len(c.opts.Reporter))
	return c.lifecycle.To(domain.StateInitialized)
}

func (c *Collector) cycle(ctx context.Context, files []string, rc domain.ReportContext, writeBlob bool) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString(), Options: c.opts}
	if err := c.lifecycle.To(domain.StateCollecting); err != nil {
		return result, err
	}

	reports := c.execute(ctx, result.RunID, files, true)
	for _, r := range reports {
		if r.testErr != nil {
			result.Failed = append(result.Failed, r.meta.File)
			c.logger().Warn("tests failed", "file", r.meta.File, "worker", r.meta.WorkerID, "error", r.testErr)
		}
		if err := c.collect(r.meta); err != nil {
			result.Partial = append(result.Partial, r.meta.File)
			c.recorder.Record(domain.NewCollectionFailedEvent(r.meta.File, r.meta.WorkerID, err))
			c.logger().Warn("coverage missing for file", "file", r.meta.File, "error", err)
		}
	}
	sort.Strings(result.Failed)
	sort.Strings(result.Partial)

	if len(result.Failed) > 0 && !c.opts.ReportOnFailure {
		if err := c.provider.Clean(ctx, false); err != nil {
			c.logger().Warn("discard coverage", "error", err)
		}
		if err := c.lifecycle.To(domain.StateCleaned); err != nil {
			return result, err
		}
		c.publish()
		return result, domain.ErrTestsFailed
	}

	if err := c.lifecycle.To(domain.StateGenerating); err != nil {
		return result, err
	}
	results, err := c.provider.GenerateCoverage(ctx, rc)
	if err != nil {
		_ = c.lifecycle.To(domain.StateCleaned)
		return result, &domain.GenerationError{Provider: c.provider.Name(), Err: err}
	}

	result, err = c.finish(ctx, result, results, rc, writeBlob)
	if err != nil {
		return result, err
	}
	if len(result.Failed) > 0 {
		return result, domain.ErrTestsFailed
	}
	return result, nil
}

// finish evaluates thresholds, persists blobs and auto-updates, and renders
// reports. Reports are produced even when thresholds fail.
func (c *Collector) finish(ctx context.Context, result RunResult, results domain.CoverageResults, rc domain.ReportContext, writeBlob bool) (RunResult, error) {
	summary := results.Summary()
	result.Results = results
	result.Summary = summary
	c.recorder.Record(domain.NewCoverageGeneratedEvent(c.provider.Name(), summary))

	result.Evaluation = domain.Evaluate(c.opts.Thresholds, summary.FilePercentages(), summary.Global.Percentages())
	for _, v := range result.Evaluation.Violations {
		c.recorder.Record(domain.NewThresholdViolatedEvent(v))
	}
	if len(result.Evaluation.Updates) > 0 {
		for _, u := range result.Evaluation.Updates {
			c.recorder.Record(domain.NewThresholdUpdatedEvent(u))
		}
		c.opts.Thresholds = domain.ApplyUpdates(c.opts.Thresholds, result.Evaluation.Updates)
		result.Options.Thresholds = c.opts.Thresholds
		if c.Thresholds != nil {
			if err := c.Thresholds.WriteThresholds(c.opts.Thresholds); err != nil {
				c.logger().Warn("persist updated thresholds", "error", err)
			}
		}
	}

	if writeBlob {
		path, err := c.writeBlob(results)
		if err != nil {
			c.logger().Warn("write coverage blob", "error", err)
		} else {
			result.BlobPath = path
		}
	}

	if err := c.provider.ReportCoverage(ctx, results, rc); err != nil {
		_ = c.lifecycle.To(domain.StateCleaned)
		return result, &domain.GenerationError{Provider: c.provider.Name(), Err: err}
	}
	if err := c.lifecycle.To(domain.StateReported); err != nil {
		return result, err
	}
	c.publish()
	return result, nil
}

func (c *Collector) writeBlob(results domain.CoverageResults) (string, error) {
	if c.Blobs == nil {
		return "", errors.New("no blob store configured")
	}
	if !c.provider.SupportsMerge() {
		return "", &domain.CapabilityError{Provider: c.provider.Name(), Capability: CapabilityMerge}
	}
	data, err := c.provider.WriteResults(results)
	if err != nil {
		return "", err
	}
	return c.Blobs.Save(c.provider.Name(), data)
}

// collect forwards one payload to the provider. Every failure is reported
// as a CollectionError.
func (c *Collector) collect(meta domain.AfterSuiteRunMeta) error {
	err := c.provider.OnAfterSuiteRun(meta)
	if err == nil {
		return nil
	}
	var collErr *domain.CollectionError
	if errors.As(err, &collErr) {
		return err
	}
	return &domain.CollectionError{File: meta.File, Err: err}
}

func (c *Collector) runWithoutCoverage(ctx context.Context, opts RunOptions) (RunResult, error) {
	result := RunResult{RunID: uuid.NewString(), Options: c.opts}
	for _, r := range c.execute(ctx, result.RunID, opts.Files, false) {
		if r.testErr != nil {
			result.Failed = append(result.Failed, r.meta.File)
			c.logger().Warn("tests failed", "file", r.meta.File, "error", r.testErr)
		}
	}
	sort.Strings(result.Failed)
	if len(result.Failed) > 0 {
		return result, domain.ErrTestsFailed
	}
	return result, nil
}

// execute fans files out to isolated workers and gathers their reports.
// Workers share nothing; each gets its own temp dir and a copy of the
// options, and talks to the controller only through channels.
func (c *Collector) execute(ctx context.Context, runID string, files []string, withCoverage bool) []workerReport {
	workers := max(1, c.Workers)
	if workers > len(files) {
		workers = max(1, len(files))
	}

	queue := make(chan string)
	out := make(chan workerReport)
	done := make(chan struct{})

	for id := 1; id <= workers; id++ {
		w := domain.WorkerContext{
			WorkerID: id,
			Project:  c.last.Project,
			RunID:    runID,
			Coverage: c.opts,
		}
		go func() {
			c.worker(ctx, w, withCoverage, queue, out)
			done <- struct{}{}
		}()
	}
	go func() {
		defer close(queue)
		for _, f := range files {
			select {
			case queue <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		for range workers {
			<-done
		}
		close(out)
	}()

	var reports []workerReport
	for r := range out {
		reports = append(reports, r)
	}
	return reports
}

func (c *Collector) worker(ctx context.Context, w domain.WorkerContext, withCoverage bool, queue <-chan string, out chan<- workerReport) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("coverkit-w%d-", w.WorkerID))
	if err == nil {
		w.TempDir = dir
		defer os.RemoveAll(dir)
	}
	hooks := c.hooks
	useHooks := withCoverage && c.hasHooks && hooks != nil
	var startErr error
	if useHooks {
		if err != nil {
			startErr = fmt.Errorf("create worker dir: %w", err)
		} else {
			startErr = hooks.StartCoverage(ctx, w)
		}
	}

	for file := range queue {
		meta := domain.AfterSuiteRunMeta{RunID: w.RunID, File: file, Project: w.Project, WorkerID: w.WorkerID}
		testErr := c.runFile(ctx, w, file)
		switch {
		case !useHooks:
		case startErr != nil:
			meta.Err = startErr
		default:
			meta.Payload, meta.Err = hooks.TakeCoverage(ctx, w, file)
		}
		out <- workerReport{meta: meta, testErr: testErr}
	}

	if useHooks && startErr == nil {
		if err := hooks.StopCoverage(ctx, w); err != nil {
			c.logger().Debug("stop coverage", "worker", w.WorkerID, "error", err)
		}
	}
}

func (c *Collector) runFile(ctx context.Context, w domain.WorkerContext, file string) error {
	if c.Executor == nil {
		return errors.New("no test executor configured")
	}
	return c.Executor.Execute(ctx, w, file)
}

func (c *Collector) publish() {
	if c.Events == nil || !c.recorder.HasEvents() {
		return
	}
	if err := c.Events.PublishAll(c.recorder.Events()); err != nil {
		c.logger().Debug("publish events", "error", err)
	}
	c.recorder.Clear()
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
