package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

func fakeOptions() domain.CoverageOptions {
	return domain.CoverageOptions{
		Provider:             ptr("custom"),
		CustomProviderModule: ptr("fake"),
		Enabled:              ptr(true),
	}
}

type collectorFixture struct {
	provider  *fakeProvider
	hooks     *fakeHooks
	executor  *fakeExecutor
	blobs     *memoryBlobs
	writer    *recordingWriter
	publisher *recordingPublisher
	collector *Collector
}

func newFixture(merge bool) *collectorFixture {
	f := &collectorFixture{
		provider: newFakeProvider(merge),
		hooks: &fakeHooks{payloads: map[string]string{
			"a_test.go": "3/4",
			"b_test.go": "1/4",
			"c_test.go": "4/4",
		}},
		executor:  &fakeExecutor{},
		blobs:     &memoryBlobs{},
		writer:    &recordingWriter{},
		publisher: &recordingPublisher{},
	}
	f.collector = &Collector{
		Registry:   fakeRegistry{"fake": fakeModule{provider: f.provider, hooks: f.hooks}},
		Executor:   f.executor,
		Blobs:      f.blobs,
		Thresholds: f.writer,
		Events:     f.publisher,
		Workers:    2,
	}
	return f
}

var allFiles = []string{"a_test.go", "b_test.go", "c_test.go"}

func TestCollectorRun(t *testing.T) {
	f := newFixture(true)

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: allFiles})
	require.NoError(t, err)

	assert.Equal(t, domain.StateReported, f.collector.State())
	assert.Equal(t, []string{"initialize", "clean", "generate", "report"}, f.provider.calls)
	assert.Equal(t, []bool{true}, f.provider.cleans)
	assert.Equal(t, domain.Metric{Covered: 8, Total: 12}, result.Summary.Global.Lines)
	assert.Len(t, result.Summary.Files, 3)
	assert.Empty(t, result.Partial)
	assert.Empty(t, result.Failed)
	assert.True(t, result.Passed())
	assert.NotEmpty(t, result.RunID)
	assert.ElementsMatch(t, allFiles, f.executor.ran)
	assert.Equal(t, 2, f.hooks.started)
	assert.Equal(t, 2, f.hooks.stopped)
	require.Len(t, f.provider.reported, 1)
	assert.True(t, f.provider.reported[0].AllTestsRun)
	require.NotEmpty(t, f.publisher.events)
	assert.Equal(t, "CoverageGenerated", f.publisher.events[0].EventType())
}

func TestCollectorInitFailureAbortsBeforeWorkers(t *testing.T) {
	f := newFixture(true)
	f.provider.initErr = errors.New("no instrumentation")

	_, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: allFiles})
	var initErr *domain.ProviderInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "fake", initErr.Provider)
	assert.Empty(t, f.executor.ran)
}

func TestCollectorUnknownModule(t *testing.T) {
	f := newFixture(true)
	opts := fakeOptions()
	opts.CustomProviderModule = ptr("missing")

	_, err := f.collector.Run(context.Background(), RunOptions{Coverage: opts, Files: allFiles})
	var initErr *domain.ProviderInitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCollectorConfigErrorBeforeAnything(t *testing.T) {
	f := newFixture(true)
	opts := fakeOptions()
	opts.Exclude = []string{"src/[oops"}

	_, err := f.collector.Run(context.Background(), RunOptions{Coverage: opts, Files: allFiles})
	assert.True(t, domain.IsConfigError(err))
	assert.Empty(t, f.provider.calls)
}

func TestCollectorCollectionErrorIsPartial(t *testing.T) {
	f := newFixture(true)
	f.hooks.missing = map[string]bool{"b_test.go": true}

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: allFiles})
	require.NoError(t, err)
	assert.Equal(t, []string{"b_test.go"}, result.Partial)
	assert.Len(t, result.Summary.Files, 2)

	var failed int
	for _, e := range f.publisher.events {
		if e.EventType() == "CollectionFailed" {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestCollectorTestFailureDiscardsCoverage(t *testing.T) {
	f := newFixture(true)
	f.executor.fail = map[string]bool{"c_test.go": true}

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: allFiles})
	require.ErrorIs(t, err, domain.ErrTestsFailed)
	assert.Equal(t, []string{"c_test.go"}, result.Failed)
	assert.Equal(t, domain.StateCleaned, f.collector.State())
	assert.NotContains(t, f.provider.calls, "generate")
	assert.NotContains(t, f.provider.calls, "report")
	assert.Equal(t, []bool{true, false}, f.provider.cleans)
}

func TestCollectorReportOnFailure(t *testing.T) {
	f := newFixture(true)
	f.executor.fail = map[string]bool{"c_test.go": true}
	opts := fakeOptions()
	opts.ReportOnFailure = ptr(true)

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: opts, Files: allFiles})
	require.ErrorIs(t, err, domain.ErrTestsFailed)
	assert.Contains(t, f.provider.calls, "report")
	assert.Equal(t, domain.StateReported, f.collector.State())
	assert.Len(t, result.Summary.Files, 3)
}

func TestCollectorThresholdViolationStillReports(t *testing.T) {
	f := newFixture(true)
	opts := fakeOptions()
	opts.Thresholds = &domain.Thresholds{Global: domain.MetricThresholds{Lines: ptr(90.0)}}

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: opts, Files: allFiles})
	require.NoError(t, err)
	require.True(t, result.Evaluation.Failed())
	assert.Equal(t, domain.Violation{Scope: domain.ScopeGlobal, Metric: domain.MetricLines, Actual: 66.67, Required: 90}, result.Evaluation.Violations[0])
	assert.Contains(t, f.provider.calls, "report")
	assert.False(t, result.Passed())
}

func TestCollectorAutoUpdatePersistsThresholds(t *testing.T) {
	f := newFixture(true)
	opts := fakeOptions()
	opts.Thresholds = &domain.Thresholds{Global: domain.MetricThresholds{Lines: ptr(50.0)}, AutoUpdate: true}

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: opts, Files: allFiles})
	require.NoError(t, err)
	assert.False(t, result.Evaluation.Failed())
	require.Len(t, f.writer.written, 1)
	assert.Equal(t, 66.67, *f.writer.written[0].Global.Lines)
	assert.Equal(t, 66.67, *result.Options.Thresholds.Global.Lines)
}

func TestCollectorGenerationError(t *testing.T) {
	f := newFixture(true)
	f.provider.genErr = errors.New("disk full")

	_, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: allFiles})
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.NotContains(t, f.provider.calls, "report")
}

func TestCollectorBlobsRoundTripThroughMerge(t *testing.T) {
	f := newFixture(true)

	first, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: []string{"a_test.go"}, Filtered: true, WriteBlob: true})
	require.NoError(t, err)
	require.NotEmpty(t, first.BlobPath)
	assert.False(t, f.provider.reported[0].AllTestsRun)

	second, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: []string{"a_test.go", "b_test.go"}, WriteBlob: true})
	require.NoError(t, err)
	require.NotEmpty(t, second.BlobPath)

	merged, err := f.collector.Merge(context.Background(), MergeOptions{Coverage: fakeOptions(), Inputs: []string{first.BlobPath, second.BlobPath}})
	require.NoError(t, err)
	assert.Equal(t, domain.Metric{Covered: 6, Total: 8}, merged.Summary.Files["a_test.go"].Lines)
	assert.Equal(t, domain.Metric{Covered: 1, Total: 4}, merged.Summary.Files["b_test.go"].Lines)
	assert.Equal(t, domain.StateReported, f.collector.State())
}

func TestCollectorMergeRequiresCapability(t *testing.T) {
	f := newFixture(false)

	_, err := f.collector.Merge(context.Background(), MergeOptions{Coverage: fakeOptions(), Inputs: []string{"x"}})
	assert.True(t, domain.IsCapabilityError(err))
}

func TestCollectorRerun(t *testing.T) {
	f := newFixture(true)

	_, err := f.collector.Run(context.Background(), RunOptions{Coverage: fakeOptions(), Files: allFiles})
	require.NoError(t, err)

	result, err := f.collector.Rerun(context.Background(), []string{"a_test.go"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateReported, f.collector.State())
	assert.Equal(t, []bool{true, true}, f.provider.cleans)
	require.Len(t, f.provider.reported, 2)
	assert.False(t, f.provider.reported[1].AllTestsRun)
	assert.Len(t, result.Summary.Files, 1)

	result, err = f.collector.Rerun(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, f.provider.reported[2].AllTestsRun)
	assert.Len(t, result.Summary.Files, 3)
}

func TestCollectorDisabledRunsTestsOnly(t *testing.T) {
	f := newFixture(true)
	opts := fakeOptions()
	opts.Enabled = ptr(false)

	result, err := f.collector.Run(context.Background(), RunOptions{Coverage: opts, Files: allFiles})
	require.NoError(t, err)
	assert.Empty(t, f.provider.calls)
	assert.Equal(t, 0, f.hooks.started)
	assert.ElementsMatch(t, allFiles, f.executor.ran)
	assert.Empty(t, result.Summary.Files)
}
