package application

import (
	"context"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Capability names used in CapabilityError.
const (
	CapabilityMerge     = "mergeReports"
	CapabilityTransform = "onFileTransform"
)

// Provider is a coverage backend driven by the collector. One provider is
// active per run. OnAfterSuiteRun may be called concurrently and in any
// order; every other method is called from the controller goroutine.
type Provider interface {
	Name() string
	// Initialize stores the resolved options and acquires any resources.
	Initialize(ctx context.Context, opts domain.ResolvedCoverageOptions) error
	// ResolveOptions returns the options stored by Initialize.
	ResolveOptions() domain.ResolvedCoverageOptions
	// Clean discards collected data. With force it also removes report
	// artifacts from the reports directory.
	Clean(ctx context.Context, force bool) error
	OnAfterSuiteRun(meta domain.AfterSuiteRunMeta) error
	GenerateCoverage(ctx context.Context, rc domain.ReportContext) (domain.CoverageResults, error)
	ReportCoverage(ctx context.Context, results domain.CoverageResults, rc domain.ReportContext) error

	SupportsMerge() bool
	SupportsTransform() bool
	MergeReports(ctx context.Context, results []domain.CoverageResults) (domain.CoverageResults, error)
	WriteResults(results domain.CoverageResults) ([]byte, error)
	ReadResults(data []byte) (domain.CoverageResults, error)
	// OnFileTransform returns instrumented source, or ok=false for a no-op.
	OnFileTransform(source []byte, id string) (out []byte, ok bool, err error)
}

// BaseProvider declines every optional capability. Embed it and override
// the methods a provider supports.
type BaseProvider struct {
	ProviderName string
}

func (b BaseProvider) SupportsMerge() bool     { return false }
func (b BaseProvider) SupportsTransform() bool { return false }

func (b BaseProvider) MergeReports(context.Context, []domain.CoverageResults) (domain.CoverageResults, error) {
	return nil, b.capabilityError(CapabilityMerge)
}

func (b BaseProvider) WriteResults(domain.CoverageResults) ([]byte, error) {
	return nil, b.capabilityError(CapabilityMerge)
}

func (b BaseProvider) ReadResults([]byte) (domain.CoverageResults, error) {
	return nil, b.capabilityError(CapabilityMerge)
}

func (b BaseProvider) OnFileTransform([]byte, string) ([]byte, bool, error) {
	return nil, false, b.capabilityError(CapabilityTransform)
}

func (b BaseProvider) capabilityError(capability string) error {
	return &domain.CapabilityError{Provider: b.ProviderName, Capability: capability}
}

// WorkerHooks bracket test execution inside an isolated worker. The payload
// returned by TakeCoverage is the only data crossing back to the controller.
type WorkerHooks interface {
	StartCoverage(ctx context.Context, w domain.WorkerContext) error
	TakeCoverage(ctx context.Context, w domain.WorkerContext, file string) ([]byte, error)
	StopCoverage(ctx context.Context, w domain.WorkerContext) error
}

// ProviderModule is what the plugin registry hands out. GetProvider runs on
// the controller side; WorkerHooks reports false when the module has none.
type ProviderModule interface {
	GetProvider() (Provider, error)
	WorkerHooks() (WorkerHooks, bool)
}
