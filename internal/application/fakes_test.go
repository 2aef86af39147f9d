package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// fakeResults keeps covered/total lines per file.
type fakeResults struct {
	files map[string]domain.Metric
}

func (r fakeResults) Summary() domain.CoverageSummary {
	files := make(map[string]domain.FileSummary, len(r.files))
	for f, m := range r.files {
		files[f] = domain.FileSummary{Statements: m, Lines: m}
	}
	return domain.NewCoverageSummary(files)
}

type fakeProvider struct {
	BaseProvider
	merge bool

	mu       sync.Mutex
	opts     domain.ResolvedCoverageOptions
	acc      map[string]domain.Metric
	calls    []string
	initErr  error
	genErr   error
	reported []domain.ReportContext
	cleans   []bool
}

func newFakeProvider(merge bool) *fakeProvider {
	return &fakeProvider{BaseProvider: BaseProvider{ProviderName: "fake"}, merge: merge, acc: map[string]domain.Metric{}}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Initialize(_ context.Context, opts domain.ResolvedCoverageOptions) error {
	p.calls = append(p.calls, "initialize")
	p.opts = opts
	return p.initErr
}

func (p *fakeProvider) ResolveOptions() domain.ResolvedCoverageOptions { return p.opts }

func (p *fakeProvider) Clean(_ context.Context, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "clean")
	p.cleans = append(p.cleans, force)
	p.acc = map[string]domain.Metric{}
	return nil
}

func (p *fakeProvider) OnAfterSuiteRun(meta domain.AfterSuiteRunMeta) error {
	if meta.Err != nil {
		return &domain.CollectionError{File: meta.File, Err: meta.Err}
	}
	var covered, total int
	if _, err := fmt.Sscanf(string(meta.Payload), "%d/%d", &covered, &total); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acc[meta.File] = p.acc[meta.File].Add(domain.Metric{Covered: covered, Total: total})
	return nil
}

func (p *fakeProvider) GenerateCoverage(context.Context, domain.ReportContext) (domain.CoverageResults, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "generate")
	if p.genErr != nil {
		return nil, p.genErr
	}
	out := fakeResults{files: p.acc}
	p.acc = map[string]domain.Metric{}
	return out, nil
}

func (p *fakeProvider) ReportCoverage(_ context.Context, _ domain.CoverageResults, rc domain.ReportContext) error {
	p.calls = append(p.calls, "report")
	p.reported = append(p.reported, rc)
	return nil
}

func (p *fakeProvider) SupportsMerge() bool { return p.merge }

func (p *fakeProvider) MergeReports(_ context.Context, results []domain.CoverageResults) (domain.CoverageResults, error) {
	if !p.merge {
		return p.BaseProvider.MergeReports(context.Background(), results)
	}
	out := fakeResults{files: map[string]domain.Metric{}}
	for _, r := range results {
		for f, m := range r.(fakeResults).files {
			out.files[f] = out.files[f].Add(m)
		}
	}
	return out, nil
}

func (p *fakeProvider) WriteResults(results domain.CoverageResults) ([]byte, error) {
	files := results.(fakeResults).files
	names := make([]string, 0, len(files))
	for f := range files {
		names = append(names, f)
	}
	sort.Strings(names)
	var out []byte
	for _, f := range names {
		out = fmt.Appendf(out, "%s %d/%d\n", f, files[f].Covered, files[f].Total)
	}
	return out, nil
}

func (p *fakeProvider) ReadResults(data []byte) (domain.CoverageResults, error) {
	out := fakeResults{files: map[string]domain.Metric{}}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var (
			name           string
			covered, total int
		)
		if _, err := fmt.Sscanf(line, "%s %d/%d", &name, &covered, &total); err != nil {
			return nil, errors.New("malformed blob")
		}
		out.files[name] = domain.Metric{Covered: covered, Total: total}
	}
	return out, nil
}

// fakeHooks reads payloads from a map keyed by file.
type fakeHooks struct {
	payloads map[string]string
	missing  map[string]bool

	mu      sync.Mutex
	started int
	stopped int
}

func (h *fakeHooks) StartCoverage(context.Context, domain.WorkerContext) error {
	h.mu.Lock()
	h.started++
	h.mu.Unlock()
	return nil
}

func (h *fakeHooks) TakeCoverage(_ context.Context, _ domain.WorkerContext, file string) ([]byte, error) {
	if h.missing[file] {
		return nil, errors.New("no profile written")
	}
	return []byte(h.payloads[file]), nil
}

func (h *fakeHooks) StopCoverage(context.Context, domain.WorkerContext) error {
	h.mu.Lock()
	h.stopped++
	h.mu.Unlock()
	return nil
}

type fakeModule struct {
	provider *fakeProvider
	hooks    *fakeHooks
}

func (m fakeModule) GetProvider() (Provider, error) { return m.provider, nil }

func (m fakeModule) WorkerHooks() (WorkerHooks, bool) {
	if m.hooks == nil {
		return nil, false
	}
	return m.hooks, true
}

type fakeRegistry map[string]ProviderModule

func (r fakeRegistry) Lookup(name string) (ProviderModule, error) {
	m, ok := r[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return m, nil
}

func (r fakeRegistry) Names() []string { return nil }

type fakeExecutor struct {
	fail map[string]bool

	mu  sync.Mutex
	ran []string
}

func (e *fakeExecutor) Execute(_ context.Context, _ domain.WorkerContext, file string) error {
	e.mu.Lock()
	e.ran = append(e.ran, file)
	e.mu.Unlock()
	if e.fail[file] {
		return errors.New("exit status 1")
	}
	return nil
}

type memoryBlobs struct {
	blobs map[string][]byte
}

func (m *memoryBlobs) Save(provider string, data []byte) (string, error) {
	if m.blobs == nil {
		m.blobs = map[string][]byte{}
	}
	path := fmt.Sprintf("%s-%d.json", provider, len(m.blobs))
	m.blobs[path] = data
	return path, nil
}

func (m *memoryBlobs) Load(path string) ([]byte, error) {
	data, ok := m.blobs[path]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (m *memoryBlobs) Expand(paths []string) ([]string, error) {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out, nil
}

type recordingWriter struct {
	written []domain.Thresholds
}

func (w *recordingWriter) WriteThresholds(th domain.Thresholds) error {
	w.written = append(w.written, th)
	return nil
}

type recordingPublisher struct {
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(e domain.DomainEvent) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishAll(events []domain.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func ptr[T any](v T) *T { return &v }
