// Package reporters renders coverage maps into the configured report
// formats. Console reporters write to the console writer unless a file
// option is given; every other reporter writes below the reports directory.
package reporters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

// Default output names per reporter.
const (
	FileJSON        = "coverage-final.json"
	FileJSONSummary = "coverage-summary.json"
	FileLCOV        = "lcov.info"
	FileClover      = "clover.xml"
	FilePrometheus  = "coverage.prom"
	DirHTML         = "html"
)

type renderFunc func(w io.Writer, r *report) error

// writeFunc is used by reporters that own the file write.
type writeFunc func(path string, r *report, entry domain.ReporterEntry) error

type definition struct {
	render      renderFunc
	write       writeFunc
	defaultFile string
	console     bool
}

var registry = map[string]definition{
	"text":         {render: renderText, console: true},
	"text-summary": {render: renderTextSummary, console: true},
	"json":         {render: renderJSON, defaultFile: FileJSON},
	"json-summary": {render: renderJSONSummary, defaultFile: FileJSONSummary},
	"lcovonly":     {render: renderLCOV, defaultFile: FileLCOV},
	"clover":       {render: renderClover, defaultFile: FileClover},
	"html":         {render: renderHTML, defaultFile: filepath.Join(DirHTML, "index.html")},
	"prometheus":   {write: writePrometheus, defaultFile: FilePrometheus},
}

// Set renders every reporter listed in the resolved options.
type Set struct {
	// Console receives console reporter output. Nil means os.Stdout.
	Console io.Writer
	// Now stamps generated reports. Nil means time.Now.
	Now func() time.Time
}

// OutputDir returns the directory reports are written to.
func OutputDir(opts domain.ResolvedCoverageOptions) string {
	if filepath.IsAbs(opts.ReportsDirectory) {
		return filepath.Clean(opts.ReportsDirectory)
	}
	return filepath.Join(opts.Root, opts.ReportsDirectory)
}

// Render runs each configured reporter in order and stops at the first error.
func (s Set) Render(ctx context.Context, m *coverage.Map, opts domain.ResolvedCoverageOptions) error {
	for _, entry := range opts.Reporter {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.Name == "lcov" {
			// lcov is lcovonly plus an html report
			if err := s.renderOne(m, opts, domain.ReporterEntry{Name: "lcovonly", Options: entry.Options}); err != nil {
				return err
			}
			if err := s.renderOne(m, opts, domain.ReporterEntry{Name: "html", Options: htmlOptions(entry.Options)}); err != nil {
				return err
			}
			continue
		}
		if err := s.renderOne(m, opts, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s Set) renderOne(m *coverage.Map, opts domain.ResolvedCoverageOptions, entry domain.ReporterEntry) error {
	sp, ok := registry[entry.Name]
	if !ok {
		return fmt.Errorf("unsupported reporter: %s", entry.Name)
	}
	r := s.newReport(m, opts, entry)

	file := entry.StringOption("file", sp.defaultFile)
	if sp.console && file == "" {
		return sp.render(s.console(), r)
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(OutputDir(opts), file)
	}
	if sp.write != nil {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		if err := sp.write(path, r, entry); err != nil {
			return fmt.Errorf("reporter %s: %w", entry.Name, err)
		}
		return nil
	}
	if err := writeFile(path, func(w io.Writer) error { return sp.render(w, r) }); err != nil {
		return fmt.Errorf("reporter %s: %w", entry.Name, err)
	}
	return nil
}

func (s Set) console() io.Writer {
	if s.Console != nil {
		return s.Console
	}
	return os.Stdout
}

func (s Set) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func htmlOptions(lcov map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range lcov {
		if k != "file" {
			out[k] = v
		}
	}
	return out
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path) // #nosec G304 - path is below the reports directory
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

// report is the reporter-facing view of a coverage map.
type report struct {
	files      []fileRow
	total      domain.FileSummary
	watermarks domain.Watermarks
	generated  time.Time
	entries    map[string]*coverage.FileCoverage
}

type fileRow struct {
	Path    string
	Summary domain.FileSummary
}

func (s Set) newReport(m *coverage.Map, opts domain.ResolvedCoverageOptions, entry domain.ReporterEntry) *report {
	skipFull := entry.BoolOption("skipFull", opts.SkipFull)
	skipEmpty := entry.BoolOption("skipEmpty", false)

	r := &report{
		watermarks: opts.Watermarks,
		generated:  s.now(),
		entries:    map[string]*coverage.FileCoverage{},
	}
	for _, fc := range m.Entries() {
		sum := fc.Summary()
		// totals always include every file
		r.total = r.total.Add(sum)
		if skipFull && sum.IsFull() {
			continue
		}
		if skipEmpty && sum.IsEmpty() {
			continue
		}
		r.files = append(r.files, fileRow{Path: fc.Path, Summary: sum})
		r.entries[fc.Path] = fc
	}
	return r
}

// Level classifies a percentage against a metric's watermark band.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// LevelFor returns the watermark level of pct for metric.
func LevelFor(w domain.Watermarks, metric domain.MetricName, pct float64) Level {
	band, ok := w[metric]
	if !ok {
		band = domain.DefaultWatermark
	}
	switch {
	case pct < band[0]:
		return LevelLow
	case pct < band[1]:
		return LevelMedium
	default:
		return LevelHigh
	}
}
