package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// runFlags are the coverage option overrides accepted by run, merge and
// resolve. Only flags set on the command line override the config file.
type runFlags struct {
	provider        string
	enabled         bool
	reporters       []string
	reportsDir      string
	include         []string
	exclude         []string
	reportOnFailure bool
	all             bool
	allowExternal   bool
	skipFull        bool
	clean           bool
	coverMode       string
	tracefile       string
	concurrency     int
	strict          bool

	runner  string
	command string
	workers int
	blobOut string
	watch   bool
}

func (f *runFlags) registerReportFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.provider, "provider", "p", "", "Coverage provider (gocover, lcov, custom)")
	fs.BoolVar(&f.enabled, "coverage", false, "Collect coverage (overrides the enabled option)")
	fs.StringArrayVarP(&f.reporters, "reporter", "r", nil, "Reporter as name or name:key=value,... (repeatable)")
	fs.StringVar(&f.reportsDir, "reports-dir", "", "Directory reports are written to")
	fs.StringSliceVar(&f.include, "include", nil, "Globs of source files to include")
	fs.StringSliceVar(&f.exclude, "exclude", nil, "Globs of source files to exclude")
	fs.BoolVar(&f.allowExternal, "allow-external", false, "Keep files outside the project root")
	fs.BoolVar(&f.all, "all", true, "Report untested source files with zero coverage")
	fs.BoolVar(&f.skipFull, "skip-full", false, "Hide fully covered files from text reports")
	fs.BoolVar(&f.clean, "clean", true, "Remove previous coverage results before running")
	fs.StringVar(&f.coverMode, "covermode", "", "gocover counter mode (set, count, atomic)")
	fs.StringVar(&f.tracefile, "tracefile", "", "LCOV tracefile name written by the test runner")
	fs.IntVar(&f.concurrency, "processing-concurrency", 0, "Coverage files processed concurrently")
	fs.BoolVar(&f.strict, "strict", false, "Reject unknown providers instead of falling back")
}

func (f *runFlags) register(cmd *cobra.Command) {
	f.registerReportFlags(cmd)
	fs := cmd.Flags()
	fs.BoolVar(&f.reportOnFailure, "report-on-failure", false, "Write reports even when tests fail")
	fs.StringVar(&f.runner, "runner", "", "Test runner name instead of auto-detection")
	fs.StringVar(&f.command, "command", "", "Test command template with {file}, {name}, {profile} and {dir} placeholders")
	fs.IntVarP(&f.workers, "workers", "w", 0, "Number of isolated workers (default: available parallelism)")
	fs.StringVar(&f.blobOut, "blob-out", "", "Write a mergeable coverage blob into this directory")
	fs.BoolVar(&f.watch, "watch", false, "Rerun on file changes")
}

// overrides converts the flags set on cmd into sparse options.
func (f *runFlags) overrides(cmd *cobra.Command) (domain.CoverageOptions, error) {
	var opts domain.CoverageOptions
	changed := cmd.Flags().Changed

	if changed("provider") {
		opts.Provider = &f.provider
	}
	if changed("coverage") {
		opts.Enabled = &f.enabled
	}
	if changed("reporter") {
		reporters, err := parseReporters(f.reporters)
		if err != nil {
			return domain.CoverageOptions{}, err
		}
		opts.Reporter = reporters
	}
	if changed("reports-dir") {
		opts.ReportsDirectory = &f.reportsDir
	}
	if changed("include") {
		opts.Include = append([]string{}, f.include...)
	}
	if changed("exclude") {
		opts.Exclude = append([]string{}, f.exclude...)
	}
	if changed("report-on-failure") {
		opts.ReportOnFailure = &f.reportOnFailure
	}
	if changed("all") {
		opts.All = &f.all
	}
	if changed("allow-external") {
		opts.AllowExternal = &f.allowExternal
	}
	if changed("skip-full") {
		opts.SkipFull = &f.skipFull
	}
	if changed("clean") {
		opts.Clean = &f.clean
	}
	if changed("covermode") {
		opts.CoverMode = &f.coverMode
	}
	if changed("tracefile") {
		opts.Tracefile = &f.tracefile
	}
	if changed("processing-concurrency") {
		opts.ProcessingConcurrency = &f.concurrency
	}
	return opts, nil
}

// parseReporters parses "name" and "name:key=value,key=value" entries.
// true, false and numbers are decoded; everything else stays a string.
func parseReporters(values []string) ([]domain.RawReporter, error) {
	out := make([]domain.RawReporter, 0, len(values))
	for _, value := range values {
		name, rest, hasOpts := strings.Cut(value, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &domain.ConfigError{Field: "reporter", Value: value, Msg: "missing reporter name"}
		}
		reporter := domain.RawReporter{Name: name}
		if hasOpts {
			reporter.Options = map[string]any{}
			for _, pair := range strings.Split(rest, ",") {
				key, raw, ok := strings.Cut(pair, "=")
				key = strings.TrimSpace(key)
				if !ok || key == "" {
					return nil, &domain.ConfigError{Field: "reporter", Value: value, Msg: fmt.Sprintf("option %q must be key=value", pair)}
				}
				reporter.Options[key] = optionValue(strings.TrimSpace(raw))
			}
		}
		out = append(out, reporter)
	}
	return out, nil
}

func optionValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
