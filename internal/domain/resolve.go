package domain

import (
	"fmt"
	"runtime"
	"strings"
)

// Defaults applied by Resolve to unset fields.
const (
	DefaultReportsDirectory = "./coverage"
	DefaultRoot             = "."
	DefaultCoverMode        = "atomic"
	DefaultTracefile        = "lcov.info"
	MaxProcessingDefault    = 20
)

// DefaultExclude lists build artifacts, tests, config files and virtual
// module markers.
var DefaultExclude = []string{
	"coverage/**",
	"dist/**",
	"**/vendor/**",
	"**/node_modules/**",
	"**/testdata/**",
	"**/*_test.go",
	"**/*.test.*",
	"**/*.spec.*",
	"**/*.pb.go",
	"**/.coverkit.yaml",
	"**/*.config.*",
	"**/<autogenerated>",
	"**/_cgo_*",
	"**/virtual:*",
}

// DefaultInclude matches everything.
var DefaultInclude = []string{"**"}

// DefaultExtensions lists the source extensions considered by default.
var DefaultExtensions = []string{".go", ".js", ".cjs", ".mjs", ".ts", ".mts", ".tsx", ".jsx"}

// DefaultReporters is the reporter set used when none is configured.
var DefaultReporters = []string{"text", "html", "clover", "json"}

// DefaultWatermark is the band applied to every metric without one.
var DefaultWatermark = Watermark{50, 80}

// KnownReporters is the closed set of reporter names.
var KnownReporters = map[string]bool{
	"text":         true,
	"text-summary": true,
	"json":         true,
	"json-summary": true,
	"lcov":         true,
	"lcovonly":     true,
	"clover":       true,
	"html":         true,
	"prometheus":   true,
}

var coverModes = map[string]bool{"set": true, "count": true, "atomic": true}

// ResolveConfig carries the inputs Resolve needs beyond the raw options.
type ResolveConfig struct {
	// Strict rejects unknown provider names instead of falling back.
	Strict bool
	// Parallelism is the available parallelism hint; 0 uses GOMAXPROCS.
	Parallelism int
}

// DefaultConcurrency returns the processing concurrency for a parallelism
// hint, capped at MaxProcessingDefault.
func DefaultConcurrency(parallelism int) int {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return max(1, min(MaxProcessingDefault, parallelism))
}

// Resolve turns sparse user options into a validated, fully-defaulted form.
// It is pure: equal inputs produce deeply-equal outputs.
func Resolve(raw CoverageOptions, cfg ResolveConfig) (ResolvedCoverageOptions, error) {
	var out ResolvedCoverageOptions

	kind, warning, err := resolveProvider(raw.Provider, cfg.Strict)
	if err != nil {
		return ResolvedCoverageOptions{}, err
	}
	if warning != "" {
		out.Warnings = append(out.Warnings, warning)
	}
	out.Provider = kind

	variant, err := resolveVariant(kind, raw)
	if err != nil {
		return ResolvedCoverageOptions{}, err
	}
	out.Variant = variant

	out.Enabled = boolOr(raw.Enabled, false)
	out.Clean = boolOr(raw.Clean, true)
	out.CleanOnRerun = boolOr(raw.CleanOnRerun, true)
	out.ReportOnFailure = boolOr(raw.ReportOnFailure, false)
	out.AllowExternal = boolOr(raw.AllowExternal, false)
	out.All = boolOr(raw.All, true)
	out.SkipFull = boolOr(raw.SkipFull, false)
	out.ReportsDirectory = stringOr(raw.ReportsDirectory, DefaultReportsDirectory)
	out.Root = stringOr(raw.Root, DefaultRoot)

	if out.Include, err = resolveGlobs("include", raw.Include, DefaultInclude); err != nil {
		return ResolvedCoverageOptions{}, err
	}
	if out.Exclude, err = resolveGlobs("exclude", raw.Exclude, DefaultExclude); err != nil {
		return ResolvedCoverageOptions{}, err
	}
	out.Extensions = resolveExtensions(raw.Extensions)

	if out.Reporter, err = resolveReporters(raw.Reporter); err != nil {
		return ResolvedCoverageOptions{}, err
	}

	out.ProcessingConcurrency = DefaultConcurrency(cfg.Parallelism)
	if raw.ProcessingConcurrency != nil && *raw.ProcessingConcurrency > 0 {
		out.ProcessingConcurrency = *raw.ProcessingConcurrency
	}

	if raw.Thresholds != nil {
		if err := validateThresholds(*raw.Thresholds); err != nil {
			return ResolvedCoverageOptions{}, err
		}
		out.Thresholds = raw.Thresholds.Clone()
	}

	if out.Watermarks, err = resolveWatermarks(raw.Watermarks); err != nil {
		return ResolvedCoverageOptions{}, err
	}
	return out, nil
}

func resolveProvider(raw *string, strict bool) (ProviderKind, string, error) {
	if raw == nil || *raw == "" {
		return DefaultProvider, "", nil
	}
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(*raw)))
	if kind.IsBuiltin() || kind == ProviderCustom {
		return kind, "", nil
	}
	if strict {
		return "", "", &ConfigError{Field: "provider", Value: *raw, Msg: "unknown provider"}
	}
	return DefaultProvider, fmt.Sprintf("unknown coverage provider %q, falling back to %s", *raw, DefaultProvider), nil
}

func resolveVariant(kind ProviderKind, raw CoverageOptions) (ProviderVariant, error) {
	switch kind {
	case ProviderLCOV:
		return LCOVOptions{Tracefile: stringOr(raw.Tracefile, DefaultTracefile)}, nil
	case ProviderCustom:
		if raw.CustomProviderModule == nil || strings.TrimSpace(*raw.CustomProviderModule) == "" {
			return nil, &ConfigError{Field: "customProviderModule", Msg: "required when provider is custom"}
		}
		return CustomOptions{Module: strings.TrimSpace(*raw.CustomProviderModule)}, nil
	default:
		mode := stringOr(raw.CoverMode, DefaultCoverMode)
		if !coverModes[mode] {
			return nil, &ConfigError{Field: "coverMode", Value: mode, Msg: "must be set, count or atomic"}
		}
		return GoCoverOptions{CoverMode: mode, CoverPkg: cloneStrings(raw.CoverPkg)}, nil
	}
}

func resolveGlobs(field string, raw, defaults []string) ([]string, error) {
	if raw == nil {
		return cloneStrings(defaults), nil
	}
	out := dedupe(raw)
	for _, p := range out {
		if err := ValidatePattern(field, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func resolveExtensions(raw []string) []string {
	if raw == nil {
		return cloneStrings(DefaultExtensions)
	}
	normalized := make([]string, 0, len(raw))
	for _, e := range raw {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		normalized = append(normalized, e)
	}
	return dedupe(normalized)
}

func resolveReporters(raw []RawReporter) ([]ReporterEntry, error) {
	if raw == nil {
		out := make([]ReporterEntry, 0, len(DefaultReporters))
		for _, name := range DefaultReporters {
			out = append(out, ReporterEntry{Name: name, Options: map[string]any{}})
		}
		return out, nil
	}
	out := make([]ReporterEntry, 0, len(raw))
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if !KnownReporters[name] {
			return nil, &ConfigError{Field: "reporter", Value: r.Name, Msg: "unknown reporter"}
		}
		opts := make(map[string]any, len(r.Options))
		for k, v := range r.Options {
			opts[k] = v
		}
		out = append(out, ReporterEntry{Name: name, Options: opts})
	}
	return out, nil
}

func validateThresholds(t Thresholds) error {
	if err := t.Global.Validate(); err != nil {
		return &ConfigError{Field: "thresholds", Msg: err.Error()}
	}
	for _, g := range t.GlobPatterns() {
		if err := ValidatePattern("thresholds", g); err != nil {
			return err
		}
		if err := t.Globs[g].Validate(); err != nil {
			return &ConfigError{Field: "thresholds", Value: g, Msg: err.Error()}
		}
	}
	return nil
}

func resolveWatermarks(raw Watermarks) (Watermarks, error) {
	out := make(Watermarks, len(Metrics))
	for _, name := range Metrics {
		w, ok := raw[name]
		if !ok {
			out[name] = DefaultWatermark
			continue
		}
		low, high := w[0], w[1]
		if low < 0 || high > 100 || low > high {
			return nil, &ConfigError{
				Field: "watermarks",
				Value: string(name),
				Msg:   fmt.Sprintf("band [%v, %v] must satisfy 0 <= low <= high <= 100", low, high),
			}
		}
		out[name] = w
	}
	for name := range raw {
		if !isMetric(name) {
			return nil, &ConfigError{Field: "watermarks", Value: string(name), Msg: "unknown metric"}
		}
	}
	return out, nil
}

func isMetric(name MetricName) bool {
	for _, m := range Metrics {
		if m == name {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
