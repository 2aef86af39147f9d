package domain

// ProviderKind names a coverage backend.
type ProviderKind string

const (
	// ProviderGoCover collects instrumentation counters written by go test -cover.
	ProviderGoCover ProviderKind = "gocover"
	// ProviderLCOV imports LCOV tracefiles written by an external sampler.
	ProviderLCOV ProviderKind = "lcov"
	// ProviderCustom loads a provider module from the plugin registry.
	ProviderCustom ProviderKind = "custom"
)

// DefaultProvider is used when the provider field is unset.
const DefaultProvider = ProviderGoCover

// IsBuiltin reports whether the kind is one of the built-in backends.
func (k ProviderKind) IsBuiltin() bool {
	return k == ProviderGoCover || k == ProviderLCOV
}

// RawReporter is one user-supplied reporter entry: a bare name (nil
// Options) or a name with reporter-specific options.
type RawReporter struct {
	Name    string
	Options map[string]any
}

// ReporterEntry is a normalized (name, options) pair.
type ReporterEntry struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options" yaml:"options"`
}

// StringOption returns a string option or the fallback.
func (r ReporterEntry) StringOption(key, fallback string) string {
	if v, ok := r.Options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// BoolOption returns a bool option or the fallback.
func (r ReporterEntry) BoolOption(key string, fallback bool) bool {
	if v, ok := r.Options[key].(bool); ok {
		return v
	}
	return fallback
}

// Watermark is an advisory (low, high) coloring band.
type Watermark [2]float64

// Watermarks maps each metric to its band.
type Watermarks map[MetricName]Watermark

// CoverageOptions is the sparse, user-supplied configuration. Nil pointers
// and nil slices mean "unset"; an empty non-nil slice is an explicit value.
type CoverageOptions struct {
	Provider              *string
	Enabled               *bool
	Clean                 *bool
	CleanOnRerun          *bool
	ReportsDirectory      *string
	Root                  *string
	Include               []string
	Exclude               []string
	Extensions            []string
	Reporter              []RawReporter
	ReportOnFailure       *bool
	AllowExternal         *bool
	All                   *bool
	SkipFull              *bool
	ProcessingConcurrency *int
	Thresholds            *Thresholds
	Watermarks            Watermarks

	// gocover variant
	CoverMode *string
	CoverPkg  []string
	// lcov variant
	Tracefile *string
	// custom variant
	CustomProviderModule *string
}

// ProviderVariant carries the provider-specific resolved fields.
type ProviderVariant interface {
	Kind() ProviderKind
}

// GoCoverOptions configures the gocover backend.
type GoCoverOptions struct {
	CoverMode string   `yaml:"coverMode"`
	CoverPkg  []string `yaml:"coverPkg,omitempty"`
}

func (GoCoverOptions) Kind() ProviderKind { return ProviderGoCover }

// LCOVOptions configures the lcov backend.
type LCOVOptions struct {
	Tracefile string `yaml:"tracefile"`
}

func (LCOVOptions) Kind() ProviderKind { return ProviderLCOV }

// CustomOptions references a provider module registered by name.
type CustomOptions struct {
	Module string `yaml:"customProviderModule"`
}

func (CustomOptions) Kind() ProviderKind { return ProviderCustom }

// ResolvedCoverageOptions is the fully-defaulted configuration. Every field
// is safe to use without nil checks.
type ResolvedCoverageOptions struct {
	Provider              ProviderKind    `yaml:"provider"`
	Enabled               bool            `yaml:"enabled"`
	Clean                 bool            `yaml:"clean"`
	CleanOnRerun          bool            `yaml:"cleanOnRerun"`
	ReportsDirectory      string          `yaml:"reportsDirectory"`
	Root                  string          `yaml:"root"`
	Include               []string        `yaml:"include"`
	Exclude               []string        `yaml:"exclude"`
	Extensions            []string        `yaml:"extensions"`
	Reporter              []ReporterEntry `yaml:"reporter"`
	ReportOnFailure       bool            `yaml:"reportOnFailure"`
	AllowExternal         bool            `yaml:"allowExternal"`
	All                   bool            `yaml:"all"`
	SkipFull              bool            `yaml:"skipFull"`
	ProcessingConcurrency int             `yaml:"processingConcurrency"`
	Thresholds            Thresholds      `yaml:"-"`
	Watermarks            Watermarks      `yaml:"watermarks"`
	Variant               ProviderVariant `yaml:"variant"`
	Warnings              []string        `yaml:"-"`
}

// ProviderName returns the registry key of the active provider.
func (o ResolvedCoverageOptions) ProviderName() string {
	if c, ok := o.Variant.(CustomOptions); ok {
		return c.Module
	}
	return string(o.Provider)
}

// HasReporter reports whether a reporter with the given name is configured.
func (o ResolvedCoverageOptions) HasReporter(name string) bool {
	for _, r := range o.Reporter {
		if r.Name == name {
			return true
		}
	}
	return false
}
