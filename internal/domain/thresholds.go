package domain

import (
	"errors"
	"sort"
)

// ErrInvalidThreshold is returned for percentages outside [0, 100].
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")

// MetricThresholds holds minimum percentages per metric. All100 is the
// `100` shortcut meaning "require 100% on all four".
type MetricThresholds struct {
	Statements *float64
	Branches   *float64
	Functions  *float64
	Lines      *float64
	All100     bool
}

// Get returns the threshold configured for a metric, or nil.
func (t MetricThresholds) Get(name MetricName) *float64 {
	switch name {
	case MetricStatements:
		return t.Statements
	case MetricBranches:
		return t.Branches
	case MetricFunctions:
		return t.Functions
	default:
		return t.Lines
	}
}

// Set stores a threshold for a metric.
func (t *MetricThresholds) Set(name MetricName, v float64) {
	switch name {
	case MetricStatements:
		t.Statements = &v
	case MetricBranches:
		t.Branches = &v
	case MetricFunctions:
		t.Functions = &v
	default:
		t.Lines = &v
	}
}

// Expand resolves the 100 shortcut into explicit values.
func (t MetricThresholds) Expand() MetricThresholds {
	if !t.All100 {
		return t
	}
	out := MetricThresholds{}
	for _, name := range Metrics {
		out.Set(name, 100)
	}
	return out
}

// IsZero reports whether no threshold is configured.
func (t MetricThresholds) IsZero() bool {
	return !t.All100 && t.Statements == nil && t.Branches == nil && t.Functions == nil && t.Lines == nil
}

// Validate checks every configured value is a valid percentage.
func (t MetricThresholds) Validate() error {
	for _, name := range Metrics {
		if v := t.Get(name); v != nil {
			if *v < 0 || *v > 100 {
				return ErrInvalidThreshold
			}
		}
	}
	return nil
}

// Thresholds is the global threshold set plus per-glob overrides. PerFile
// and AutoUpdate are global-only.
type Thresholds struct {
	Global     MetricThresholds
	PerFile    bool
	AutoUpdate bool
	Globs      map[string]MetricThresholds
}

// GlobPatterns returns the glob keys in sorted order.
func (t Thresholds) GlobPatterns() []string {
	out := make([]string, 0, len(t.Globs))
	for g := range t.Globs {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (t Thresholds) Clone() Thresholds {
	out := Thresholds{
		Global:     t.Global.clone(),
		PerFile:    t.PerFile,
		AutoUpdate: t.AutoUpdate,
	}
	if t.Globs != nil {
		out.Globs = make(map[string]MetricThresholds, len(t.Globs))
		for g, mt := range t.Globs {
			out.Globs[g] = mt.clone()
		}
	}
	return out
}

func (t MetricThresholds) clone() MetricThresholds {
	out := MetricThresholds{All100: t.All100}
	for _, name := range Metrics {
		if v := t.Get(name); v != nil {
			out.Set(name, *v)
		}
	}
	return out
}
