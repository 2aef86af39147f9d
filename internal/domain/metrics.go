package domain

import (
	"math"
	"sort"
)

// MetricName identifies one of the four coverage metrics.
type MetricName string

const (
	MetricStatements MetricName = "statements"
	MetricBranches   MetricName = "branches"
	MetricFunctions  MetricName = "functions"
	MetricLines      MetricName = "lines"
)

// Metrics lists every metric in reporting order.
var Metrics = []MetricName{MetricStatements, MetricBranches, MetricFunctions, MetricLines}

// Metric summarizes covered vs total items of one kind.
type Metric struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Pct returns the coverage percentage rounded to two decimals. A metric with
// nothing to cover counts as fully covered.
func (m Metric) Pct() float64 {
	if m.Total == 0 {
		return 100
	}
	return math.Round(float64(m.Covered)/float64(m.Total)*10000) / 100
}

// Add returns the sum of two metrics.
func (m Metric) Add(o Metric) Metric {
	return Metric{Covered: m.Covered + o.Covered, Total: m.Total + o.Total}
}

// FileSummary holds all four metrics for one file or an aggregate.
type FileSummary struct {
	Statements Metric `json:"statements"`
	Branches   Metric `json:"branches"`
	Functions  Metric `json:"functions"`
	Lines      Metric `json:"lines"`
}

// Get returns the metric with the given name.
func (s FileSummary) Get(name MetricName) Metric {
	switch name {
	case MetricStatements:
		return s.Statements
	case MetricBranches:
		return s.Branches
	case MetricFunctions:
		return s.Functions
	default:
		return s.Lines
	}
}

// Add merges two summaries.
func (s FileSummary) Add(o FileSummary) FileSummary {
	return FileSummary{
		Statements: s.Statements.Add(o.Statements),
		Branches:   s.Branches.Add(o.Branches),
		Functions:  s.Functions.Add(o.Functions),
		Lines:      s.Lines.Add(o.Lines),
	}
}

// Percentages converts a summary into per-metric percentages.
func (s FileSummary) Percentages() Percentages {
	return Percentages{
		MetricStatements: s.Statements.Pct(),
		MetricBranches:   s.Branches.Pct(),
		MetricFunctions:  s.Functions.Pct(),
		MetricLines:      s.Lines.Pct(),
	}
}

// IsFull reports whether every metric is at 100%.
func (s FileSummary) IsFull() bool {
	for _, name := range Metrics {
		if s.Get(name).Pct() < 100 {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the file has nothing to cover at all.
func (s FileSummary) IsEmpty() bool {
	return s.Statements.Total == 0 && s.Branches.Total == 0 && s.Functions.Total == 0 && s.Lines.Total == 0
}

// Percentages maps each metric to its coverage percentage.
type Percentages map[MetricName]float64

// CoverageSummary is the controller's only view into provider results.
type CoverageSummary struct {
	Global FileSummary
	Files  map[string]FileSummary
}

// FilePercentages returns the percentages of every file.
func (s CoverageSummary) FilePercentages() map[string]Percentages {
	out := make(map[string]Percentages, len(s.Files))
	for file, summary := range s.Files {
		out[file] = summary.Percentages()
	}
	return out
}

// FileNames returns the summarized files in sorted order.
func (s CoverageSummary) FileNames() []string {
	names := make([]string, 0, len(s.Files))
	for name := range s.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCoverageSummary aggregates per-file summaries into a CoverageSummary.
func NewCoverageSummary(files map[string]FileSummary) CoverageSummary {
	var global FileSummary
	for _, s := range files {
		global = global.Add(s)
	}
	return CoverageSummary{Global: global, Files: files}
}

// CoverageResults is an opaque result set produced by a provider. Only the
// provider that produced it knows its structure.
type CoverageResults interface {
	Summary() CoverageSummary
}

// Round1 rounds a float64 to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Floor2 truncates a percentage to two decimals. The result never exceeds v.
func Floor2(v float64) float64 {
	f := math.Floor(v*100+1e-9) / 100
	if f > v {
		return v
	}
	return f
}
