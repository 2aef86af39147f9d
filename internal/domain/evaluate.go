package domain

import "sort"

// ScopeGlobal names the global threshold scope. Glob scopes use the pattern.
const ScopeGlobal = "global"

// Violation is one metric below its required percentage. File is empty
// when the aggregate was checked.
type Violation struct {
	Scope    string     `json:"scope"`
	File     string     `json:"file,omitempty"`
	Metric   MetricName `json:"metric"`
	Actual   float64    `json:"actual"`
	Required float64    `json:"required"`
}

// Shortfall returns the percentage points missing.
func (v Violation) Shortfall() float64 {
	return Round1(v.Required - v.Actual)
}

// ThresholdUpdate is a raised threshold to persist back into configuration.
type ThresholdUpdate struct {
	Scope    string     `json:"scope"`
	Metric   MetricName `json:"metric"`
	Previous float64    `json:"previous"`
	Updated  float64    `json:"updated"`
}

// EvaluationResult lists every violation and auto-update.
type EvaluationResult struct {
	Violations []Violation       `json:"violations"`
	Updates    []ThresholdUpdate `json:"updates,omitempty"`
}

// Failed reports whether any threshold was violated.
func (r EvaluationResult) Failed() bool {
	return len(r.Violations) > 0
}

type target struct {
	file string
	pct  Percentages
}

// Evaluate compares coverage percentages against thresholds. The global
// scope is checked first, then every glob scope in sorted pattern order.
func Evaluate(th Thresholds, perFile map[string]Percentages, global Percentages) EvaluationResult {
	result := EvaluationResult{Violations: []Violation{}}
	files := make([]string, 0, len(perFile))
	for f := range perFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var globalTargets []target
	if th.PerFile {
		for _, f := range files {
			globalTargets = append(globalTargets, target{file: f, pct: perFile[f]})
		}
	} else {
		globalTargets = []target{{pct: global}}
	}
	evaluateScope(&result, ScopeGlobal, th.Global.Expand(), globalTargets, th.AutoUpdate)

	for _, pattern := range th.GlobPatterns() {
		var targets []target
		for _, f := range files {
			if MatchGlob(pattern, f) {
				targets = append(targets, target{file: f, pct: perFile[f]})
			}
		}
		evaluateScope(&result, pattern, th.Globs[pattern].Expand(), targets, th.AutoUpdate)
	}
	return result
}

func evaluateScope(result *EvaluationResult, scope string, mt MetricThresholds, targets []target, autoUpdate bool) {
	if len(targets) == 0 {
		return
	}
	for _, metric := range Metrics {
		required := mt.Get(metric)
		if required == nil {
			continue
		}
		if autoUpdate {
			if observed, ok := minObserved(targets, metric); ok && Floor2(observed) > *required {
				result.Updates = append(result.Updates, ThresholdUpdate{
					Scope:    scope,
					Metric:   metric,
					Previous: *required,
					Updated:  Floor2(observed),
				})
				continue
			}
		}
		for _, t := range targets {
			actual, ok := t.pct[metric]
			if !ok {
				continue
			}
			if actual < *required {
				result.Violations = append(result.Violations, Violation{
					Scope:    scope,
					File:     t.file,
					Metric:   metric,
					Actual:   actual,
					Required: *required,
				})
			}
		}
	}
}

func minObserved(targets []target, metric MetricName) (float64, bool) {
	found := false
	var lowest float64
	for _, t := range targets {
		v, ok := t.pct[metric]
		if !ok {
			continue
		}
		if !found || v < lowest {
			lowest = v
			found = true
		}
	}
	return lowest, found
}

// ApplyUpdates returns a copy of th with every update applied. An update to
// a scope using the 100 shortcut is ignored since nothing exceeds 100.
func ApplyUpdates(th Thresholds, updates []ThresholdUpdate) Thresholds {
	out := th.Clone()
	for _, u := range updates {
		if u.Scope == ScopeGlobal {
			if !out.Global.All100 {
				out.Global.Set(u.Metric, u.Updated)
			}
			continue
		}
		mt, ok := out.Globs[u.Scope]
		if !ok || mt.All100 {
			continue
		}
		mt.Set(u.Metric, u.Updated)
		out.Globs[u.Scope] = mt
	}
	return out
}
