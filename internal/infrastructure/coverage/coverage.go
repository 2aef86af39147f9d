// Package coverage holds the per-file hit counters shared by the built-in
// providers. Hit counts are summed on merge, so merging is commutative and
// associative.
package coverage

import (
	"sort"
	"strconv"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// Statement is a counted statement block. Weight is the number of
// statements in the block.
type Statement struct {
	Weight int   `json:"weight"`
	Hits   int64 `json:"hits"`
}

// Function is a named function starting at Line.
type Function struct {
	Line int   `json:"line"`
	Hits int64 `json:"hits"`
}

// FileCoverage holds the counters of one source file. Statement keys are
// provider-defined span ids; branch keys are "line.block.branch".
type FileCoverage struct {
	Path       string               `json:"path"`
	Statements map[string]Statement `json:"statements,omitempty"`
	Lines      map[int]int64        `json:"lines,omitempty"`
	Functions  map[string]Function  `json:"functions,omitempty"`
	Branches   map[string]int64     `json:"branches,omitempty"`
}

// NewFileCoverage returns an empty entry for path.
func NewFileCoverage(path string) *FileCoverage {
	return &FileCoverage{
		Path:       path,
		Statements: map[string]Statement{},
		Lines:      map[int]int64{},
		Functions:  map[string]Function{},
		Branches:   map[string]int64{},
	}
}

// AddStatement records hits for a statement block.
func (f *FileCoverage) AddStatement(key string, weight int, hits int64) {
	s := f.Statements[key]
	if weight > s.Weight {
		s.Weight = weight
	}
	s.Hits += hits
	f.Statements[key] = s
}

// AddLine records hits for a line.
func (f *FileCoverage) AddLine(line int, hits int64) {
	f.Lines[line] += hits
}

// AddFunction records hits for a function.
func (f *FileCoverage) AddFunction(name string, line int, hits int64) {
	fn := f.Functions[name]
	if fn.Line == 0 {
		fn.Line = line
	}
	fn.Hits += hits
	f.Functions[name] = fn
}

// AddBranch records hits for one branch outcome.
func (f *FileCoverage) AddBranch(line, block, branch int, hits int64) {
	f.Branches[BranchKey(line, block, branch)] += hits
}

// BranchKey builds the key of a branch outcome.
func BranchKey(line, block, branch int) string {
	return strconv.Itoa(line) + "." + strconv.Itoa(block) + "." + strconv.Itoa(branch)
}

// Merge adds the counters of other into f.
func (f *FileCoverage) Merge(other *FileCoverage) {
	for k, s := range other.Statements {
		f.AddStatement(k, s.Weight, s.Hits)
	}
	for l, h := range other.Lines {
		f.AddLine(l, h)
	}
	for name, fn := range other.Functions {
		f.AddFunction(name, fn.Line, fn.Hits)
	}
	for k, h := range other.Branches {
		f.Branches[k] += h
	}
}

// Clone returns a deep copy.
func (f *FileCoverage) Clone() *FileCoverage {
	out := NewFileCoverage(f.Path)
	out.Merge(f)
	return out
}

// Summary converts the counters into covered/total metrics.
func (f *FileCoverage) Summary() domain.FileSummary {
	var s domain.FileSummary
	for _, st := range f.Statements {
		s.Statements.Total += st.Weight
		if st.Hits > 0 {
			s.Statements.Covered += st.Weight
		}
	}
	for _, h := range f.Lines {
		s.Lines.Total++
		if h > 0 {
			s.Lines.Covered++
		}
	}
	for _, fn := range f.Functions {
		s.Functions.Total++
		if fn.Hits > 0 {
			s.Functions.Covered++
		}
	}
	for _, h := range f.Branches {
		s.Branches.Total++
		if h > 0 {
			s.Branches.Covered++
		}
	}
	return s
}

// SortedLines returns the line numbers in ascending order.
func (f *FileCoverage) SortedLines() []int {
	lines := make([]int, 0, len(f.Lines))
	for l := range f.Lines {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// SortedFunctions returns function names ordered by line, then name.
func (f *FileCoverage) SortedFunctions() []string {
	names := make([]string, 0, len(f.Functions))
	for n := range f.Functions {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := f.Functions[names[i]], f.Functions[names[j]]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return names[i] < names[j]
	})
	return names
}

// Map is a set of file entries keyed by file id. It implements
// domain.CoverageResults. A Map is not safe for concurrent use.
type Map struct {
	files map[string]*FileCoverage
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{files: map[string]*FileCoverage{}}
}

// Add merges an entry into the map, keyed by its path.
func (m *Map) Add(fc *FileCoverage) {
	if existing, ok := m.files[fc.Path]; ok {
		existing.Merge(fc)
		return
	}
	m.files[fc.Path] = fc.Clone()
}

// Merge adds every entry of other into m.
func (m *Map) Merge(other *Map) {
	for _, fc := range other.files {
		m.Add(fc)
	}
}

// Has reports whether path has an entry.
func (m *Map) Has(path string) bool {
	_, ok := m.files[path]
	return ok
}

// Get returns the entry for path.
func (m *Map) Get(path string) (*FileCoverage, bool) {
	fc, ok := m.files[path]
	return fc, ok
}

// Len returns the number of files.
func (m *Map) Len() int {
	return len(m.files)
}

// Paths returns the file ids in sorted order.
func (m *Map) Paths() []string {
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Entries returns the entries in path order.
func (m *Map) Entries() []*FileCoverage {
	out := make([]*FileCoverage, 0, len(m.files))
	for _, p := range m.Paths() {
		out = append(out, m.files[p])
	}
	return out
}

// Summary implements domain.CoverageResults.
func (m *Map) Summary() domain.CoverageSummary {
	files := make(map[string]domain.FileSummary, len(m.files))
	for p, fc := range m.files {
		files[p] = fc.Summary()
	}
	return domain.NewCoverageSummary(files)
}
