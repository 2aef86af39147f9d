package reporters

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

func renderLCOV(w io.Writer, r *report) error {
	bw := bufio.NewWriter(w)
	for _, f := range r.files {
		writeRecord(bw, r.entries[f.Path])
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fc *coverage.FileCoverage) {
	_, _ = fmt.Fprintln(w, "TN:")
	_, _ = fmt.Fprintf(w, "SF:%s\n", fc.Path)

	names := fc.SortedFunctions()
	hit := 0
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "FN:%d,%s\n", fc.Functions[name].Line, name)
	}
	for _, name := range names {
		fn := fc.Functions[name]
		if fn.Hits > 0 {
			hit++
		}
		_, _ = fmt.Fprintf(w, "FNDA:%d,%s\n", fn.Hits, name)
	}
	_, _ = fmt.Fprintf(w, "FNF:%d\nFNH:%d\n", len(names), hit)

	lines := fc.SortedLines()
	hit = 0
	for _, line := range lines {
		hits := fc.Lines[line]
		if hits > 0 {
			hit++
		}
		_, _ = fmt.Fprintf(w, "DA:%d,%d\n", line, hits)
	}
	_, _ = fmt.Fprintf(w, "LF:%d\nLH:%d\n", len(lines), hit)

	branches := sortedBranches(fc.Branches)
	hit = 0
	for _, b := range branches {
		hits := fc.Branches[b.key]
		if hits > 0 {
			hit++
		}
		_, _ = fmt.Fprintf(w, "BRDA:%d,%d,%d,%d\n", b.line, b.block, b.branch, hits)
	}
	_, _ = fmt.Fprintf(w, "BRF:%d\nBRH:%d\n", len(branches), hit)
	_, _ = fmt.Fprintln(w, "end_of_record")
}

type branchRef struct {
	key                 string
	line, block, branch int
}

func sortedBranches(branches map[string]int64) []branchRef {
	out := make([]branchRef, 0, len(branches))
	for key := range branches {
		parts := strings.Split(key, ".")
		if len(parts) != 3 {
			continue
		}
		ref := branchRef{key: key}
		ref.line, _ = strconv.Atoi(parts[0])
		ref.block, _ = strconv.Atoi(parts[1])
		ref.branch, _ = strconv.Atoi(parts[2])
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.line != b.line {
			return a.line < b.line
		}
		if a.block != b.block {
			return a.block < b.block
		}
		return a.branch < b.branch
	})
	return out
}
