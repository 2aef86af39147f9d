package tracefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

// ParseLCOV reads SF/FN/FNDA/DA/BRDA records. Summary lines (LF, LH, FNF,
// FNH, BRF, BRH) are recomputed from the detail records and ignored.
// Statements mirror lines since LCOV has no statement records.
func ParseLCOV(r io.Reader) ([]*coverage.FileCoverage, error) {
	var (
		out     []*coverage.FileCoverage
		current *coverage.FileCoverage
		fnLines = map[string]int{}
		lineNo  int
	)
	flush := func() {
		if current != nil {
			out = append(out, current)
		}
		current = nil
		fnLines = map[string]int{}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tag, value, _ := strings.Cut(line, ":")

		if tag == "SF" {
			flush()
			current = coverage.NewFileCoverage(value)
			continue
		}
		if line == "end_of_record" {
			flush()
			continue
		}
		if current == nil {
			// TN and anything else outside a record
			continue
		}

		switch tag {
		case "FN":
			// FN:<line>,<name>
			num, name, ok := strings.Cut(value, ",")
			if !ok {
				return nil, fmt.Errorf("line %d: invalid FN record", lineNo)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid FN line: %w", lineNo, err)
			}
			fnLines[name] = n
			current.AddFunction(name, n, 0)
		case "FNDA":
			// FNDA:<hits>,<name>
			num, name, ok := strings.Cut(value, ",")
			if !ok {
				return nil, fmt.Errorf("line %d: invalid FNDA record", lineNo)
			}
			hits, err := parseHits(num)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.AddFunction(name, fnLines[name], hits)
		case "DA":
			// DA:<line>,<hits>[,<checksum>]
			parts := strings.Split(value, ",")
			if len(parts) < 2 {
				return nil, fmt.Errorf("line %d: invalid DA record", lineNo)
			}
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid DA line: %w", lineNo, err)
			}
			hits, err := parseHits(parts[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.AddLine(n, hits)
			current.AddStatement(strconv.Itoa(n), 1, hits)
		case "BRDA":
			// BRDA:<line>,<block>,<branch>,<hits|->
			parts := strings.Split(value, ",")
			if len(parts) != 4 {
				return nil, fmt.Errorf("line %d: invalid BRDA record", lineNo)
			}
			var nums [3]int
			for i := range nums {
				n, err := strconv.Atoi(parts[i])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid BRDA field: %w", lineNo, err)
				}
				nums[i] = n
			}
			hits, err := parseHits(parts[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.AddBranch(nums[0], nums[1], nums[2], hits)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lcov: %w", err)
	}
	// a missing trailing end_of_record still yields the last file
	flush()
	return out, nil
}

// parseHits accepts "-" for never-evaluated branches.
func parseHits(s string) (int64, error) {
	if s == "-" {
		return 0, nil
	}
	hits, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hit count %q", s)
	}
	return hits, nil
}
