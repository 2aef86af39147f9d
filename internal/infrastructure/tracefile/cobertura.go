package tracefile

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

type coberturaReport struct {
	XMLName  xml.Name           `xml:"coverage"`
	Packages []coberturaPackage `xml:"packages>package"`
}

type coberturaPackage struct {
	Name    string           `xml:"name,attr"`
	Classes []coberturaClass `xml:"classes>class"`
}

type coberturaClass struct {
	Name     string            `xml:"name,attr"`
	Filename string            `xml:"filename,attr"`
	Lines    []coberturaLine   `xml:"lines>line"`
	Methods  []coberturaMethod `xml:"methods>method"`
}

type coberturaMethod struct {
	Name  string          `xml:"name,attr"`
	Lines []coberturaLine `xml:"lines>line"`
}

type coberturaLine struct {
	Number            int    `xml:"number,attr"`
	Hits              int64  `xml:"hits,attr"`
	Branch            bool   `xml:"branch,attr"`
	ConditionCoverage string `xml:"condition-coverage,attr"`
}

// ParseCobertura reads a Cobertura XML report. Classes sharing a file are
// merged; method lines count towards the file's lines.
func ParseCobertura(r io.Reader) ([]*coverage.FileCoverage, error) {
	var report coberturaReport
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode cobertura xml: %w", err)
	}

	files := map[string]*coverage.FileCoverage{}
	var order []string
	for _, pkg := range report.Packages {
		for _, cls := range pkg.Classes {
			if cls.Filename == "" {
				continue
			}
			fc, ok := files[cls.Filename]
			if !ok {
				fc = coverage.NewFileCoverage(cls.Filename)
				files[cls.Filename] = fc
				order = append(order, cls.Filename)
			}
			// class and method line lists overlap; keep one count per line
			seen := map[int]int64{}
			for _, ln := range cls.Lines {
				addLine(fc, seen, ln)
			}
			for _, m := range cls.Methods {
				if len(m.Lines) > 0 {
					first := m.Lines[0]
					fc.AddFunction(methodName(cls.Name, m.Name), first.Number, first.Hits)
				}
				for _, ln := range m.Lines {
					addLine(fc, seen, ln)
				}
			}
		}
	}

	out := make([]*coverage.FileCoverage, 0, len(order))
	for _, name := range order {
		out = append(out, files[name])
	}
	return out, nil
}

func addLine(fc *coverage.FileCoverage, seen map[int]int64, ln coberturaLine) {
	if _, dup := seen[ln.Number]; dup {
		return
	}
	seen[ln.Number] = ln.Hits
	fc.AddLine(ln.Number, ln.Hits)
	fc.AddStatement(strconv.Itoa(ln.Number), 1, ln.Hits)
	if !ln.Branch {
		return
	}
	covered, total, ok := parseCondition(ln.ConditionCoverage)
	if !ok {
		return
	}
	for i := 0; i < total; i++ {
		var hits int64
		if i < covered {
			hits = 1
		}
		fc.AddBranch(ln.Number, 0, i, hits)
	}
}

// parseCondition reads "50% (1/2)".
func parseCondition(s string) (covered, total int, ok bool) {
	open := strings.IndexByte(s, '(')
	end := strings.IndexByte(s, ')')
	if open < 0 || end < open {
		return 0, 0, false
	}
	c, t, found := strings.Cut(s[open+1:end], "/")
	if !found {
		return 0, 0, false
	}
	covered, err1 := strconv.Atoi(strings.TrimSpace(c))
	total, err2 := strconv.Atoi(strings.TrimSpace(t))
	if err1 != nil || err2 != nil || covered > total {
		return 0, 0, false
	}
	return covered, total, true
}

func methodName(class, method string) string {
	if class == "" {
		return method
	}
	return class + "." + method
}
