package reporters

import (
	"encoding/xml"
	"io"
	"path/filepath"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

type cloverCoverage struct {
	XMLName   xml.Name      `xml:"coverage"`
	Generated int64         `xml:"generated,attr"`
	Clover    string        `xml:"clover,attr"`
	Project   cloverProject `xml:"project"`
}

type cloverProject struct {
	Timestamp int64         `xml:"timestamp,attr"`
	Name      string        `xml:"name,attr"`
	Metrics   cloverMetrics `xml:"metrics"`
	Files     []cloverFile  `xml:"file"`
}

type cloverMetrics struct {
	Statements          int `xml:"statements,attr"`
	CoveredStatements   int `xml:"coveredstatements,attr"`
	Conditionals        int `xml:"conditionals,attr"`
	CoveredConditionals int `xml:"coveredconditionals,attr"`
	Methods             int `xml:"methods,attr"`
	CoveredMethods      int `xml:"coveredmethods,attr"`
	Elements            int `xml:"elements,attr"`
	CoveredElements     int `xml:"coveredelements,attr"`
	Complexity          int `xml:"complexity,attr"`
	LOC                 int `xml:"loc,attr"`
	NCLOC               int `xml:"ncloc,attr"`
	Files               int `xml:"files,attr,omitempty"`
}

type cloverFile struct {
	Name    string        `xml:"name,attr"`
	Path    string        `xml:"path,attr"`
	Metrics cloverMetrics `xml:"metrics"`
	Lines   []cloverLine  `xml:"line"`
}

type cloverLine struct {
	Num   int    `xml:"num,attr"`
	Count int64  `xml:"count,attr"`
	Type  string `xml:"type,attr"`
}

func newCloverMetrics(s domain.FileSummary) cloverMetrics {
	return cloverMetrics{
		Statements:          s.Statements.Total,
		CoveredStatements:   s.Statements.Covered,
		Conditionals:        s.Branches.Total,
		CoveredConditionals: s.Branches.Covered,
		Methods:             s.Functions.Total,
		CoveredMethods:      s.Functions.Covered,
		Elements:            s.Statements.Total + s.Branches.Total + s.Functions.Total,
		CoveredElements:     s.Statements.Covered + s.Branches.Covered + s.Functions.Covered,
		LOC:                 s.Lines.Total,
		NCLOC:               s.Lines.Total,
	}
}

func renderClover(w io.Writer, r *report) error {
	ts := r.generated.Unix()
	doc := cloverCoverage{
		Generated: ts,
		Clover:    "3.2.0",
		Project: cloverProject{
			Timestamp: ts,
			Name:      "All files",
			Metrics:   newCloverMetrics(r.total),
		},
	}
	doc.Project.Metrics.Files = len(r.files)
	for _, f := range r.files {
		cf := cloverFile{
			Name:    filepath.Base(f.Path),
			Path:    f.Path,
			Metrics: newCloverMetrics(f.Summary),
		}
		fc := r.entries[f.Path]
		for _, line := range fc.SortedLines() {
			cf.Lines = append(cf.Lines, cloverLine{Num: line, Count: fc.Lines[line], Type: "stmt"})
		}
		doc.Project.Files = append(doc.Project.Files, cf)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
