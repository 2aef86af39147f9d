package reporters

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

var (
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true)
)

func renderText(w io.Writer, r *report) error {
	colorize := colorEnabled(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "File\t% Stmts\t% Branch\t% Funcs\t% Lines\tUncovered Line #s")
	writeRow(tw, r, "All files", r.total, "", colorize)
	for _, f := range r.files {
		writeRow(tw, r, f.Path, f.Summary, uncoveredLines(r, f.Path), colorize)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, r *report, name string, s domain.FileSummary, uncovered string, colorize bool) {
	cells := make([]string, 0, len(domain.Metrics))
	for _, metric := range domain.Metrics {
		pct := s.Get(metric).Pct()
		cell := strconv.FormatFloat(pct, 'f', 2, 64)
		if colorize {
			cell = styleFor(LevelFor(r.watermarks, metric, pct)).Render(cell)
		}
		cells = append(cells, cell)
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(cells, "\t"), uncovered)
}

func styleFor(l Level) lipgloss.Style {
	switch l {
	case LevelLow:
		return lowStyle
	case LevelMedium:
		return mediumStyle
	default:
		return highStyle
	}
}

// uncoveredLines compresses the file's missed lines into ranges like "3-5,9".
func uncoveredLines(r *report, path string) string {
	fc, ok := r.entries[path]
	if !ok {
		return ""
	}
	var (
		parts      []string
		start, end = -1, -1
	)
	flush := func() {
		if start < 0 {
			return
		}
		if start == end {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(end))
		}
	}
	for _, line := range fc.SortedLines() {
		if fc.Lines[line] > 0 {
			continue
		}
		if start >= 0 && line == end+1 {
			end = line
			continue
		}
		flush()
		start, end = line, line
	}
	flush()
	return strings.Join(parts, ",")
}

func renderTextSummary(w io.Writer, r *report) error {
	rule := strings.Repeat("=", 31)
	if _, err := fmt.Fprintf(w, "\n%s Coverage summary %s\n", rule, rule); err != nil {
		return err
	}
	colorize := colorEnabled(w)
	for _, metric := range domain.Metrics {
		m := r.total.Get(metric)
		line := fmt.Sprintf("%-12s : %.2f%% ( %d/%d )", label(metric), m.Pct(), m.Covered, m.Total)
		if colorize {
			line = styleFor(LevelFor(r.watermarks, metric, m.Pct())).Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, strings.Repeat("=", 80))
	return err
}

func label(metric domain.MetricName) string {
	s := string(metric)
	return strings.ToUpper(s[:1]) + s[1:]
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
