package reporters

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

// WriteEvaluation prints threshold violations and automatic threshold
// updates as tables. Nothing is written for a clean evaluation.
func WriteEvaluation(w io.Writer, result domain.EvaluationResult) {
	if len(result.Violations) > 0 {
		_, _ = fmt.Fprintln(w, "\nCoverage thresholds not met:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Scope", "File", "Metric", "Actual", "Required", "Shortfall"})
		table.SetBorder(false)
		table.SetColumnAlignment([]int{
			tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		})
		for _, v := range result.Violations {
			file := v.File
			if file == "" {
				file = "-"
			}
			table.Append([]string{
				v.Scope,
				file,
				string(v.Metric),
				fmt.Sprintf("%.2f%%", v.Actual),
				fmt.Sprintf("%.2f%%", v.Required),
				fmt.Sprintf("%.2f", v.Shortfall()),
			})
		}
		table.Render()
	}
	if len(result.Updates) > 0 {
		_, _ = fmt.Fprintln(w, "\nThresholds raised:")
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Scope", "Metric", "Previous", "Updated"})
		table.SetBorder(false)
		for _, u := range result.Updates {
			table.Append([]string{
				u.Scope,
				string(u.Metric),
				fmt.Sprintf("%.2f", u.Previous),
				fmt.Sprintf("%.2f", u.Updated),
			})
		}
		table.Render()
	}
}
