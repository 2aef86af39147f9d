package reporters

import (
	"html/template"
	"io"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Coverage Report</title>
    <style>
        :root {
            --high: #16A34A;
            --low: #DC2626;
            --medium: #CA8A04;
            --bg: #0f172a;
            --card: #1e293b;
            --text: #f8fafc;
            --muted: #94a3b8;
            --border: #334155;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { font-size: 2rem; margin-bottom: 0.5rem; font-weight: 600; }
        .timestamp { color: var(--muted); font-size: 0.875rem; margin-bottom: 2rem; }
        .summary { display: flex; gap: 1rem; margin-bottom: 2rem; }
        .summary-card {
            background: var(--card);
            border-radius: 0.5rem;
            padding: 1rem 1.5rem;
            border: 1px solid var(--border);
        }
        .summary-card.low { border-left: 4px solid var(--low); }
        .summary-card.medium { border-left: 4px solid var(--medium); }
        .summary-card.high { border-left: 4px solid var(--high); }
        .summary-label {
            font-size: 0.75rem;
            text-transform: uppercase;
            color: var(--muted);
            letter-spacing: 0.05em;
        }
        .summary-value { font-size: 1.5rem; font-weight: 600; }
        .summary-detail { color: var(--muted); font-size: 0.75rem; }
        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--card);
            border-radius: 0.5rem;
            overflow: hidden;
        }
        th, td { padding: 0.75rem 1rem; text-align: left; border-bottom: 1px solid var(--border); }
        th {
            background: rgba(0,0,0,0.2);
            font-weight: 600;
            font-size: 0.75rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--muted);
        }
        tr:last-child td { border-bottom: none; }
        td.low { color: var(--low); }
        td.medium { color: var(--medium); }
        td.high { color: var(--high); }
        .progress-bar { width: 100%; height: 6px; background: var(--border); border-radius: 3px; overflow: hidden; }
        .progress-fill { height: 100%; border-radius: 3px; }
        .progress-fill.low { background: var(--low); }
        .progress-fill.medium { background: var(--medium); }
        .progress-fill.high { background: var(--high); }
    </style>
</head>
<body>
    <div class="container">
        <h1>Coverage Report</h1>
        <p class="timestamp">Generated {{.Timestamp}}</p>

        <div class="summary">
            {{range .Total}}
            <div class="summary-card {{.Level}}">
                <div class="summary-label">{{.Metric}}</div>
                <div class="summary-value">{{printf "%.2f" .Pct}}%</div>
                <div class="summary-detail">{{.Covered}}/{{.Total}}</div>
            </div>
            {{end}}
        </div>

        <table>
            <thead>
                <tr>
                    <th>File</th>
                    <th>Coverage</th>
                    <th>Statements</th>
                    <th>Branches</th>
                    <th>Functions</th>
                    <th>Lines</th>
                </tr>
            </thead>
            <tbody>
                {{range .Files}}
                <tr>
                    <td>{{.Path}}</td>
                    <td>
                        <div class="progress-bar">
                            <div class="progress-fill {{.Lines.Level}}" style="width: {{printf "%.0f" .Lines.Pct}}%"></div>
                        </div>
                    </td>
                    {{range .Cells}}
                    <td class="{{.Level}}">{{printf "%.2f" .Pct}}% <span class="summary-detail">{{.Covered}}/{{.Total}}</span></td>
                    {{end}}
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
</body>
</html>`

var htmlPage = template.Must(template.New("report").Parse(htmlTemplate))

type htmlCell struct {
	Metric  domain.MetricName
	Pct     float64
	Covered int
	Total   int
	Level   Level
}

type htmlFile struct {
	Path  string
	Lines htmlCell
	Cells []htmlCell
}

type htmlData struct {
	Timestamp string
	Total     []htmlCell
	Files     []htmlFile
}

func htmlCells(r *report, s domain.FileSummary) []htmlCell {
	cells := make([]htmlCell, 0, len(domain.Metrics))
	for _, metric := range domain.Metrics {
		m := s.Get(metric)
		cells = append(cells, htmlCell{
			Metric:  metric,
			Pct:     m.Pct(),
			Covered: m.Covered,
			Total:   m.Total,
			Level:   LevelFor(r.watermarks, metric, m.Pct()),
		})
	}
	return cells
}

func renderHTML(w io.Writer, r *report) error {
	data := htmlData{
		Timestamp: r.generated.Format("2006-01-02 15:04:05"),
		Total:     htmlCells(r, r.total),
	}
	for _, f := range r.files {
		cells := htmlCells(r, f.Summary)
		data.Files = append(data.Files, htmlFile{Path: f.Path, Lines: cells[len(cells)-1], Cells: cells})
	}
	return htmlPage.Execute(w, data)
}
