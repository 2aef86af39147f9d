package reporters

import (
	"encoding/json"
	"io"

	"github.com/felixgeelhaar/coverkit/internal/domain"
	"github.com/felixgeelhaar/coverkit/internal/infrastructure/coverage"
)

func renderJSON(w io.Writer, r *report) error {
	payload := make(map[string]*coverage.FileCoverage, len(r.files))
	for _, f := range r.files {
		payload[f.Path] = r.entries[f.Path]
	}
	return encode(w, payload)
}

type metricJSON struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Skipped int     `json:"skipped"`
	Pct     float64 `json:"pct"`
}

type summaryJSON map[domain.MetricName]metricJSON

func newSummaryJSON(s domain.FileSummary) summaryJSON {
	out := make(summaryJSON, len(domain.Metrics))
	for _, metric := range domain.Metrics {
		m := s.Get(metric)
		out[metric] = metricJSON{Total: m.Total, Covered: m.Covered, Pct: m.Pct()}
	}
	return out
}

func renderJSONSummary(w io.Writer, r *report) error {
	payload := make(map[string]summaryJSON, len(r.files)+1)
	payload["total"] = newSummaryJSON(r.total)
	for _, f := range r.files {
		payload[f.Path] = newSummaryJSON(f.Summary)
	}
	return encode(w, payload)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
