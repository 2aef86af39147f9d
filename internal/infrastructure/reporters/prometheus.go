package reporters

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

const metricsNamespace = "coverkit"

// writePrometheus writes totals in the node_exporter textfile format so
// CI hosts can scrape coverage trends. The perFile option adds a series
// per reported file.
func writePrometheus(path string, r *report, entry domain.ReporterEntry) error {
	reg := prometheus.NewRegistry()

	percent := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "coverage_percent",
		Help:      "Covered percentage per metric across all files.",
	}, []string{"metric"})
	covered := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "coverage_covered",
		Help:      "Covered items per metric across all files.",
	}, []string{"metric"})
	total := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "coverage_total",
		Help:      "Coverable items per metric across all files.",
	}, []string{"metric"})
	files := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "coverage_files",
		Help:      "Files in the report.",
	})
	generated := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "coverage_generated_timestamp_seconds",
		Help:      "Unix time the report was generated.",
	})
	reg.MustRegister(percent, covered, total, files, generated)

	for _, metric := range domain.Metrics {
		m := r.total.Get(metric)
		label := string(metric)
		percent.WithLabelValues(label).Set(m.Pct())
		covered.WithLabelValues(label).Set(float64(m.Covered))
		total.WithLabelValues(label).Set(float64(m.Total))
	}
	files.Set(float64(len(r.files)))
	generated.Set(float64(r.generated.Unix()))

	if entry.BoolOption("perFile", false) {
		filePercent := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "file_coverage_percent",
			Help:      "Covered percentage per file and metric.",
		}, []string{"file", "metric"})
		reg.MustRegister(filePercent)
		for _, f := range r.files {
			for _, metric := range domain.Metrics {
				filePercent.WithLabelValues(f.Path, string(metric)).Set(f.Summary.Get(metric).Pct())
			}
		}
	}

	return prometheus.WriteToTextfile(path, reg)
}
