package domain

import "testing"

func TestMetricPct(t *testing.T) {
	if got := (Metric{Covered: 1, Total: 3}).Pct(); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
	if got := (Metric{}).Pct(); got != 100 {
		t.Fatalf("expected empty metric to be 100, got %v", got)
	}
}

func TestCoverageSummary(t *testing.T) {
	summary := NewCoverageSummary(map[string]FileSummary{
		"b.go": {Lines: Metric{Covered: 3, Total: 4}, Functions: Metric{Covered: 1, Total: 1}},
		"a.go": {Lines: Metric{Covered: 1, Total: 4}},
	})
	if got := summary.Global.Lines; got != (Metric{Covered: 4, Total: 8}) {
		t.Fatalf("unexpected global lines %+v", got)
	}
	if names := summary.FileNames(); names[0] != "a.go" || names[1] != "b.go" {
		t.Fatalf("expected sorted names, got %v", names)
	}
	pct := summary.FilePercentages()
	if pct["b.go"][MetricLines] != 75 {
		t.Fatalf("expected 75, got %v", pct["b.go"][MetricLines])
	}
	if summary.Files["b.go"].Functions.Pct() != 100 {
		t.Fatal("expected functions to be full")
	}
}

func TestFileSummaryFlags(t *testing.T) {
	full := FileSummary{Lines: Metric{Covered: 2, Total: 2}}
	if !full.IsFull() {
		t.Error("expected full summary")
	}
	if (FileSummary{Lines: Metric{Covered: 1, Total: 2}}).IsFull() {
		t.Error("expected partial summary not to be full")
	}
	if !(FileSummary{}).IsEmpty() {
		t.Error("expected zero summary to be empty")
	}
}

func TestFloor2(t *testing.T) {
	cases := map[float64]float64{
		85:      85,
		66.6666: 66.66,
		0.29:    0.29,
		99.999:  99.99,
	}
	for in, want := range cases {
		if got := Floor2(in); got != want {
			t.Errorf("Floor2(%v) = %v, want %v", in, got, want)
		}
		if Floor2(in) > in {
			t.Errorf("Floor2(%v) exceeds input", in)
		}
	}
}
