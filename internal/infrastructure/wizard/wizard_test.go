package wizard

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

var testProviders = []string{"gocover", "lcov"}

func TestInitWizardModelAdjustsDefaults(t *testing.T) {
	model := newInitWizardModel(minimalOptions(), testProviders)

	model.cursor = 1
	model.adjustSelection(5) // adjust default threshold
	if model.defaultMin != 75 {
		t.Fatalf("expected default 75, got %.0f", model.defaultMin)
	}
	if model.metrics[0].min != 75 {
		t.Fatalf("expected metric to follow default, got %.0f", model.metrics[0].min)
	}

	model.cursor = fixedRows
	model.adjustSelection(5) // adjust statements
	if !model.metrics[0].override {
		t.Fatalf("expected override flag set")
	}
	if model.metrics[0].min != 80 {
		t.Fatalf("expected statements 80, got %.0f", model.metrics[0].min)
	}
	model.cursor = 1
	model.adjustSelection(-10)
	if model.metrics[0].min != 80 || model.metrics[3].min != 65 {
		t.Fatalf("expected only non-customized metrics to move, got %+v", model.metrics)
	}
}

func TestInitWizardReadsExistingThresholds(t *testing.T) {
	opts := minimalOptions()
	branches := 50.0
	opts.Thresholds.Global.Branches = &branches

	model := newInitWizardModel(opts, testProviders)
	if model.defaultMin != 70 {
		t.Fatalf("expected default from lines, got %.0f", model.defaultMin)
	}
	if !model.metrics[1].override || model.metrics[1].min != 50 {
		t.Fatalf("expected branches override 50, got %+v", model.metrics[1])
	}
	if model.providers[model.provider] != "lcov" {
		t.Fatalf("expected configured provider selected")
	}
}

func TestInitWizardCyclesProviders(t *testing.T) {
	model := newInitWizardModel(domain.CoverageOptions{}, testProviders)
	model.adjustSelection(5)
	if model.providers[model.provider] != "lcov" {
		t.Fatalf("expected lcov, got %s", model.providers[model.provider])
	}
	model.adjustSelection(5)
	if model.providers[model.provider] != "gocover" {
		t.Fatalf("expected wrap to gocover")
	}
	model.adjustSelection(-5)
	if model.providers[model.provider] != "lcov" {
		t.Fatalf("expected wrap backwards to lcov")
	}
}

func TestInitWizardModelOptionsOutput(t *testing.T) {
	model := newInitWizardModel(minimalOptions(), testProviders)
	model.cursor = fixedRows + 3
	model.adjustSelection(5) // lines

	opts := model.toOptions()
	if *opts.Provider != "lcov" {
		t.Fatalf("unexpected provider %s", *opts.Provider)
	}
	if opts.Enabled == nil || !*opts.Enabled {
		t.Fatalf("expected coverage enabled")
	}
	th := opts.Thresholds
	if *th.Global.Lines != 75 || *th.Global.Statements != 70 {
		t.Fatalf("unexpected thresholds %+v", th.Global)
	}
	if _, ok := th.Globs["src/core/**"]; !ok {
		t.Fatalf("expected glob thresholds preserved")
	}
	if !th.AutoUpdate {
		t.Fatalf("expected autoUpdate preserved")
	}
}

func TestInitWizardCollapsesTo100(t *testing.T) {
	model := newInitWizardModel(domain.CoverageOptions{}, testProviders)
	model.cursor = 1
	model.adjustSelection(50)
	opts := model.toOptions()
	if !opts.Thresholds.Global.All100 || opts.Thresholds.Global.Lines != nil {
		t.Fatalf("expected the 100 shortcut, got %+v", opts.Thresholds.Global)
	}
}

func TestRunInitWizardCompletes(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("\r\r\r")
	opts, confirmed, err := runInitWizard(minimalOptions(), testProviders, &out, stdin)
	if err != nil {
		t.Fatalf("wizard error: %v", err)
	}
	if !confirmed {
		t.Fatalf("expected wizard to confirm")
	}
	if *opts.Thresholds.Global.Lines != 70 {
		t.Fatalf("unexpected lines threshold")
	}
}

func TestInitWizardMoveCursor(t *testing.T) {
	model := newInitWizardModel(minimalOptions(), testProviders)
	model.moveCursor(1)
	if model.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", model.cursor)
	}
	model.moveCursor(-5)
	if model.cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", model.cursor)
	}
	model.moveCursor(20)
	if want := fixedRows + len(model.metrics) - 1; model.cursor != want {
		t.Fatalf("expected cursor at max %d, got %d", want, model.cursor)
	}
}

func TestInitWizardClamp(t *testing.T) {
	if clamp(-5, 0, 10) != 0 {
		t.Fatalf("expected clamp to min")
	}
	if clamp(20, 0, 10) != 10 {
		t.Fatalf("expected clamp to max")
	}
	if clamp(5, 0, 10) != 5 {
		t.Fatalf("expected clamp to keep value")
	}
}

func TestInitWizardUpdateTransitions(t *testing.T) {
	model := newInitWizardModel(minimalOptions(), testProviders)
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateEdit {
		t.Fatalf("expected edit state, got %d", model.state)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model.Update(tea.KeyMsg{Type: tea.KeyRight})
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateConfirm {
		t.Fatalf("expected confirm state, got %d", model.state)
	}
	if model.defaultMin != 75 {
		t.Fatalf("expected default raised to 75, got %.0f", model.defaultMin)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.state != stateEdit {
		t.Fatalf("expected edit state on esc, got %d", model.state)
	}
}

func TestInitWizardViewConfirmShowsExcludes(t *testing.T) {
	model := newInitWizardModel(minimalOptions(), testProviders)
	model.state = stateConfirm
	view := model.View()
	if !strings.Contains(view, "Configured exclusions") || !strings.Contains(view, "gen/**") {
		t.Fatalf("expected exclusion text in view")
	}
	if !strings.Contains(view, "Provider: lcov") {
		t.Fatalf("expected provider in view")
	}
}

func minimalOptions() domain.CoverageOptions {
	provider := "lcov"
	lines := 70.0
	return domain.CoverageOptions{
		Provider: &provider,
		Exclude:  []string{"gen/**"},
		Thresholds: &domain.Thresholds{
			Global:     domain.MetricThresholds{Lines: &lines},
			AutoUpdate: true,
			Globs:      map[string]domain.MetricThresholds{"src/core/**": {All100: true}},
		},
	}
}
