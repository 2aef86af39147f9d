// Package wizard runs the interactive init flow that picks a provider and
// coverage thresholds.
package wizard

import (
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/coverkit/internal/domain"
)

type (
	wizardState int

	initWizardModel struct {
		state      wizardState
		providers  []string
		provider   int
		defaultMin float64
		metrics    []wizardMetric
		cursor     int
		confirmed  bool
		aborted    bool
		base       domain.CoverageOptions
	}

	wizardMetric struct {
		name     domain.MetricName
		min      float64
		override bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// rows before the metric rows: provider and default threshold.
const fixedRows = 2

func Run(opts domain.CoverageOptions, providers []string, stdout io.Writer, stdin io.Reader) (domain.CoverageOptions, bool, error) {
	return runInitWizard(opts, providers, stdout, stdin)
}

func runInitWizard(opts domain.CoverageOptions, providers []string, stdout io.Writer, stdin io.Reader) (domain.CoverageOptions, bool, error) {
	model := newInitWizardModel(opts, providers)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return opts, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return opts, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return opts, false, nil
	}
	return finalModel.toOptions(), true, nil
}

func newInitWizardModel(opts domain.CoverageOptions, providers []string) *initWizardModel {
	if len(providers) == 0 {
		providers = []string{string(domain.ProviderGoCover), string(domain.ProviderLCOV)}
	}
	provider := 0
	if opts.Provider != nil {
		if i := slices.Index(providers, *opts.Provider); i >= 0 {
			provider = i
		}
	}

	var global domain.MetricThresholds
	if opts.Thresholds != nil {
		global = opts.Thresholds.Global.Expand()
	}
	defaultMin := 80.0
	if v := global.Lines; v != nil {
		defaultMin = *v
	}
	metrics := make([]wizardMetric, len(domain.Metrics))
	for i, name := range domain.Metrics {
		metrics[i] = wizardMetric{name: name, min: defaultMin}
		if v := global.Get(name); v != nil && *v != defaultMin {
			metrics[i].min = *v
			metrics[i].override = true
		}
	}
	return &initWizardModel{
		state:      stateIntro,
		providers:  providers,
		provider:   provider,
		defaultMin: defaultMin,
		metrics:    metrics,
		base:       opts,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit {
				m.moveCursor(-1)
			}
		case "down":
			if m.state == stateEdit {
				m.moveCursor(1)
			}
		case "left", "-":
			if m.state == stateEdit {
				m.adjustSelection(-5)
			}
		case "right", "+":
			if m.state == stateEdit {
				m.adjustSelection(5)
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	last := fixedRows + len(m.metrics) - 1
	m.cursor = int(clamp(float64(m.cursor+delta), 0, float64(last)))
}

func (m *initWizardModel) adjustSelection(delta float64) {
	switch m.cursor {
	case 0:
		m.cycleProvider(delta)
	case 1:
		m.adjustDefault(delta)
	default:
		m.adjustMetric(m.cursor-fixedRows, delta)
	}
}

func (m *initWizardModel) cycleProvider(delta float64) {
	step := 1
	if delta < 0 {
		step = -1
	}
	n := len(m.providers)
	m.provider = ((m.provider+step)%n + n) % n
}

func (m *initWizardModel) adjustDefault(delta float64) {
	m.defaultMin = clamp(m.defaultMin+delta, 0, 100)
	for i := range m.metrics {
		if !m.metrics[i].override {
			m.metrics[i].min = m.defaultMin
		}
	}
}

func (m *initWizardModel) adjustMetric(index int, delta float64) {
	if index < 0 || index >= len(m.metrics) {
		return
	}
	m.metrics[index].min = clamp(m.metrics[index].min+delta, 0, 100)
	m.metrics[index].override = true
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncoverkit init wizard\n\n")
	fmt.Fprintf(&b, "The wizard picks a coverage provider and the global thresholds.\n\n")
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel. Default threshold is %.0f%%.\n", m.defaultMin)
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview provider and thresholds\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values.\n")
	fmt.Fprintf(&b, "%sProvider: %s\n", m.indicator(0), m.providers[m.provider])
	fmt.Fprintf(&b, "%sDefault threshold (affects non-customized metrics): %.0f%%\n\n", m.indicator(1), m.defaultMin)
	fmt.Fprintf(&b, "Metrics:\n")
	for idx, metric := range m.metrics {
		custom := ""
		if metric.override {
			custom = " (custom)"
		}
		fmt.Fprintf(&b, "%s%s: %.0f%%%s\n", m.indicator(idx+fixedRows), metric.name, metric.min, custom)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) indicator(row int) string {
	if m.cursor == row {
		return "> "
	}
	return "  "
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Provider: %s\n", m.providers[m.provider])
	fmt.Fprintf(&b, "Thresholds:\n")
	for _, metric := range m.metrics {
		fmt.Fprintf(&b, "  %s: %.0f%%\n", metric.name, metric.min)
	}
	if len(m.base.Exclude) > 0 {
		fmt.Fprintf(&b, "\nConfigured exclusions:\n")
		for _, pattern := range m.base.Exclude {
			fmt.Fprintf(&b, "  - %s\n", pattern)
		}
	} else {
		fmt.Fprintf(&b, "\nDefault exclusions apply.\n")
	}
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

// toOptions returns the base options with the chosen provider and global
// thresholds. Glob thresholds and flags of the base are kept.
func (m *initWizardModel) toOptions() domain.CoverageOptions {
	opts := m.base
	provider := m.providers[m.provider]
	opts.Provider = &provider
	if opts.Enabled == nil {
		enabled := true
		opts.Enabled = &enabled
	}

	var th domain.Thresholds
	if m.base.Thresholds != nil {
		th = m.base.Thresholds.Clone()
	}
	th.Global = domain.MetricThresholds{}
	for _, metric := range m.metrics {
		th.Global.Set(metric.name, metric.min)
	}
	if allAt(th.Global, 100) {
		th.Global = domain.MetricThresholds{All100: true}
	}
	opts.Thresholds = &th
	return opts
}

func allAt(mt domain.MetricThresholds, v float64) bool {
	for _, name := range domain.Metrics {
		if p := mt.Get(name); p == nil || *p != v {
			return false
		}
	}
	return true
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
