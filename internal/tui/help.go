package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	sections := []string{
		cardTitleStyle.Render("Keyboard Shortcuts"),
		m.renderSection("Navigation", []keyHelp{
			{"1", "Race predictions"},
			{"2", "Training load"},
			{"3", "Personal bests & races"},
			{"4 or s", "Sync screen"},
			{"?", "Help (this screen)"},
			{"esc", "Back / close help"},
			{"q", "Quit"},
		}),
		m.renderSection("Predictions, Training, Records", []keyHelp{
			{"j / k", "Scroll"},
			{"r", "Refresh"},
		}),
		m.renderSection("Sync Screen", []keyHelp{
			{"s / enter", "Start sync"},
		}),
		m.renderMetricsHelp(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	lines := []string{"", sectionStyle.Render(title)}
	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}
	return strings.Join(lines, "\n")
}

func (m HelpModel) renderMetricsHelp() string {
	lines := []string{"", sectionStyle.Render("Metrics Explained"), ""}

	metrics := []struct {
		name string
		desc string
	}{
		{"Prediction range", "80% interval around the predicted time; wider for longer distances."},
		{"Confidence", "How well recent races back the prediction. Capped at 85%."},
		{"Fatigue exponent", "How much you slow as distance doubles. ~1.06 is typical."},
		{"TRIMP", "Training impulse: duration weighted by heart rate reserve."},
		{"CTL (Fitness)", "42 day exponential average of daily TRIMP."},
		{"ATL (Fatigue)", "7 day exponential average of daily TRIMP."},
		{"TSB (Form)", "CTL - ATL. Positive means fresh."},
		{"VDOT", "Aerobic capacity estimated from your best recent efforts."},
	}
	for _, metric := range metrics {
		lines = append(lines, "  "+helpKeyStyle.Render(metric.name), "  "+mutedStyle.Render(metric.desc), "")
	}
	return strings.Join(lines, "\n")
}
