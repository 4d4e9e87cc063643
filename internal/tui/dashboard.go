package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"racetime/internal/analysis"
	"racetime/internal/service"
)

// DashboardModel is the training load screen model
type DashboardModel struct {
	training *service.TrainingService
	units    Units
	data     *service.TrainingMetrics
	loading  bool
	err      error
	width    int
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(ts *service.TrainingService, units Units, width int) DashboardModel {
	return DashboardModel{
		training: ts,
		units:    units,
		loading:  true,
		width:    width,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

type dashboardDataMsg struct {
	data *service.TrainingMetrics
	err  error
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.training.GetTrainingMetrics(context.Background())
	return dashboardDataMsg{data: data, err: err}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			m.training.Invalidate()
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading training load..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.data == nil || len(m.data.Fitness.TSBData) == 0 {
		return "\n  No heart rate history yet. Press '4' to sync with Strava."
	}

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitnessCard(), "  ", m.renderCapacityCard())
	sections := []string{topRow, m.renderFormChart()}
	if chart := m.renderWeeklyChart(); chart != "" {
		sections = append(sections, chart)
	}
	sections = append(sections, statusStyle.Render("Press 'r' to recompute"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFitnessCard() string {
	f := m.data.Fitness
	lines := []string{
		cardTitleStyle.Render("Training Load"),
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", f.CTL)),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.0f", f.ATL)),
		RenderMetric("Form (TSB)", formStyle(f.FormStatus).Render(fmt.Sprintf("%+.0f", f.TSB))),
		"",
		mutedStyle.Render(f.FormDescription),
	}
	return cardStyle.Width(38).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m DashboardModel) renderCapacityCard() string {
	lines := []string{cardTitleStyle.Render("Capacity & Recovery")}

	v := m.data.VDOT
	if v.Value != nil {
		lines = append(lines,
			RenderMetric("VDOT", fmt.Sprintf("%.1f (%s)", *v.Value, analysis.GetVDOTLabel(*v.Value))),
			RenderMetric("VDOT confidence", fmt.Sprintf("%.0f%%", v.Confidence*100)),
		)
	} else {
		lines = append(lines, RenderMetric("VDOT", "-"))
	}

	r := m.data.Recovery
	rec := fmt.Sprintf("%dh (%s)", r.Hours, strings.ReplaceAll(r.Level, "_", " "))
	lines = append(lines, RenderMetric("Recovery", rec))
	if r.HoursRemaining != nil {
		left := "ready"
		if *r.HoursRemaining > 0 {
			left = fmt.Sprintf("%.0fh left", *r.HoursRemaining)
		}
		lines = append(lines, RenderMetric("Status", left))
	}

	if len(m.data.Equivalents) > 0 {
		lines = append(lines, "", mutedStyle.Render("Equivalent race times"))
		for _, e := range m.data.Equivalents {
			lines = append(lines, RenderMetric("  "+analysis.GetTargetLabel(e.Name), FormatRaceTime(e.Seconds)))
		}
	}
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m DashboardModel) chartWidth() int {
	w := m.width - 16
	if w < 30 {
		w = 60
	}
	if w > 90 {
		w = 90
	}
	return w
}

func (m DashboardModel) renderFormChart() string {
	tsb := make([]float64, len(m.data.Fitness.TSBData))
	ctl := make([]float64, len(m.data.Fitness.TSBData))
	for i, p := range m.data.Fitness.TSBData {
		tsb[i] = p.TSB
		ctl[i] = p.CTL
	}
	if len(tsb) < 2 {
		return ""
	}

	graph := asciigraph.PlotMany([][]float64{ctl, tsb},
		asciigraph.Height(8),
		asciigraph.Width(m.chartWidth()),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Goldenrod),
		asciigraph.SeriesLegends("fitness", "form"),
	)
	title := cardTitleStyle.Render(fmt.Sprintf("Fitness & Form - last %d days", len(tsb)))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderWeeklyChart() string {
	weeks := m.data.WeeklyTRIMP
	if len(weeks) < 2 {
		return ""
	}
	values := make([]float64, len(weeks))
	for i, w := range weeks {
		values[i] = w.TRIMP
	}
	graph := asciigraph.Plot(values,
		asciigraph.Height(5),
		asciigraph.Width(m.chartWidth()),
		asciigraph.Precision(0),
	)
	title := cardTitleStyle.Render(fmt.Sprintf("Weekly TRIMP since %s", weeks[0].WeekStart.Format("Jan 02")))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}
