package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"racetime/internal/analysis"
	"racetime/internal/service"
)

// PredictionsModel is the race predictions screen model
type PredictionsModel struct {
	predictions  *service.PredictionService
	req          service.PredictionRequest
	units        Units
	report       *service.PredictionReport
	insufficient *service.InsufficientDataError
	viewport     viewport.Model
	loading      bool
	err          error
	ready        bool
}

// NewPredictionsModel creates a new predictions model
func NewPredictionsModel(ps *service.PredictionService, req service.PredictionRequest, units Units, width, height int) PredictionsModel {
	m := PredictionsModel{
		predictions: ps,
		req:         req,
		units:       units,
		loading:     true,
	}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}
	return m
}

// Init initializes the predictions screen
func (m PredictionsModel) Init() tea.Cmd {
	return m.loadPredictions
}

type predictionsLoadedMsg struct {
	report *service.PredictionReport
	err    error
}

func (m PredictionsModel) loadPredictions() tea.Msg {
	report, err := m.predictions.GeneratePredictions(context.Background(), m.req)
	return predictionsLoadedMsg{report: report, err: err}
}

// Update handles messages
func (m PredictionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case predictionsLoadedMsg:
		m.loading = false
		m.report = msg.report
		m.err = msg.err
		m.insufficient = nil
		var ide *service.InsufficientDataError
		if errors.As(msg.err, &ide) {
			m.insufficient = ide
			m.err = nil
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.viewport.SetContent(m.renderContent())

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadPredictions
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the predictions screen
func (m PredictionsModel) View() string {
	if m.loading {
		return "\n  Computing race predictions..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m PredictionsModel) renderContent() string {
	if m.insufficient != nil {
		return m.renderInsufficient()
	}
	if m.report == nil {
		return ""
	}

	sections := []string{
		"",
		cardTitleStyle.Render("Race Time Predictions"),
		m.renderSummary(),
		m.renderTable(),
		m.renderProfile(),
	}
	if recs := m.report.DataQuality.Recommendations; len(recs) > 0 {
		sections = append(sections, m.renderRecommendations(recs))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m PredictionsModel) renderInsufficient() string {
	lines := []string{
		"",
		cardTitleStyle.Render("Race Time Predictions"),
		mutedStyle.Render(fmt.Sprintf("  Not enough history yet (%d races, %d runs).",
			m.insufficient.Races, m.insufficient.Activities)),
		"",
	}
	for _, g := range m.insufficient.Guidance {
		lines = append(lines, "  • "+g)
	}
	lines = append(lines, "", mutedStyle.Render("  Sync with Strava, import FIT files or add a race, then press r."))
	return strings.Join(lines, "\n")
}

func (m PredictionsModel) renderSummary() string {
	r := m.report
	q := r.DataQuality
	return strings.Join([]string{
		fmt.Sprintf("  Based on %s · data quality %s (%.0f%%) · updated %s",
			r.DataSource, q.Level, q.Score*100, humanize.RelTime(r.LastUpdated, time.Now(), "ago", "from now")),
		"",
	}, "\n")
}

func (m PredictionsModel) renderTable() string {
	lines := []string{
		sectionHeader("Predicted Times"),
		tableHeaderStyle.Render(fmt.Sprintf("  %-15s  %9s  %10s  %-19s  %5s  %s",
			"Distance", "Predicted", "Pace", "Range", "Conf", "Method")),
	}
	for _, p := range m.report.Ordered() {
		lines = append(lines, m.formatRow(p))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m PredictionsModel) formatRow(p service.NamedPrediction) string {
	r := p.Result
	conf := confidenceStyle(r.Confidence).Render(fmt.Sprintf("%4.0f%%", r.Confidence*100))
	rng := FormatRaceTime(r.Interval.Lower) + " - " + FormatRaceTime(r.Interval.Upper)
	return fmt.Sprintf("  %-15s  %9s  %10s  %-19s  %s  %s",
		analysis.GetTargetLabel(p.Name),
		FormatRaceTime(r.PredictedTimeSeconds),
		m.units.FormatPaceWithUnit(r.PredictedTimeSeconds, r.DistanceMeters),
		rng,
		conf,
		mutedStyle.Render(methodLabel(r.Method)),
	)
}

func (m PredictionsModel) renderProfile() string {
	p := m.report.EnduranceProfile
	lines := []string{
		sectionHeader("Endurance Profile"),
		RenderMetric("  Fatigue exponent", fmt.Sprintf("%.3f", p.Exponent)),
		RenderMetric("  Profile confidence", fmt.Sprintf("%.0f%%", p.Confidence*100)),
		RenderMetric("  Races used", fmt.Sprintf("%d", p.BaseRaceCount)),
	}
	if p.CriticalSpeed != nil {
		lines = append(lines, RenderMetric("  Critical speed pace", m.units.FormatPaceWithUnit(1000 / *p.CriticalSpeed, 1000)))
	}
	if p.AnaerobicCapacity != nil {
		lines = append(lines, RenderMetric("  D'", fmt.Sprintf("%.0f m", *p.AnaerobicCapacity)))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m PredictionsModel) renderRecommendations(recs []string) string {
	lines := []string{sectionHeader("Improve These Predictions")}
	for _, r := range recs {
		lines = append(lines, mutedStyle.Render("  • "+r))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func methodLabel(method string) string {
	switch method {
	case analysis.MethodMultiModel:
		return "multi-model"
	case analysis.MethodPowerLaw:
		return "power law"
	case analysis.MethodPaceTable:
		return "pace table"
	}
	return method
}
