package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"racetime/internal/analysis"
	"racetime/internal/store"
)

// recentRaceLimit caps the race list on the records screen
const recentRaceLimit = 15

// RecordSource loads personal bests and race results
type RecordSource interface {
	GetAllPersonalBests(ctx context.Context, weeksBack int) ([]analysis.PersonalBest, error)
	RacesSince(ctx context.Context, since time.Time) ([]store.Race, error)
}

// RecordsModel is the personal bests and races screen model
type RecordsModel struct {
	source   RecordSource
	units    Units
	bests    []analysis.PersonalBest
	races    []store.Race
	viewport viewport.Model
	loading  bool
	err      error
	ready    bool
}

// NewRecordsModel creates a new records model
func NewRecordsModel(src RecordSource, units Units, width, height int) RecordsModel {
	m := RecordsModel{source: src, units: units, loading: true}
	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}
	return m
}

// Init initializes the records screen
func (m RecordsModel) Init() tea.Cmd {
	return m.loadRecords
}

type recordsLoadedMsg struct {
	bests []analysis.PersonalBest
	races []store.Race
	err   error
}

func (m RecordsModel) loadRecords() tea.Msg {
	ctx := context.Background()
	bests, err := m.source.GetAllPersonalBests(ctx, 0)
	if err != nil {
		return recordsLoadedMsg{err: err}
	}
	races, err := m.source.RacesSince(ctx, time.Time{})
	if err != nil {
		return recordsLoadedMsg{err: err}
	}
	return recordsLoadedMsg{bests: bests, races: races}
}

// Update handles messages
func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.bests = msg.bests
		m.races = msg.races
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
			return m, m.loadRecords
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the records screen
func (m RecordsModel) View() string {
	if m.loading {
		return "\n  Loading personal bests..."
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

func (m RecordsModel) renderContent() string {
	sections := []string{"", cardTitleStyle.Render("Personal Bests")}

	if len(m.bests) == 0 && len(m.races) == 0 {
		sections = append(sections, mutedStyle.Render("  No records yet. Sync, import FIT files or add a race with `racetime race add`."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}
	if len(m.bests) > 0 {
		sections = append(sections, m.renderBests())
	}
	if len(m.races) > 0 {
		sections = append(sections, m.renderRaces())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RecordsModel) renderBests() string {
	lines := []string{
		sectionHeader("Fastest By Distance"),
		tableHeaderStyle.Render(fmt.Sprintf("  %-14s  %9s  %10s  %-6s  %s", "Distance", "Time", "Pace", "Source", "Date")),
	}
	for _, pb := range m.bests {
		src := "run"
		if pb.FromRace {
			src = "race"
		}
		lines = append(lines, fmt.Sprintf("  %-14s  %9s  %10s  %-6s  %s",
			pb.Label,
			FormatRaceTime(pb.TimeSeconds),
			m.units.FormatPaceWithUnit(pb.TimeSeconds, pb.DistanceMeters),
			src,
			pb.Date.Format("2006-01-02"),
		))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m RecordsModel) renderRaces() string {
	lines := []string{
		sectionHeader("Races"),
		tableHeaderStyle.Render(fmt.Sprintf("  %-24s  %8s  %9s  %s", "Name", "Distance", "Time", "When")),
	}
	for i, r := range m.races {
		if i >= recentRaceLimit {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  ... and %d more", len(m.races)-recentRaceLimit)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %-24s  %8s  %9s  %s",
			truncateName(r.Name, 24),
			m.units.FormatDistance(r.DistanceMeters),
			FormatRaceTime(r.TimeSeconds),
			mutedStyle.Render(humanize.Time(r.Date)),
		))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
