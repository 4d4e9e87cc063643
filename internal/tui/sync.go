package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"racetime/internal/service"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	limits      func() (short, daily int)
	spinner     spinner.Model
	progress    <-chan service.SyncProgress
	last        service.SyncProgress
	syncing     bool
	result      *service.SyncResult
	err         error
	done        bool
}

// NewSyncModel creates a new sync model. ss is nil when no Strava login is
// stored; limits may be nil.
func NewSyncModel(ss *service.SyncService, limits func() (short, daily int)) SyncModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)
	return SyncModel{syncService: ss, limits: limits, spinner: sp}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg service.SyncProgress

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case syncProgressMsg:
		m.last = service.SyncProgress(msg)
		return m, waitForProgress(m.progress)

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.syncing || m.syncService == nil {
			return m, nil
		}
		switch msg.String() {
		case "enter", "s":
			ch := make(chan service.SyncProgress, 16)
			m.progress = ch
			m.syncing = true
			m.done = false
			m.err = nil
			m.result = nil
			m.last = service.SyncProgress{}
			return m, tea.Batch(m.runSync(ch), waitForProgress(ch), m.spinner.Tick)
		}
	}
	return m, nil
}

func (m SyncModel) runSync(ch chan service.SyncProgress) tea.Cmd {
	ss := m.syncService
	return func() tea.Msg {
		result, err := ss.SyncAll(context.Background(), ch)
		return SyncDoneMsg{Result: result, Err: err}
	}
}

// waitForProgress reads one update; it yields nil once the channel is closed
func waitForProgress(ch <-chan service.SyncProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return syncProgressMsg(p)
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	sections := []string{cardTitleStyle.Render("Strava Sync")}

	switch {
	case m.syncService == nil:
		sections = append(sections,
			warningStyle.Render("\n  Not connected to Strava."),
			statusStyle.Render("  Run `racetime login` first, then restart."))
	case m.err != nil:
		sections = append(sections,
			errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)),
			"\n"+statusStyle.Render("  Press 's' or Enter to retry"))
	case m.done:
		sections = append(sections,
			successStyle.Render("\n  Sync complete!"),
			m.renderSummary(),
			"\n"+statusStyle.Render("  Press '1' for predictions or '2' for training load"))
	case m.syncing:
		sections = append(sections, m.renderProgress())
	default:
		sections = append(sections, m.renderStartPrompt())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	lines := []string{
		"",
		"  This will fetch new runs from Strava, record runs",
		"  flagged as races, and refresh your training load.",
		"",
	}
	if m.limits != nil {
		short, daily := m.limits()
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  API requests left: %d (15min), %d (daily)", short, daily)), "")
	}
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	lines := []string{
		"",
		fmt.Sprintf("  %s Syncing with Strava...", m.spinner.View()),
		"",
	}
	if m.last.Page > 0 {
		lines = append(lines,
			fmt.Sprintf("  Page %d · %s fetched · %s stored", m.last.Page,
				humanize.Comma(int64(m.last.Fetched)), humanize.Comma(int64(m.last.Stored))),
			mutedStyle.Render("  "+truncateName(m.last.CurrentActivity, 50)))
	}
	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}
	r := m.result
	lines := []string{""}
	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %s runs synced (%d with heart rate)",
			humanize.Comma(int64(r.ActivitiesStored)), r.RunsWithHR)))
	} else {
		lines = append(lines, statusStyle.Render("  No new runs"))
	}
	if r.RacesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d races recorded", r.RacesStored)))
	}
	if len(r.Errors) > 0 {
		lines = append(lines, "", warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
	}
	return strings.Join(lines, "\n")
}
