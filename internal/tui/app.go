package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"racetime/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenPredictions Screen = iota
	ScreenDashboard
	ScreenRecords
	ScreenSync
	ScreenHelp
)

// Deps is everything the screens read from. Sync is nil when no Strava
// login is stored; RateLimits may be nil.
type Deps struct {
	Predictions *service.PredictionService
	Training    *service.TrainingService
	Sync        *service.SyncService
	Records     RecordSource
	Request     service.PredictionRequest
	Units       Units
	RateLimits  func() (short, daily int)
}

// App is the root Bubble Tea model
type App struct {
	deps       Deps
	screen     Screen
	prevScreen Screen

	predictions PredictionsModel
	dashboard   DashboardModel
	records     RecordsModel
	syncScreen  SyncModel
	help        HelpModel

	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(deps Deps) *App {
	return &App{
		deps:        deps,
		screen:      ScreenPredictions,
		predictions: NewPredictionsModel(deps.Predictions, deps.Request, deps.Units, 0, 0),
		dashboard:   NewDashboardModel(deps.Training, deps.Units, 0),
		records:     NewRecordsModel(deps.Records, deps.Units, 0, 0),
		syncScreen:  NewSyncModel(deps.Sync, deps.RateLimits),
		help:        NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.predictions.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless a sync is running)
		if !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenPredictions
				a.predictions = NewPredictionsModel(a.deps.Predictions, a.deps.Request, a.deps.Units, a.width, a.height)
				return a, a.predictions.Init()
			case "2":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.deps.Training, a.deps.Units, a.width)
				return a, a.dashboard.Init()
			case "3":
				a.screen = ScreenRecords
				a.records = NewRecordsModel(a.deps.Records, a.deps.Units, a.width, a.height)
				return a, a.records.Init()
			case "4", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// 's' on the sync screen starts the sync
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		} else if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Every screen keeps its size, not only the visible one
		var cmds []tea.Cmd
		var m tea.Model
		var cmd tea.Cmd
		m, cmd = a.predictions.Update(msg)
		a.predictions = m.(PredictionsModel)
		cmds = append(cmds, cmd)
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
		cmds = append(cmds, cmd)
		m, cmd = a.records.Update(msg)
		a.records = m.(RecordsModel)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case SyncCompleteMsg:
		if a.deps.Training != nil {
			a.deps.Training.Invalidate()
		}
		return a, nil

	case SyncDoneMsg, syncProgressMsg, spinner.TickMsg:
		// Sync messages go to the sync model whatever screen is showing
		m, cmd := a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenPredictions:
		var m tea.Model
		m, cmd = a.predictions.Update(msg)
		a.predictions = m.(PredictionsModel)
	case ScreenDashboard:
		var m tea.Model
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenRecords:
		var m tea.Model
		m, cmd = a.records.Update(msg)
		a.records = m.(RecordsModel)
	case ScreenSync:
		var m tea.Model
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}
	return a, cmd
}

// View renders the app
func (a *App) View() string {
	var content string
	switch a.screen {
	case ScreenPredictions:
		content = a.predictions.View()
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenRecords:
		content = a.records.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render("racetime"), a.renderNav(), content)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Predictions", ScreenPredictions},
		{"2", "Training", ScreenDashboard},
		{"3", "Records", ScreenRecords},
		{"4", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}
		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}
	nav += "  " + navInactiveStyle.Render("[q] Quit")
	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
