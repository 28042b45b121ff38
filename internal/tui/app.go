package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lactate-lab/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenSessions Screen = iota
	ScreenAnalysis
	ScreenCompare
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	sessions SessionsModel
	analysis AnalysisModel
	compare  CompareModel
	help     HelpModel

	// Services
	svc   *service.AnalysisService
	units Units

	// Selected test
	sessionID string

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App. A non-empty sessionID opens that test directly.
func NewApp(svc *service.AnalysisService, units Units, sessionID string) *App {
	a := &App{
		screen:    ScreenSessions,
		svc:       svc,
		units:     units,
		sessionID: sessionID,
		sessions:  NewSessionsModel(svc),
		analysis:  NewAnalysisModel(svc, units, sessionID, svc.DefaultMethod()),
		compare:   NewCompareModel(svc, units, sessionID),
		help:      NewHelpModel(),
	}
	if sessionID != "" {
		a.screen = ScreenAnalysis
	}
	return a
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	if a.screen == ScreenAnalysis {
		return a.analysis.Init()
	}
	return a.sessions.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.screen = ScreenSessions
			return a, a.sessions.Init()
		case "2":
			a.screen = ScreenAnalysis
			return a, nil
		case "3":
			a.screen = ScreenCompare
			a.compare = NewCompareModel(a.svc, a.units, a.sessionID)
			return a, a.compare.Init()
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

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.screen != ScreenAnalysis {
			a.analysis = a.analysis.resize(msg.Width, msg.Height)
		}

	case sessionSelectedMsg:
		a.sessionID = msg.id
		a.screen = ScreenAnalysis
		a.analysis = NewAnalysisModel(a.svc, a.units, msg.id, a.analysis.Method()).resize(a.width, a.height)
		return a, a.analysis.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenSessions:
		var m tea.Model
		m, cmd = a.sessions.Update(msg)
		a.sessions = m.(SessionsModel)
	case ScreenAnalysis:
		var m tea.Model
		m, cmd = a.analysis.Update(msg)
		a.analysis = m.(AnalysisModel)
	case ScreenCompare:
		var m tea.Model
		m, cmd = a.compare.Update(msg)
		a.compare = m.(CompareModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenSessions:
		content = a.sessions.View()
	case ScreenAnalysis:
		content = a.analysis.View()
	case ScreenCompare:
		content = a.compare.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Lactate Threshold Lab")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Tests", ScreenSessions},
		{"2", "Analysis", ScreenAnalysis},
		{"3", "Compare", ScreenCompare},
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
