package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lactate-lab/internal/service"
	"lactate-lab/internal/store"
)

// SessionsModel is the test session list screen model
type SessionsModel struct {
	svc      *service.AnalysisService
	sessions []store.Session
	cursor   int
	offset   int
	pageSize int
	loading  bool
	err      error
}

// NewSessionsModel creates a new sessions model
func NewSessionsModel(svc *service.AnalysisService) SessionsModel {
	return SessionsModel{
		svc:      svc,
		pageSize: 15,
		loading:  true,
	}
}

// Init initializes the sessions screen
func (m SessionsModel) Init() tea.Cmd {
	return m.loadSessions
}

type sessionsLoadedMsg struct {
	sessions []store.Session
	err      error
}

// sessionSelectedMsg asks the app to open a session
type sessionSelectedMsg struct {
	id string
}

func (m SessionsModel) loadSessions() tea.Msg {
	sessions, err := m.svc.ListSessions(context.Background(), "")
	return sessionsLoadedMsg{sessions: sessions, err: err}
}

// Update handles messages
func (m SessionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.sessions = msg.sessions
		if m.cursor >= len(m.sessions) {
			m.cursor = max(len(m.sessions)-1, 0)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sessions)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.sessions) {
				id := m.sessions[m.cursor].ID
				return m, func() tea.Msg { return sessionSelectedMsg{id: id} }
			}
		case "r":
			m.loading = true
			return m, m.loadSessions
		}
		m.offset = pageOffset(m.cursor, m.offset, m.pageSize)
	}
	return m, nil
}

// pageOffset keeps the cursor inside the visible window
func pageOffset(cursor, offset, pageSize int) int {
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+pageSize {
		return cursor - pageSize + 1
	}
	return offset
}

// View renders the sessions list
func (m SessionsModel) View() string {
	if m.loading {
		return "\n  Loading tests..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	title := cardTitleStyle.Render(fmt.Sprintf("Lactate Tests (%d)", len(m.sessions)))

	if len(m.sessions) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title,
			"No tests yet. Run 'lactate import FILE' to add one."))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-20s  %6s  %6s  %-8s",
		"Date", "Subject", "Stages", "Unit", "ID"))

	rows := []string{header}
	end := min(m.offset+m.pageSize, len(m.sessions))
	for i := m.offset; i < end; i++ {
		s := m.sessions[i]
		line := fmt.Sprintf("%-10s  %-20s  %6d  %6s  %-8s",
			s.TestedAt.Format("2006-01-02"),
			truncateName(s.Subject, 20),
			s.StageCount,
			s.Unit,
			shortID(s.ID),
		)
		if i == m.cursor {
			rows = append(rows, tableSelectedStyle.Render(line))
		} else {
			rows = append(rows, tableRowStyle.Render(line))
		}
	}

	help := statusStyle.Render("j/k to move, enter to open, 'r' to refresh")
	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.JoinVertical(lipgloss.Left, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table)), help)
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
