package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lactate-lab/internal/service"
)

// CompareModel shows every method's thresholds for one session
type CompareModel struct {
	svc        *service.AnalysisService
	units      Units
	sessionID  string
	comparison *service.Comparison
	loading    bool
	err        error
}

// NewCompareModel creates a new comparison model
func NewCompareModel(svc *service.AnalysisService, units Units, sessionID string) CompareModel {
	return CompareModel{
		svc:       svc,
		units:     units,
		sessionID: sessionID,
		loading:   sessionID != "",
	}
}

// Init initializes the comparison screen
func (m CompareModel) Init() tea.Cmd {
	if m.sessionID == "" {
		return nil
	}
	return m.loadComparison
}

type comparisonLoadedMsg struct {
	comparison *service.Comparison
	err        error
}

func (m CompareModel) loadComparison() tea.Msg {
	c, err := m.svc.CompareMethods(context.Background(), m.sessionID)
	return comparisonLoadedMsg{comparison: c, err: err}
}

// Update handles messages
func (m CompareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case comparisonLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.comparison = msg.comparison
	case tea.KeyMsg:
		if msg.String() == "r" && m.sessionID != "" {
			m.loading = true
			return m, m.loadComparison
		}
	}
	return m, nil
}

// View renders the comparison table
func (m CompareModel) View() string {
	if m.sessionID == "" {
		return "\n  No session selected. Press '1' and pick a test."
	}

	if m.loading {
		return "\n  Running all methods..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.comparison == nil {
		return "\n  No data available."
	}

	units := m.units.ForSession(m.comparison.Session.Unit)
	title := cardTitleStyle.Render("Method Comparison")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-24s  %-22s  %-22s  %s",
		"Method", "LT1", "LT2", "Notes"))
	rows := []string{header}

	for _, o := range m.comparison.Outcomes {
		r := o.Result
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-24s  %-22s  %-22s  %s",
			truncateName(r.MethodName, 24),
			formatThreshold(r.LT1, units),
			formatThreshold(r.LT2, units),
			mutedStyle.Render(truncateName(r.Notes, 40)),
		)))
	}

	help := statusStyle.Render("'r' to recalculate, '2' to inspect one method")
	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.JoinVertical(lipgloss.Left, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table)), help)
}
