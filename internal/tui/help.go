package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lactate-lab/internal/threshold"
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
	var sections []string

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	// Navigation section
	navSection := m.renderSection("Navigation", []keyHelp{
		{"1", "Test list"},
		{"2", "Analysis of the selected test"},
		{"3", "Compare all methods"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	})
	sections = append(sections, navSection)

	// Test list keys
	listSection := m.renderSection("Test List", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"enter", "Open test"},
		{"r", "Refresh list"},
	})
	sections = append(sections, listSection)

	// Analysis keys
	analysisSection := m.renderSection("Analysis", []keyHelp{
		{"l / right", "Next method"},
		{"h / left", "Previous method"},
		{"r", "Recalculate"},
	})
	sections = append(sections, analysisSection)

	sections = append(sections, m.renderMethodsHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+k.render())
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderMethodsHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("Methods"))
	lines = append(lines, "")

	for _, info := range threshold.Methods() {
		lines = append(lines, "  "+helpKeyStyle.Render(info.Name))
		lines = append(lines, "  "+mutedStyle.Render(truncateName(info.Reference, 100)))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
