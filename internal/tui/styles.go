package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor    = lipgloss.Color("#0EA5E9") // sky
	aerobicColor   = lipgloss.Color("#22C55E") // LT1
	anaerobicColor = lipgloss.Color("#DC2626") // LT2
	adjustedColor  = lipgloss.Color("#F59E0B")
	dimColor       = lipgloss.Color("#6B7280")
	brightColor    = lipgloss.Color("#F9FAFB")
)

// zoneColors run from recovery to high intensity
var zoneColors = [5]lipgloss.Color{"#4CAF50", "#8BC34A", "#FFC107", "#FF9800", "#F44336"}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brightColor).
			Background(accentColor).
			Padding(0, 1).
			MarginBottom(1)

	navStyle         = lipgloss.NewStyle().Foreground(dimColor).MarginBottom(1)
	navActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	navInactiveStyle = lipgloss.NewStyle().Foreground(dimColor)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor).
			Padding(1, 2)
	cardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(aerobicColor)

	fieldLabelStyle  = lipgloss.NewStyle().Foreground(dimColor).Width(10)
	metricValueStyle = lipgloss.NewStyle().Bold(true).Foreground(brightColor)
	lt1Style         = lipgloss.NewStyle().Bold(true).Foreground(aerobicColor)
	lt2Style         = lipgloss.NewStyle().Bold(true).Foreground(anaerobicColor)
	adjustedStyle    = lipgloss.NewStyle().Foreground(adjustedColor)
	mutedStyle       = lipgloss.NewStyle().Foreground(dimColor)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				BorderBottom(true).
				BorderForeground(dimColor).
				Padding(0, 1)
	tableRowStyle      = lipgloss.NewStyle().Padding(0, 1)
	tableSelectedStyle = lipgloss.NewStyle().Bold(true).Background(accentColor).Foreground(brightColor).Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(dimColor).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(anaerobicColor)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(dimColor)

	confidenceHighStyle = lipgloss.NewStyle().Foreground(aerobicColor)
	confidenceLowStyle  = lipgloss.NewStyle().Foreground(adjustedColor)
	confidenceGapStyle  = lipgloss.NewStyle().Foreground(dimColor)
)

// zoneStyle returns the label style for a 1-based zone ID
func zoneStyle(id int) lipgloss.Style {
	if id < 1 || id > len(zoneColors) {
		return fieldLabelStyle
	}
	return lipgloss.NewStyle().Foreground(zoneColors[id-1])
}

// renderField renders a label/value line of a card. valueStyle picks the
// color of the value, e.g. lt1Style for aerobic threshold lines.
func renderField(label, value string, valueStyle lipgloss.Style) string {
	return fieldLabelStyle.Render(label) + valueStyle.Render(value)
}

// confidenceBar draws confidence in [0, 1] as a bar of width cells.
// Values below 0.5 are drawn in the warning color.
func confidenceBar(confidence float64, width int) string {
	filled := int(confidence*float64(width) + 0.5)
	filled = max(0, min(filled, width))

	style := confidenceHighStyle
	if confidence < 0.5 {
		style = confidenceLowStyle
	}
	return style.Render(strings.Repeat("█", filled)) + confidenceGapStyle.Render(strings.Repeat("░", width-filled))
}

func (k keyHelp) render() string {
	return helpKeyStyle.Render(k.key) + " " + helpDescStyle.Render(k.desc)
}
