package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"lactate-lab/internal/service"
	"lactate-lab/internal/stage"
	"lactate-lab/internal/threshold"
)

const (
	curveWidth = 60
	// lines taken by the header, nav and footer around the viewport
	chromeHeight = 6
)

// AnalysisModel shows one method's thresholds, zones and curve for a session
type AnalysisModel struct {
	svc       *service.AnalysisService
	units     Units
	sessionID string
	methods   []threshold.Info
	methodIdx int
	data      *service.Analysis
	loading   bool
	err       error
	viewport  viewport.Model
	ready     bool
}

// NewAnalysisModel creates a new analysis model starting at method
func NewAnalysisModel(svc *service.AnalysisService, units Units, sessionID string, method threshold.Method) AnalysisModel {
	methods := threshold.Methods()
	idx := 0
	for i, info := range methods {
		if info.Method == method {
			idx = i
		}
	}
	return AnalysisModel{
		svc:       svc,
		units:     units,
		sessionID: sessionID,
		methods:   methods,
		methodIdx: idx,
		loading:   sessionID != "",
	}
}

// Method returns the selected method
func (m AnalysisModel) Method() threshold.Method {
	return m.methods[m.methodIdx].Method
}

// Init initializes the analysis screen
func (m AnalysisModel) Init() tea.Cmd {
	if m.sessionID == "" {
		return nil
	}
	return m.loadData
}

type analysisLoadedMsg struct {
	method threshold.Method
	data   *service.Analysis
	err    error
}

func (m AnalysisModel) loadData() tea.Msg {
	method := m.Method()
	data, err := m.svc.Analyze(context.Background(), m.sessionID, method)
	return analysisLoadedMsg{method: method, data: data, err: err}
}

// Update handles messages
func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisLoadedMsg:
		// a faster key press may have moved on to another method
		if msg.method != m.Method() {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		if m.ready && m.data != nil {
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}
		return m, nil
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		if m.sessionID == "" {
			return m, nil
		}
		switch msg.String() {
		case "right", "l":
			m.methodIdx = (m.methodIdx + 1) % len(m.methods)
			m.loading = true
			return m, m.loadData
		case "left", "h":
			m.methodIdx = (m.methodIdx + len(m.methods) - 1) % len(m.methods)
			m.loading = true
			return m, m.loadData
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// resize fits the scrollable area to a terminal of the given size
func (m AnalysisModel) resize(width, height int) AnalysisModel {
	if width <= 0 || height <= chromeHeight {
		return m
	}
	if !m.ready {
		m.viewport = viewport.New(width, height-chromeHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height - chromeHeight
	}
	if m.data != nil {
		m.viewport.SetContent(m.renderContent())
	}
	return m
}

// View renders the analysis screen
func (m AnalysisModel) View() string {
	if m.sessionID == "" {
		return "\n  No session selected. Press '1' and pick a test."
	}

	if m.loading {
		return fmt.Sprintf("\n  Calculating %s...", m.methods[m.methodIdx].Name)
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available."
	}

	help := statusStyle.Render("←/→ change method, ↑/↓ scroll, 'r' to recalculate, '3' to compare all methods")
	if !m.ready {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderContent(), help)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), help)
}

func (m AnalysisModel) renderContent() string {
	units := m.units.ForSession(m.data.Session.Unit)
	var sections []string

	// Top row: thresholds and zones side by side
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderThresholdCard(units), "  ", m.renderZonesCard(units))
	sections = append(sections, topRow)

	if len(m.data.Points) > 1 {
		sections = append(sections, m.renderCurve(units))
	}

	if len(m.data.Corrections) > 0 {
		sections = append(sections, m.renderCorrections(units))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m AnalysisModel) renderThresholdCard(units Units) string {
	r := m.data.Result
	title := cardTitleStyle.Render(fmt.Sprintf("%s  (%d/%d)", r.MethodName, m.methodIdx+1, len(m.methods)))

	lines := []string{
		renderField("Subject", m.data.Session.Subject, metricValueStyle),
		renderField("Tested", m.data.Session.TestedAt.Format("2006-01-02"), metricValueStyle),
		"",
		renderField("LT1", formatThreshold(r.LT1, units), lt1Style),
		renderField("LT2", formatThreshold(r.LT2, units), lt2Style),
	}

	if m.data.Adjusted {
		lines = append(lines, "", adjustedStyle.Render("Manually adjusted thresholds"))
	}
	if r.Notes != "" && !m.data.Adjusted {
		lines = append(lines, "", mutedStyle.Render(wrap(r.Notes, 40)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(48).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m AnalysisModel) renderZonesCard(units Units) string {
	title := cardTitleStyle.Render("Training Zones")

	var rows []string
	for _, z := range m.data.Zones {
		label := fmt.Sprintf("Z%d %s", z.ID, z.Name)
		value := fmt.Sprintf("%s - %s", units.FormatLoadValue(z.Range[0]), units.FormatLoad(z.Range[1]))
		rows = append(rows, zoneStyle(z.ID).Render(fmt.Sprintf("%-22s", label))+metricValueStyle.Render(value))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m AnalysisModel) renderCurve(units Units) string {
	pts := sortedByLoad(m.data.Points)
	title := cardTitleStyle.Render(fmt.Sprintf("Lactate Curve  %s - %s",
		units.FormatLoadValue(pts[0].Load), units.FormatLoad(pts[len(pts)-1].Load)))

	graph := asciigraph.Plot(resampleCurve(pts, curveWidth),
		asciigraph.Height(10),
		asciigraph.Width(curveWidth),
		asciigraph.Precision(1),
		asciigraph.Caption("mmol/L"),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m AnalysisModel) renderCorrections(units Units) string {
	title := cardTitleStyle.Render("Incomplete Stages")

	var rows []string
	for _, c := range m.data.Corrections {
		var r *stage.Result
		var desc string
		if c.Final {
			r = c.TheoreticalLoad
			desc = fmt.Sprintf("final, theoretical load %s", units.FormatLoad(r.Value))
		} else {
			r = c.Lactate
			desc = fmt.Sprintf("lactate %.2f -> %.2f mmol/L", c.MeasuredLactate, r.Value)
		}

		row := fmt.Sprintf("Stage %-2d %3.0f%%  %-9s %s  %s",
			c.Stage, c.CompletionRatio*100, r.Method, confidenceBar(r.Confidence, 10), desc)
		rows = append(rows, tableRowStyle.Render(row))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func formatThreshold(p *threshold.Point, units Units) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%s @ %.2f mmol/L", units.FormatLoad(p.Load), p.Lactate)
}

func sortedByLoad(points []threshold.DataPoint) []threshold.DataPoint {
	pts := append([]threshold.DataPoint(nil), points...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Load < pts[j].Load })
	return pts
}

// resampleCurve linearly interpolates lactate onto n evenly spaced loads so
// the chart's x axis is proportional to load. points must be sorted by load.
func resampleCurve(points []threshold.DataPoint, n int) []float64 {
	if len(points) == 0 {
		return nil
	}

	lo, hi := points[0].Load, points[len(points)-1].Load
	if len(points) < 2 || n < 2 || hi <= lo {
		out := make([]float64, len(points))
		for i, p := range points {
			out[i] = p.Lactate
		}
		return out
	}

	out := make([]float64, n)
	j := 0
	for i := range n {
		x := lo + (hi-lo)*float64(i)/float64(n-1)
		for j < len(points)-2 && points[j+1].Load < x {
			j++
		}
		a, b := points[j], points[j+1]
		if b.Load == a.Load {
			out[i] = b.Lactate
			continue
		}
		t := (x - a.Load) / (b.Load - a.Load)
		out[i] = a.Lactate + t*(b.Lactate-a.Lactate)
	}
	return out
}

func wrap(s string, width int) string {
	var lines []string
	var line string
	for _, word := range strings.Fields(s) {
		if line != "" && len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
