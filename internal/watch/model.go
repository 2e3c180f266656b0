//
//
package watch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bulbulsingh11/smart-temperature-logger/internal/reading"
)

// ExportFile is where the "e" key saves the CSV export.
const ExportFile = "temperature-log.csv"

var errClosed = errors.New("event stream closed")

// ── Messages ─────────────────────────────────────────────────────────

type closedMsg struct{}

type exportedMsg struct {
	path string
	err  error
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the bubbletea model of the dashboard.
type Model struct {
	state     *State
	events    <-chan interface{}
	serverURL string
	export    func(ctx context.Context, serverURL, dest string) error

	err        error
	notice     string
	width      int
	lastUpdate time.Time
}

// NewModel renders state fed from events.
func NewModel(state *State, events <-chan interface{}, serverURL string) Model {
	return Model{
		state:     state,
		events:    events,
		serverURL: serverURL,
		export:    DownloadCSV,
	}
}

// State returns the folded stream state.
func (m Model) State() *State {
	return m.state
}

// ── Commands ─────────────────────────────────────────────────────────

func waitForEvent(events <-chan interface{}) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return ev
	}
}

func (m Model) exportCmd() tea.Cmd {
	serverURL, export := m.serverURL, m.export
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return exportedMsg{path: ExportFile, err: export(ctx, serverURL, ExportFile)}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.state.ClearAlerts()
		case "e":
			m.notice = "exporting..."
			return m, m.exportCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case Connected:
		m.state.Connected = true
		m.err = nil
		return m, waitForEvent(m.events)

	case Disconnected:
		m.state.Connected = false
		m.err = msg.Err
		return m, waitForEvent(m.events)

	case Envelope:
		if err := m.state.Apply(msg); err != nil {
			m.err = err
		}
		m.lastUpdate = time.Now()
		return m, waitForEvent(m.events)

	case exportedMsg:
		if msg.err != nil {
			m.notice = "export failed: " + msg.err.Error()
		} else {
			m.notice = "saved " + msg.path
		}

	case closedMsg:
		m.err = errClosed
		return m, tea.Quit
	}

	return m, nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleFg = lipgloss.Color("51")
	colorDim     = lipgloss.Color("240")
	colorOk      = lipgloss.Color("78")
	colorCool    = lipgloss.Color("39")
	colorWarn    = lipgloss.Color("220")
	colorHigh    = lipgloss.Color("208")
	colorCrit    = lipgloss.Color("196")
	colorChart   = lipgloss.Color("33")
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func statusColor(s Status) lipgloss.Color {
	switch s {
	case StatusCool:
		return colorCool
	case StatusNormal:
		return colorOk
	case StatusWarm:
		return colorWarn
	case StatusHot:
		return colorHigh
	default:
		return colorCrit
	}
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	width := m.width
	if width < 40 {
		width = 60
	}

	sections := []string{
		m.renderTitle(),
		m.renderCurrent(),
		m.renderChart(width - 4),
	}
	if len(m.state.Alerts) > 0 {
		sections = append(sections, m.renderAlerts())
	}
	if m.err != nil {
		sections = append(sections, lipgloss.NewStyle().Foreground(colorCrit).Render("error: "+m.err.Error()))
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderTitle() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorTitleFg).Render("SMART TEMPERATURE LOGGER")

	conn := lipgloss.NewStyle().Foreground(colorCrit).Render("● disconnected")
	if m.state.Connected {
		conn = lipgloss.NewStyle().Foreground(colorOk).Render("● live")
	}
	return title + "  " + conn
}

func (m Model) renderCurrent() string {
	status := m.state.Status()
	style := lipgloss.NewStyle().Bold(true).Foreground(statusColor(status))

	line := style.Render(fmt.Sprintf("%.1f°C", m.state.Current)) + "  " + style.Render(string(status))
	if m.state.Current > m.state.Threshold() {
		line += "  " + lipgloss.NewStyle().Foreground(colorCrit).Bold(true).Render("HIGH TEMPERATURE")
	}
	return line
}

func (m Model) renderChart(width int) string {
	if len(m.state.History) == 0 {
		return lipgloss.NewStyle().Foreground(colorDim).Render("Waiting for readings...")
	}
	return sparkline(m.state.History, width, m.state.Threshold())
}

// sparkline renders readings scaled to their own min/max; points above the
// threshold are drawn in the alert color.
func sparkline(rs []reading.Reading, width int, threshold float64) string {
	if len(rs) > width {
		rs = rs[len(rs)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rs {
		lo = math.Min(lo, r.Temperature)
		hi = math.Max(hi, r.Temperature)
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	normal := lipgloss.NewStyle().Foreground(colorChart)
	alert := lipgloss.NewStyle().Foreground(colorCrit)

	var sb strings.Builder
	for _, r := range rs {
		idx := int((r.Temperature - lo) / span * 7)
		if idx > 7 {
			idx = 7
		}
		style := normal
		if r.Temperature > threshold {
			style = alert
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	label := lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf("  %.1f–%.1f°C, %d readings", lo, hi, len(rs)))
	return sb.String() + label
}

func (m Model) renderAlerts() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(colorCrit).
		Render(fmt.Sprintf("High temperature alerts (> %.0f°C)", m.state.Threshold()))

	lines := []string{head}
	for _, a := range m.state.Alerts {
		lines = append(lines, fmt.Sprintf("  %.1f°C at %s", a.Temperature, a.Timestamp.Local().Format("15:04:05")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	text := "q quit · c clear alerts · e export csv"
	if !m.lastUpdate.IsZero() {
		text += fmt.Sprintf(" · %d live readings, updated %s", m.state.Received, m.lastUpdate.Format("15:04:05"))
	}
	if m.notice != "" {
		text += " · " + m.notice
	}
	return lipgloss.NewStyle().Foreground(colorDim).Render(text)
}
