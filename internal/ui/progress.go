// Package ui renders pipeline progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"bridgegen/internal/driver"
)

type phaseStatus uint8

const (
	phaseQueued phaseStatus = iota
	phaseRunning
	phaseDone
)

func (s phaseStatus) String() string {
	switch s {
	case phaseRunning:
		return "running"
	case phaseDone:
		return "done"
	}
	return "queued"
}

const statusColumn = 9

type palette struct {
	title  lipgloss.Style
	status [3]lipgloss.Style
	detail lipgloss.Style
}

func newPalette() palette {
	col := lipgloss.NewStyle().Width(statusColumn).Align(lipgloss.Right)
	return palette{
		title: lipgloss.NewStyle().Bold(true),
		status: [3]lipgloss.Style{
			phaseQueued:  col.Foreground(lipgloss.Color("8")),
			phaseRunning: col.Foreground(lipgloss.Color("6")),
			phaseDone:    col.Foreground(lipgloss.Color("2")),
		},
		detail: lipgloss.NewStyle().Faint(true),
	}
}

type phaseRow struct {
	name   string
	status phaseStatus
	detail string
	// share of the phase finished, 0 to 1.
	share float64
}

type progressModel struct {
	title  string
	events <-chan driver.PhaseEvent
	rows   []phaseRow
	byName map[string]int

	spin    spinner.Model
	bar     progress.Model
	palette palette
	width   int
	done    bool
}

type eventMsg driver.PhaseEvent
type doneMsg struct{}

// NewProgressModel lists phases under title and advances them as events
// arrive. The program quits once events is closed.
func NewProgressModel(title string, phases []string, events <-chan driver.PhaseEvent) tea.Model {
	m := &progressModel{
		title:   title,
		events:  events,
		rows:    make([]phaseRow, len(phases)),
		byName:  make(map[string]int, len(phases)),
		spin:    spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		palette: newPalette(),
		width:   80,
	}
	for i, name := range phases {
		m.rows[i] = phaseRow{name: name}
		m.byName[name] = i
	}
	m.resize(m.width)
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.PhaseEvent(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) resize(width int) {
	if width <= 0 {
		return
	}
	m.width = width
	m.bar.Width = max(width-4, 10)
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	if m.done {
		b.WriteString(m.palette.title.Render("done: " + m.title))
	} else {
		b.WriteString(m.spin.View() + " " + m.palette.title.Render(m.title))
	}
	b.WriteString("\n\n")

	room := max(m.width-statusColumn-4, 20)
	for _, row := range m.rows {
		label := row.name
		if row.detail != "" {
			label += "  " + row.detail
		}
		fmt.Fprintf(&b, "  %s %s\n", m.palette.status[row.status].Render(row.status.String()), truncate(label, room))
	}
	b.WriteString("\n  ")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return doneMsg{}
	}
}

// applyEvent updates the row the event names; events for phases the
// model does not list are dropped.
func (m *progressModel) applyEvent(ev driver.PhaseEvent) tea.Cmd {
	i, ok := m.byName[ev.Name]
	if !ok {
		return nil
	}
	row := &m.rows[i]
	switch ev.Status {
	case driver.PhaseStart, driver.PhaseProgress:
		row.status = phaseRunning
		if ev.Status == driver.PhaseProgress && ev.Total > 0 {
			row.share = float64(ev.Done) / float64(ev.Total)
			row.detail = fmt.Sprintf("%d/%d", ev.Done, ev.Total)
		}
	case driver.PhaseEnd:
		row.status = phaseDone
		row.share = 1
		row.detail = fmt.Sprintf("%.1f ms", float64(ev.Elapsed.Microseconds())/1000)
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	var sum float64
	for _, row := range m.rows {
		sum += row.share
	}
	return sum / float64(len(m.rows))
}

// truncate cuts value to width terminal cells, ending in "..." when there
// is room for it.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width, tail)
}
