package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666"))

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type pane int

const (
	paneTable pane = iota
	panePayload
)

type interactiveModel struct {
	rep     *report
	table   table.Model
	payload viewport.Model
	width   int
	focus   pane
	ready   bool
}

func newInteractiveModel(rep *report, width int) *interactiveModel {
	rows := make([]table.Row, len(rep.table))
	for id, s := range rep.table {
		rows[id] = table.Row{strconv.Itoa(id), strconv.Quote(s)}
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "String", Width: 40},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
	)
	return &interactiveModel{
		rep:   rep,
		table: t,
		width: width,
		focus: paneTable,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case paneTable:
		m.table, cmd = m.table.Update(msg)
	case panePayload:
		m.payload, cmd = m.payload.Update(msg)
	}
	return m, cmd
}

func (m *interactiveModel) toggleFocus() {
	if m.focus == paneTable {
		m.focus = panePayload
		m.table.Blur()
		return
	}
	m.focus = paneTable
	m.table.Focus()
}

// resize splits the screen between the table and the payload dump. The
// header takes three lines and the help line one; borders take two per pane.
func (m *interactiveModel) resize(w, h int) {
	body := max(h-4-2, 4)
	tableWidth := min(50, w/3)
	dumpWidth := max(w-tableWidth-4, 20)

	m.table.SetWidth(tableWidth)
	m.table.SetHeight(body)
	if !m.ready {
		m.payload = viewport.New(dumpWidth, body)
		m.payload.SetContent(hexDump(m.rep.payload, m.rep.payloadOff, m.width))
		m.ready = true
		return
	}
	m.payload.Width = dumpWidth
	m.payload.Height = body
}

func (m *interactiveModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("binserde-inspect"))
	b.WriteString(" ")
	b.WriteString(m.rep.path)
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(m.summary()))
	b.WriteString("\n\n")

	left, right := paneStyle, paneStyle
	if m.focus == paneTable {
		left = focusedPaneStyle
	} else {
		right = focusedPaneStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(m.table.View()),
		right.Render(m.payload.View()),
	))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab switch pane • ↑/↓ scroll • q quit"))
	return b.String()
}

func (m *interactiveModel) summary() string {
	rep := m.rep
	parts := []string{fmt.Sprintf("%d strings", len(rep.table)),
		fmt.Sprintf("payload %d bytes @%d", len(rep.payload), rep.payloadOff)}
	if rep.header != nil {
		parts = append([]string{fmt.Sprintf("v%d %s checksum=%t",
			rep.header.Version, rep.header.Compression, rep.header.HasChecksum())}, parts...)
	} else {
		parts = append([]string{"raw blob"}, parts...)
	}
	return strings.Join(parts, " | ")
}

func runInteractive(rep *report, width int) error {
	p := tea.NewProgram(newInteractiveModel(rep, width), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
