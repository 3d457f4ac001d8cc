// Package console is the operator command surface: a small Bubble Tea
// program answering the single-key commands spec.md §6 names ('a' dumps
// neighbors, 'r' dumps routes, 'q' exits), a direct continuation of the
// teacher's own bubbletea/lipgloss stack applied to route/neighbor dumps
// instead of NDP statistics. Dumps render through bubbles/table rather
// than a pre-formatted string, continuing lib/display.go's column-table
// role with the teacher's own table widget.
package console

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sixrouter/router"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var (
	neighborColumns = []table.Column{
		{Title: "Address", Width: 40},
		{Title: "MAC", Width: 18},
		{Title: "Device", Width: 10},
	}
	routeColumns = []table.Column{
		{Title: "Prefix", Width: 40},
		{Title: "Route", Width: 30},
	}
)

// Model is the console's Bubble Tea state: the channel it sends dump
// requests on, and the table currently on screen.
type Model struct {
	requests chan<- router.DumpRequest
	title    string
	table    table.Model
	hasRows  bool
	quitting bool
}

// NewModel returns a console Model that asks the dispatcher goroutine for
// dumps over requests.
func NewModel(requests chan<- router.DumpRequest) Model {
	return Model{
		requests: requests,
		title:    "sixrouter console — a: neighbors  r: routes  q: quit",
		table:    newDumpTable(neighborColumns, nil),
	}
}

// Init satisfies tea.Model; there is no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles the three keys spec.md §6 defines for the console.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "a":
		rows := m.dump(router.DumpKindNeighbors)
		m.table = newDumpTable(neighborColumns, rows)
		m.hasRows = len(rows) > 0
	case "r":
		rows := m.dump(router.DumpKindRoutes)
		m.table = newDumpTable(routeColumns, rows)
		m.hasRows = len(rows) > 0
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View renders the header, the most recent dump table, and the help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	body := "press 'a' or 'r' to dump the router state"
	if m.hasRows {
		body = m.table.View()
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n", headerStyle.Render(m.title), body, helpStyle.Render("press 'q' to quit"))
}

// dump sends a DumpRequest of the given kind and blocks for the reply.
// The dispatcher goroutine always answers promptly since HandleDumpRequest
// is a synchronous local render, so a buffered reply channel is enough to
// avoid deadlocking the dispatcher's own select loop.
func (m Model) dump(kind router.DumpKind) []router.DumpRow {
	reply := make(chan []router.DumpRow, 1)
	m.requests <- router.DumpRequest{Kind: kind, Reply: reply}
	return <-reply
}

// newDumpTable builds a bubbles/table.Model for the given columns and
// rows. Height grows with the row count so short dumps don't carry empty
// trailing space the way a fixed-height table would.
func newDumpTable(cols []table.Column, rows []router.DumpRow) table.Model {
	trows := make([]table.Row, len(rows))
	for i, r := range rows {
		trows[i] = table.Row(r)
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(lipgloss.Color("39"))
	styles.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(trows),
		table.WithHeight(len(trows)+1),
		table.WithFocused(false),
	)
	t.SetStyles(styles)
	return t
}
