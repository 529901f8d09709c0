package preview

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fiddler/domain/trace"
)

// Batch is one generated examples grid.
type Batch struct {
	Table *trace.Table
	Seed  int64
}

// Regenerate produces a fresh batch; the browser calls it on "r".
type Regenerate func(ctx context.Context) (Batch, error)

// Model is the bubbletea model of the trace browser. It shows an n×n grid
// of example traces and pages through the table when it holds more.
type Model struct {
	regen Regenerate
	n     int

	batch    Batch
	selected int
	page     int

	width   int
	height  int
	loading bool
	status  string
	err     error
}

// NewModel creates a browser over batch showing n×n traces per page. regen
// may be nil, which disables regeneration.
func NewModel(batch Batch, n int, regen Regenerate) Model {
	return Model{
		regen:  regen,
		n:      max(n, 1),
		batch:  batch,
		width:  120,
		status: statusLine(batch),
	}
}

type batchMsg Batch
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) regenerate() tea.Cmd {
	regen := m.regen
	return func() tea.Msg {
		b, err := regen(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return batchMsg(b)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case batchMsg:
		m.batch = Batch(msg)
		m.selected, m.page = 0, 0
		m.loading = false
		m.err = nil
		m.status = statusLine(m.batch)
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		m.status = fmt.Sprintf("Error: %v", msg.err)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	perPage := m.n * m.n
	total := m.batch.Table.Len()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l":
		m.move(1)
	case "left", "h":
		m.move(-1)
	case "down", "j":
		m.move(m.n)
	case "up", "k":
		m.move(-m.n)
	case "n", "]":
		if (m.page+1)*perPage < total {
			m.page++
			m.selected = m.page * perPage
		}
	case "p", "[":
		if m.page > 0 {
			m.page--
			m.selected = m.page * perPage
		}
	case "r":
		if m.regen != nil && !m.loading {
			m.loading = true
			m.status = "Generating..."
			return m, m.regenerate()
		}
	}
	return m, nil
}

// move shifts the selection within the current page.
func (m *Model) move(delta int) {
	perPage := m.n * m.n
	first := m.page * perPage
	last := min(first+perPage, m.batch.Table.Len()) - 1
	next := m.selected + delta
	if next >= first && next <= last {
		m.selected = next
	}
}

// Selected returns the highlighted trace name.
func (m Model) Selected() int { return m.selected }

// Page returns the zero-based page index.
func (m Model) Page() int { return m.page }

func (m Model) View() string {
	perPage := m.n * m.n
	first := m.page * perPage
	last := min(first+perPage, m.batch.Table.Len())

	var b strings.Builder
	if m.batch.Table.Len() > 0 {
		b.WriteString(Grid(m.batch.Table.Traces[first:last], m.n, m.width, m.selected-first))
		b.WriteString("\n")
	}
	b.WriteString(Legend())
	b.WriteString("\n")

	status := m.status
	if m.err != nil {
		status = errorStyle.Render(status)
	}
	pages := (m.batch.Table.Len() + perPage - 1) / perPage
	b.WriteString(statusStyle.Width(m.width).Render(
		fmt.Sprintf("%s  page %d/%d", status, m.page+1, max(pages, 1))))
	b.WriteString("\n")
	b.WriteString(hints())
	return b.String()
}

func statusLine(b Batch) string {
	counts := b.Table.LabelCounts()
	return fmt.Sprintf("seed %d  %d traces  bleached frames %d", b.Seed, b.Table.Len(), counts[trace.Bleached])
}

func hints() string {
	pairs := [][2]string{{"←↓↑→", "select"}, {"n/p", "page"}, {"r", "regenerate"}, {"q", "quit"}}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = hintKeyStyle.Render(p[0]) + " " + hintDescStyle.Render(p[1])
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "   "))
}
