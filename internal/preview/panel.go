// Package preview renders generated traces in the terminal: one panel per
// trace with intensity, FRET and stoichiometry sparklines over a label strip,
// arranged in a grid that an interactive browser can page through.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fiddler/domain/trace"
)

// Panel renders one trace.
func Panel(tr *trace.Trace, width int, active bool) string {
	inner := max(width-4, 8)
	chart := inner - 5

	lo, hi := intensityRange(tr)
	rows := []string{
		panelTitleStyle.Render(fmt.Sprintf("FRET pair #%d", tr.Name)) + " " +
			panelMetaStyle.Render(describe(tr)),
		row("DD", NewSparkline(tr.Column("DD"), chart, colorDonor).WithScale(lo, hi)),
		row("DA", NewSparkline(tr.Column("DA"), chart, colorAcceptor).WithScale(lo, hi)),
		row("AA", NewSparkline(tr.Column("AA"), chart, colorDirect).WithScale(lo, hi)),
		row("E", NewSparkline(tr.Column("E"), chart, colorFRET).WithScale(-0.1, 1.1)),
		row("S", NewSparkline(tr.Column("S"), chart, colorStoich).WithScale(-0.1, 1.1)),
		rowLabelStyle.Render("") + LabelStrip(tr.Labels(), chart),
	}

	style := panelStyle
	if active {
		style = panelActiveStyle
	}
	return style.Width(inner).Render(strings.Join(rows, "\n"))
}

// Grid lays out panels cols to a row. selected is highlighted; pass -1 for
// none.
func Grid(traces []*trace.Trace, cols, width, selected int) string {
	if cols < 1 {
		cols = 1
	}
	panelWidth := max(width/cols, 16)

	var lines []string
	for start := 0; start < len(traces); start += cols {
		end := min(start+cols, len(traces))
		panels := make([]string, 0, cols)
		for i := start; i < end; i++ {
			panels = append(panels, Panel(traces[i], panelWidth, i == selected))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Static renders the first n×n traces of a table as a grid without starting
// the interactive browser.
func Static(table *trace.Table, n, width int) string {
	count := min(n*n, table.Len())
	return Grid(table.Traces[:count], n, width, -1) + "\n" + Legend()
}

// Legend explains the label strip colors.
func Legend() string {
	labels := []trace.Label{trace.Bleached, trace.Aggregate, trace.Noisy, trace.Scramble,
		trace.StateLabel(1), trace.StateLabel(2), trace.StateLabel(3), trace.StateLabel(4)}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = lipgloss.NewStyle().Foreground(labelColor(l)).Render("▀") + " " + hintDescStyle.Render(l.String())
	}
	return strings.Join(parts, "  ")
}

func row(name string, s Sparkline) string {
	return rowLabelStyle.Render(name) + s.Render()
}

func describe(tr *trace.Trace) string {
	parts := []string{tr.Category.String()}
	if tr.Category == trace.AggregateTrace {
		parts = append(parts, fmt.Sprintf("x%d", tr.AggregateSize))
	}
	parts = append(parts, fmt.Sprintf("K=%d", len(tr.StateMeans)))
	parts = append(parts, "bleach "+tr.BleachString())
	return strings.Join(parts, " · ")
}

// intensityRange is the common scale of the three intensity channels.
func intensityRange(tr *trace.Trace) (lo, hi float64) {
	if tr.Len() == 0 {
		return 0, 1
	}
	lo, hi = tr.Frames[0].DD, tr.Frames[0].DD
	for _, f := range tr.Frames {
		lo = min(lo, f.DD, f.DA, f.AA)
		hi = max(hi, f.DD, f.DA, f.AA)
	}
	if lo == 0 && hi == 0 {
		hi = 1
	}
	return lo, hi
}
