package preview

import (
	"github.com/charmbracelet/lipgloss"

	"fiddler/domain/trace"
)

// Channel colors follow the convention of trace viewers: green donor,
// red acceptor, purple direct acceptor excitation.
var (
	colorText      = lipgloss.Color("#e6edf3")
	colorTextDim   = lipgloss.Color("#8b949e")
	colorTextMuted = lipgloss.Color("#484f58")
	colorDivider   = lipgloss.Color("#30363d")
	colorSurface   = lipgloss.Color("#1c2128")

	colorDonor    = lipgloss.Color("#3fb950")
	colorAcceptor = lipgloss.Color("#f85149")
	colorDirect   = lipgloss.Color("#bc8cff")
	colorFRET     = lipgloss.Color("#58a6ff")
	colorStoich   = lipgloss.Color("#d29922")
	colorSelected = lipgloss.Color("#1f6feb")
)

// labelColors colors the label strip under each panel.
var labelColors = map[trace.Label]lipgloss.Color{
	trace.Bleached:  colorTextMuted,
	trace.Aggregate: lipgloss.Color("#db6d28"),
	trace.Noisy:     colorTextDim,
	trace.Scramble:  lipgloss.Color("#f778ba"),
}

// stateColors cycles for k-state labels.
var stateColors = []lipgloss.Color{"#76e3ea", "#58a6ff", "#3fb950", "#d29922", "#bc8cff"}

func labelColor(l trace.Label) lipgloss.Color {
	if c, ok := labelColors[l]; ok {
		return c
	}
	k := l.States()
	return stateColors[(k-1)%len(stateColors)]
}

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDivider).
			Padding(0, 1)

	panelActiveStyle = panelStyle.
				BorderForeground(colorSelected)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(colorFRET).
			Bold(true)

	panelMetaStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	rowLabelStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Width(3)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Background(colorSurface).
			Padding(0, 1)

	hintKeyStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	hintDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorAcceptor).
			Bold(true)
)
