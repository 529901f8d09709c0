package preview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fiddler/domain/trace"
)

// sparkBlocks are Unicode block elements for 8 levels of height.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a time series as a one-line Unicode bar chart.
type Sparkline struct {
	Data  []float64
	Width int
	Color lipgloss.Color
	// Min and Max fix the vertical scale so several channels can be
	// compared; when both are zero the data range is used.
	Min, Max float64
}

// NewSparkline creates a sparkline scaled to its own data.
func NewSparkline(data []float64, width int, color lipgloss.Color) Sparkline {
	return Sparkline{Data: data, Width: width, Color: color}
}

// WithScale fixes the vertical range.
func (s Sparkline) WithScale(lo, hi float64) Sparkline {
	s.Min, s.Max = lo, hi
	return s
}

// Render produces the sparkline string.
func (s Sparkline) Render() string {
	if len(s.Data) == 0 || s.Width <= 0 {
		return ""
	}

	lo, hi := s.Min, s.Max
	if lo == 0 && hi == 0 {
		lo, hi = dataRange(s.Data)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range sample(s.Data, s.Width) {
		idx := int((v - lo) / span * 7)
		idx = min(max(idx, 0), 7)
		b.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(s.Color).Render(b.String())
}

// LabelStrip renders one colored block per column, colored by the label of
// the frame the column samples. Runs are rendered together so the output
// stays short.
func LabelStrip(labels []trace.Label, width int) string {
	if len(labels) == 0 || width <= 0 {
		return ""
	}
	cols := sampleIndices(len(labels), width)
	sampled := make([]trace.Label, len(cols))
	for i, idx := range cols {
		sampled[i] = labels[idx]
	}

	var b strings.Builder
	for _, seg := range trace.Segments(sampled) {
		style := lipgloss.NewStyle().Foreground(labelColor(seg.Label))
		b.WriteString(style.Render(strings.Repeat("▀", seg.Length)))
	}
	return b.String()
}

func dataRange(data []float64) (lo, hi float64) {
	lo, hi = data[0], data[0]
	for _, v := range data {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// sample reduces data points to fit within width.
func sample(data []float64, width int) []float64 {
	idx := sampleIndices(len(data), width)
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = data[j]
	}
	return out
}

func sampleIndices(n, width int) []int {
	if n <= width {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, width)
	ratio := float64(n) / float64(width)
	for i := range out {
		out[i] = min(int(float64(i)*ratio), n-1)
	}
	return out
}
