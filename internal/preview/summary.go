package preview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fiddler/domain/run"
	"fiddler/internal/analysis"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorFRET).Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	sectionStyle     = lipgloss.NewStyle().Foreground(colorText).Bold(true).MarginTop(1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDivider)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers(headers...)
}

// Summary renders a batch summary as terminal tables.
func Summary(s *analysis.Summary) string {
	var sections []string

	sections = append(sections, sectionStyle.Render(
		fmt.Sprintf("%d traces × %d frames, %d bleached inside the window", s.NTraces, s.TraceLength, s.BleachedTraces)))

	labels := newTable("label", "frames", "fraction")
	for _, name := range sortedNames(s.LabelCounts) {
		labels.Row(name, fmt.Sprint(s.LabelCounts[name]), fmt.Sprintf("%.3f", s.LabelFractions[name]))
	}
	sections = append(sections, labels.Render())

	cats := newTable("category", "traces")
	for _, name := range sortedNames(s.Categories) {
		cats.Row(name, fmt.Sprint(s.Categories[name]))
	}
	ks := make([]int, 0, len(s.StateCounts))
	for k := range s.StateCounts {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	for _, k := range ks {
		cats.Row(fmt.Sprintf("K=%d", k), fmt.Sprint(s.StateCounts[k]))
	}
	sections = append(sections, cats.Render())

	dists := newTable("quantity", "n", "mean", "std", "min", "median", "max")
	for _, d := range []struct {
		name string
		d    *analysis.Distribution
	}{
		{"bleach frame", s.BleachTimes},
		{"aggregate size", s.AggregateSizes},
		{"apparent E", s.ApparentE},
		{"noise", s.Noise},
		{"trans_prob", s.TransProb},
		{"au_scaling_factor", s.ScalingFactor},
	} {
		if d.d == nil {
			continue
		}
		dists.Row(d.name, fmt.Sprint(d.d.N), num(d.d.Mean), num(d.d.StdDev), num(d.d.Min), num(d.d.Median), num(d.d.Max))
	}
	sections = append(sections, dists.Render())

	if s.ECorrelation != nil {
		sections = append(sections, panelMetaStyle.Render(fmt.Sprintf("corr(E, E_true) = %.4f", *s.ECorrelation)))
	}
	return strings.Join(sections, "\n")
}

// Runs renders archived run manifests, one row per run.
func Runs(runs []*run.Manifest) string {
	t := newTable("run id", "created", "seed", "traces", "length", "table")
	for _, m := range runs {
		t.Row(m.RunID.String(), m.CreatedAt.String(), fmt.Sprint(m.Seed),
			fmt.Sprint(m.NTraces), fmt.Sprint(m.TraceLength), m.TableHash.Short())
	}
	return t.Render()
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func sortedNames(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
