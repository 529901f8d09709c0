// Package report renders a human-readable description of a generation run
// as Markdown, optionally converted to a standalone HTML page.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"

	"fiddler/domain/run"
	"fiddler/internal/analysis"
)

// Markdown renders the run manifest and its batch summary.
func Markdown(m *run.Manifest, s *analysis.Summary) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fiddler run %s\n\n", m.RunID)
	fmt.Fprintf(&b, "- **Seed:** %d\n", m.Seed)
	fmt.Fprintf(&b, "- **Traces:** %d × %d frames\n", m.NTraces, m.TraceLength)
	fmt.Fprintf(&b, "- **Workers:** %d\n", m.Workers)
	fmt.Fprintf(&b, "- **Code version:** `%s`\n", m.Fingerprint.CodeVersion)
	fmt.Fprintf(&b, "- **Fingerprint:** `%s`\n", m.Fingerprint.Fingerprint.Short())
	fmt.Fprintf(&b, "- **Table hash:** `%s`\n", m.TableHash.Short())
	fmt.Fprintf(&b, "- **Created:** %s\n\n", m.CreatedAt)

	if err := writeParams(&b, m); err != nil {
		return "", err
	}
	writeLabels(&b, s)
	writeCategories(&b, s)
	writeDistributions(&b, s)
	writeHistogram(&b, s)
	return b.String(), nil
}

// HTML converts Markdown output into a complete HTML page.
func HTML(md string, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: title,
	})
	return markdown.ToHTML([]byte(md), p, r)
}

func writeParams(b *strings.Builder, m *run.Manifest) error {
	raw, err := yaml.Marshal(m.Params)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	var fields map[string]interface{}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decoding parameters: %w", err)
	}

	b.WriteString("## Parameters\n\n| parameter | value |\n|---|---|\n")
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		if v == nil {
			v = "None"
		}
		fmt.Fprintf(b, "| `%s` | %v |\n", k, v)
	}
	b.WriteString("\n")
	return nil
}

func writeLabels(b *strings.Builder, s *analysis.Summary) {
	b.WriteString("## Label balance\n\n| label | frames | fraction |\n|---|---:|---:|\n")
	labels := sortedKeys(s.LabelCounts)
	for _, l := range labels {
		fmt.Fprintf(b, "| %s | %d | %.3f |\n", l, s.LabelCounts[l], s.LabelFractions[l])
	}
	b.WriteString("\n")
}

func writeCategories(b *strings.Builder, s *analysis.Summary) {
	b.WriteString("## Traces\n\n| category | traces |\n|---|---:|\n")
	for _, c := range sortedKeys(s.Categories) {
		fmt.Fprintf(b, "| %s | %d |\n", c, s.Categories[c])
	}
	fmt.Fprintf(b, "\n%d of %d traces bleach inside the window; %d frames had a degenerate E or S.\n\n",
		s.BleachedTraces, s.NTraces, s.DegenerateFrames)
}

func writeDistributions(b *strings.Builder, s *analysis.Summary) {
	rows := []struct {
		name string
		d    *analysis.Distribution
	}{
		{"bleach frame", s.BleachTimes},
		{"aggregate size", s.AggregateSizes},
		{"apparent E", s.ApparentE},
		{"noise", s.Noise},
		{"trans_prob", s.TransProb},
		{"au_scaling_factor", s.ScalingFactor},
	}
	b.WriteString("## Distributions\n\n| quantity | n | mean | std | min | q25 | median | q75 | max |\n|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range rows {
		if r.d == nil {
			continue
		}
		d := r.d
		fmt.Fprintf(b, "| %s | %d | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g | %.4g |\n",
			r.name, d.N, d.Mean, d.StdDev, d.Min, d.Q25, d.Median, d.Q75, d.Max)
	}
	if s.ECorrelation != nil {
		fmt.Fprintf(b, "\nCorrelation of apparent and true E: %.4f\n", *s.ECorrelation)
	}
	b.WriteString("\n")
}

func writeHistogram(b *strings.Builder, s *analysis.Summary) {
	peak := 0
	for _, bin := range s.EHistogram {
		peak = max(peak, bin.Count)
	}
	if peak == 0 {
		return
	}
	b.WriteString("## Apparent E\n\n```\n")
	for _, bin := range s.EHistogram {
		bar := strings.Repeat("#", bin.Count*40/peak)
		fmt.Fprintf(b, "%5.2f %-40s %d\n", bin.Low, bar, bin.Count)
	}
	b.WriteString("```\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
