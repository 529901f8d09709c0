package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiddler/domain/run"
	"fiddler/internal/analysis"
	"fiddler/internal/generator"
	"fiddler/internal/testkit"
)

func build(t *testing.T) (*run.Manifest, *analysis.Summary) {
	t.Helper()
	p := testkit.SmallParams()
	res, err := generator.New(generator.WithLogger(testkit.Logger(t))).Generate(context.Background(),
		generator.Request{Params: p, RNG: testkit.Streams(t)})
	require.NoError(t, err)
	m, err := run.NewManifest(p, res.Seed, 1, res.Table)
	require.NoError(t, err)
	s, err := analysis.Summarize(res.Table)
	require.NoError(t, err)
	return m, s
}

func TestMarkdownSections(t *testing.T) {
	m, s := build(t)
	md, err := Markdown(m, s)
	require.NoError(t, err)

	for _, want := range []string{
		"# Fiddler run " + m.RunID.String(),
		"- **Seed:** 1337",
		"## Parameters",
		"| `n_traces` | 24 |",
		"| `state_means` | [0.25 0.75] |",
		"## Label balance",
		"## Distributions",
		"| apparent E |",
		"## Apparent E",
	} {
		assert.Contains(t, md, want)
	}
}

func TestHTMLIsCompletePage(t *testing.T) {
	m, s := build(t)
	md, err := Markdown(m, s)
	require.NoError(t, err)

	page := string(HTML(md, "Fiddler report"))
	assert.True(t, strings.Contains(page, "<html"))
	assert.Contains(t, page, "<title>Fiddler report</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "Label balance")
}
