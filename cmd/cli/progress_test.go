package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressOnlyForLongRuns(t *testing.T) {
	r := newProgressReporter(&bytes.Buffer{}, false)

	cb, every := r.callback(progressThreshold)
	assert.Nil(t, cb)
	assert.Zero(t, every)

	cb, every = r.callback(progressThreshold + 1)
	require.NotNil(t, cb)
	assert.Equal(t, progressStep, every)
}

func TestProgressLines(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressReporter(&buf, false)
	r.update(5, 100)
	r.update(10, 100)
	r.finish()
	assert.Equal(t, "generated 5/100 traces (5%)\ngenerated 10/100 traces (10%)\n", buf.String())
}

func TestProgressRedrawsOnTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressReporter(&buf, true)
	r.finish()
	assert.Empty(t, buf.String(), "nothing to close before the first update")

	r.update(60, 120)
	r.finish()
	assert.Equal(t, "\rGenerating traces 60/120 (50%)\n", buf.String())
}
