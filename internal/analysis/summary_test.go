package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiddler/domain/params"
	"fiddler/domain/trace"
	"fiddler/internal/generator"
	"fiddler/internal/testkit"
)

func TestSummarizeHandBuiltTable(t *testing.T) {
	b := 2
	tbl := &trace.Table{Traces: []*trace.Trace{
		{
			Name:       0,
			BleachesAt: &b,
			StateMeans: []float64{0.3, 0.7},
			Resolved:   trace.Resolved{Noise: 0.1, TransProb: 0.05, ScalingFactor: 1},
			Frames: []trace.Frame{
				{Frame: 0, E: 0.3, ETrue: 0.3, Label: trace.StateLabel(2)},
				{Frame: 1, E: 0.7, ETrue: 0.7, Label: trace.StateLabel(2)},
				{Frame: 2, E: 0.7, ETrue: -1, Label: trace.Bleached},
			},
		},
		{
			Name:          1,
			Category:      trace.AggregateTrace,
			AggregateSize: 3,
			StateMeans:    []float64{0.3, 0.7},
			Resolved:      trace.Resolved{Noise: 0.3, TransProb: 0.15, ScalingFactor: 1},
			Frames: []trace.Frame{
				{Frame: 0, E: 5, ETrue: -1, Label: trace.Aggregate},
				{Frame: 1, E: -4, ETrue: -1, Label: trace.Aggregate},
				{Frame: 2, E: 0.5, ETrue: -1, Label: trace.Aggregate},
			},
		},
	}}

	s, err := Summarize(tbl)
	require.NoError(t, err)

	assert.Equal(t, 2, s.NTraces)
	assert.Equal(t, 3, s.TraceLength)
	assert.Equal(t, 6, s.Frames)
	assert.Equal(t, map[string]int{"2-state": 2, "bleached": 1, "aggregate": 3}, s.LabelCounts)
	assert.InDelta(t, 0.5, s.LabelFractions["aggregate"], 1e-12)
	assert.Equal(t, map[string]int{"normal": 1, "aggregate": 1}, s.Categories)
	assert.Equal(t, map[int]int{2: 2}, s.StateCounts)

	assert.Equal(t, 1, s.BleachedTraces)
	require.NotNil(t, s.BleachTimes)
	assert.Equal(t, 2.0, s.BleachTimes.Mean)
	require.NotNil(t, s.AggregateSizes)
	assert.Equal(t, 3.0, s.AggregateSizes.Max)

	require.NotNil(t, s.ApparentE)
	assert.Equal(t, 2, s.ApparentE.N)
	assert.InDelta(t, 0.5, s.ApparentE.Mean, 1e-12)
	require.NotNil(t, s.ECorrelation)
	assert.InDelta(t, 1.0, *s.ECorrelation, 1e-12)
	assert.InDelta(t, 0.2, s.Noise.Mean, 1e-12)

	total := 0
	for _, bin := range s.EHistogram {
		total += bin.Count
	}
	assert.Equal(t, 2, total)
	assert.Len(t, s.EHistogram, histBins)
}

func TestSummarizeEmptyTable(t *testing.T) {
	s, err := Summarize(&trace.Table{})
	require.NoError(t, err)
	assert.Nil(t, s.BleachTimes)
	assert.Nil(t, s.ApparentE)
	assert.Nil(t, s.ECorrelation)
}

func TestHistogramClampsOutliers(t *testing.T) {
	bins := histogram([]float64{-10, 0.05, 0.05, 1.19, 1.2, 99})
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 3, bins[len(bins)-1].Count)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 6, total)
}

func TestSummarizeGeneratedRun(t *testing.T) {
	p := testkit.QuietParams()
	p.NTraces = 40
	p.DonorLifetime = params.Lifetime(30)
	p.BleedThrough = params.Fixed(0)
	res, err := generator.New(generator.WithLogger(testkit.Logger(t))).Generate(context.Background(),
		generator.Request{Params: p, RNG: testkit.Streams(t)})
	require.NoError(t, err)

	s, err := Summarize(res.Table)
	require.NoError(t, err)
	assert.Equal(t, p.NTraces*p.TraceLength, s.Frames)
	assert.Equal(t, p.NTraces, s.Categories["normal"])
	assert.Greater(t, s.BleachedTraces, 30)
	require.NotNil(t, s.ECorrelation)
	assert.Greater(t, *s.ECorrelation, 0.99)
}
