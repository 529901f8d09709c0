package params

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"fiddler/domain/core"
)

func TestFixedResolvesExactly(t *testing.T) {
	src := rand.NewPCG(1, 2)
	p := Fixed(0.137)
	for i := 0; i < 1000; i++ {
		require.Equal(t, 0.137, p.Resolve(src))
	}
}

func TestRangeResolvesInsideBoundsAndRoughlyUniform(t *testing.T) {
	src := rand.NewPCG(7, 11)
	p := Range(0.2, 0.6)

	const n = 20000
	buckets := make([]int, 4)
	for i := 0; i < n; i++ {
		v := p.Resolve(src)
		require.GreaterOrEqual(t, v, 0.2)
		require.LessOrEqual(t, v, 0.6)
		idx := int((v - 0.2) / 0.1)
		if idx == 4 {
			idx = 3
		}
		buckets[idx]++
	}
	for i, c := range buckets {
		assert.InDelta(t, n/4, c, n*0.03, "bucket %d", i)
	}
}

func TestDegenerateRangeIsExact(t *testing.T) {
	assert.Equal(t, 0.4, Range(0.4, 0.4).Resolve(rand.NewPCG(1, 1)))
}

func TestParamDecoding(t *testing.T) {
	var doc struct {
		A Param `yaml:"a" json:"a"`
		B Param `yaml:"b" json:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 0.05\nb: [0.01, 0.3]\n"), &doc))
	assert.False(t, doc.A.IsRange())
	assert.Equal(t, 0.05, doc.A.Value())
	assert.True(t, doc.B.IsRange())
	lo, hi := doc.B.Bounds()
	assert.Equal(t, []float64{0.01, 0.3}, []float64{lo, hi})

	require.NoError(t, json.Unmarshal([]byte(`{"a": [0.1, 0.2], "b": 3}`), &doc))
	assert.True(t, doc.A.IsRange())
	assert.Equal(t, 3.0, doc.B.Value())

	err := yaml.Unmarshal([]byte("a: [1, 2, 3]\n"), &doc)
	assert.True(t, core.IsConfigurationError(err), "got %v", err)
}

func TestParseMeans(t *testing.T) {
	assert.Equal(t, []float64{0.2, 0.5, 0.8}, ParseMeans("0.2, 0.5;0.8"))
	assert.Equal(t, []float64{0.1, 1}, ParseMeans("states: 0.1 and 1"))
	assert.Empty(t, ParseMeans("none"))

	m, err := ParseStateMeans("Random")
	require.NoError(t, err)
	assert.True(t, m.IsRandom())

	_, err = ParseStateMeans("---")
	assert.True(t, core.IsConfigurationError(err))
}

func TestStateMeansYAML(t *testing.T) {
	var doc struct {
		M StateMeans `yaml:"m"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("m: random\n"), &doc))
	assert.True(t, doc.M.IsRandom())

	require.NoError(t, yaml.Unmarshal([]byte("m: [0.2, 0.8]\n"), &doc))
	assert.Equal(t, []float64{0.2, 0.8}, doc.M.Values())

	require.NoError(t, yaml.Unmarshal([]byte("m: \"0.3 0.7\"\n"), &doc))
	assert.Equal(t, []float64{0.3, 0.7}, doc.M.Values())
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Parameters)
		field  string
	}{
		{"zero traces", func(p *Parameters) { p.NTraces = 0 }, "n_traces"},
		{"zero length", func(p *Parameters) { p.TraceLength = 0 }, "trace_length"},
		{"inverted range", func(p *Parameters) { p.Noise = Range(0.3, 0.1) }, "noise"},
		{"trans prob above one", func(p *Parameters) { p.TransProb = Fixed(1.5) }, "trans_prob"},
		{"negative lifetime", func(p *Parameters) { p.DonorLifetime = Lifetime(-3) }, "d_lifetime"},
		{"blink prob", func(p *Parameters) { p.BlinkProb = 1.2 }, "blink_prob"},
		{"aggregate and scramble", func(p *Parameters) { p.AggregationProb, p.ScrambleProb = 0.7, 0.6 }, "scramble_prob"},
		{"empty means", func(p *Parameters) { p.StateMeans = FixedMeans() }, "state_means"},
		{"means too close", func(p *Parameters) { p.StateMeans = FixedMeans(0.2, 0.3) }, "state_means"},
		{"mean outside unit", func(p *Parameters) { p.StateMeans = FixedMeans(1.4) }, "state_means"},
		{"k max too small", func(p *Parameters) { p.RandomKStatesMax = 1 }, "random_k_states_max"},
		{"k max infeasible", func(p *Parameters) { p.RandomKStatesMax = 8 }, "random_k_states_max"},
		{"aggregate size", func(p *Parameters) { p.MaxAggregateSize = 1 }, "max_aggregate_size"},
		{"discard without lifetime", func(p *Parameters) {
			p.DiscardUnbleached = true
			p.DonorLifetime, p.AcceptorLifetime = nil, nil
		}, "discard_unbleached"},
		{"matrix with random means", func(p *Parameters) { p.TransitionMatrix = [][]float64{{1}} }, "transition_matrix"},
		{"matrix rows", func(p *Parameters) {
			p.StateMeans = FixedMeans(0.2, 0.8)
			p.TransitionMatrix = [][]float64{{0.9, 0.2}, {0.5, 0.5}}
		}, "transition_matrix"},
		{"nan matrix entry", func(p *Parameters) {
			p.StateMeans = FixedMeans(0.2, 0.8)
			p.TransitionMatrix = [][]float64{{math.NaN(), 1}, {0.5, 0.5}}
		}, "transition_matrix"},
		{"nan noise", func(p *Parameters) { p.Noise = Fixed(math.NaN()) }, "noise"},
		{"infinite noise bound", func(p *Parameters) { p.Noise = Range(0, math.Inf(1)) }, "noise"},
		{"infinite aa mismatch", func(p *Parameters) { p.AAMismatch = Fixed(math.Inf(1)) }, "aa_mismatch"},
		{"infinite scaling", func(p *Parameters) { p.ScalingFactor = Fixed(math.Inf(1)) }, "au_scaling_factor"},
		{"nan trans prob", func(p *Parameters) { p.TransProb = Range(math.NaN(), 0.1) }, "trans_prob"},
		{"infinite lifetime", func(p *Parameters) { p.AcceptorLifetime = Lifetime(math.Inf(1)) }, "a_lifetime"},
		{"nan lifetime", func(p *Parameters) { p.DonorLifetime = Lifetime(math.NaN()) }, "d_lifetime"},
		{"infinite blink duration", func(p *Parameters) { p.BlinkMeanDuration = math.Inf(1) }, "blink_mean_duration"},
		{"nan blink duration", func(p *Parameters) { p.BlinkMeanDuration = math.NaN() }, "blink_mean_duration"},
		{"nan min state diff", func(p *Parameters) { p.MinStateDiff = math.NaN() }, "min_state_diff"},
		{"infinite acceptable noise", func(p *Parameters) { p.AcceptableNoise = math.Inf(1) }, "acceptable_noise"},
		{"nan null fret value", func(p *Parameters) { p.NullFRETValue = math.NaN() }, "null_fret_value"},
		{"nan mean", func(p *Parameters) { p.StateMeans = FixedMeans(0.2, math.NaN()) }, "state_means"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			var cfgErr *core.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestHashChangesWithParameters(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Hash(), b.Hash())

	b.Noise = Fixed(0.05)
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := Default()
	c.DonorLifetime = nil
	assert.NotEqual(t, a.Hash(), c.Hash())
}
