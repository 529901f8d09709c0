package generator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiddler/domain/params"
	"fiddler/domain/trace"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xabcdef))
}

func TestChainWithoutTransitionsStaysPut(t *testing.T) {
	states := newChain(3, 0, nil).sample(500, newRand(1))
	for _, s := range states {
		require.Equal(t, states[0], s)
	}
	assert.Equal(t, 1, distinctBefore(states, len(states)))
}

func TestChainJumpRate(t *testing.T) {
	const n = 20000
	states := newChain(2, 0.1, nil).sample(n, newRand(2))

	jumps := 0
	for i := 1; i < n; i++ {
		if states[i] != states[i-1] {
			jumps++
		}
	}
	assert.InDelta(t, 0.1, float64(jumps)/float64(n-1), 0.01)
}

func TestChainMatrixForm(t *testing.T) {
	// State 0 always moves to 1, state 1 always back to 0.
	c := newChain(2, 0, [][]float64{{0, 1}, {1, 0}})
	states := c.sample(50, newRand(3))
	for i := 1; i < len(states); i++ {
		require.NotEqual(t, states[i-1], states[i])
	}
}

func TestDistinctBefore(t *testing.T) {
	states := []int{0, 0, 1, 1, 2}
	assert.Equal(t, 0, distinctBefore(states, 0))
	assert.Equal(t, 1, distinctBefore(states, 2))
	assert.Equal(t, 2, distinctBefore(states, 4))
	assert.Equal(t, 3, distinctBefore(states, 5))
}

func TestDrawBleach(t *testing.T) {
	src := rand.NewPCG(4, 4)
	assert.Nil(t, drawBleach(nil, 100, src))

	for i := 0; i < 1000; i++ {
		b := drawBleach(params.Lifetime(20), 100, src)
		if b != nil {
			require.GreaterOrEqual(t, *b, 0)
			require.Less(t, *b, 100)
		}
	}
}

func TestMinBleach(t *testing.T) {
	three, five := 3, 5
	assert.Nil(t, minBleach(nil, nil))
	assert.Equal(t, &three, minBleach(&three, nil))
	assert.Equal(t, &three, minBleach(nil, &three))
	assert.Equal(t, 3, *minBleach(&five, &three))
	assert.Equal(t, 3, *minBleach(&three, &five))
}

func TestGeometricMean(t *testing.T) {
	r := newRand(5)
	assert.Equal(t, 1, geometric(1, r))

	const n = 20000
	sum := 0
	for i := 0; i < n; i++ {
		v := geometric(5, r)
		require.GreaterOrEqual(t, v, 1)
		sum += v
	}
	assert.InDelta(t, 5.0, float64(sum)/n, 0.2)
}

func TestDarkMasks(t *testing.T) {
	donor, acceptor := darkMasks(100, 0, 5, newRand(6))
	assert.NotContains(t, donor, true)
	assert.NotContains(t, acceptor, true)

	donor, acceptor = darkMasks(2000, 0.05, 5, newRand(7))
	dark := 0
	for i := range donor {
		if donor[i] || acceptor[i] {
			dark++
		}
	}
	assert.Greater(t, dark, 0)
	assert.Less(t, dark, len(donor))
}

func TestChooseCategoryRates(t *testing.T) {
	p := params.Default()
	p.AggregationProb = 0.2
	p.ScrambleProb = 0.3

	r := newRand(8)
	const n = 50000
	counts := map[trace.Category]int{}
	for i := 0; i < n; i++ {
		counts[chooseCategory(p, r)]++
	}
	assert.InDelta(t, 0.2, float64(counts[trace.AggregateTrace])/n, 0.01)
	assert.InDelta(t, 0.3, float64(counts[trace.ScrambleTrace])/n, 0.01)
	assert.InDelta(t, 0.5, float64(counts[trace.Normal])/n, 0.01)
}

func TestResolveStateMeansSpacing(t *testing.T) {
	p := params.Default()
	p.RandomKStatesMax = 5
	p.MinStateDiff = 0.24
	r := newRand(9)

	for i := 0; i < 2000; i++ {
		means := resolveStateMeans(p, r)
		require.GreaterOrEqual(t, len(means), 2)
		require.LessOrEqual(t, len(means), 5)
		require.GreaterOrEqual(t, means[0], params.RandomMeanMin)
		require.LessOrEqual(t, means[len(means)-1], params.RandomMeanMax+1e-12)
		for j := 1; j < len(means); j++ {
			require.GreaterOrEqual(t, means[j]-means[j-1], p.MinStateDiff-1e-12)
		}
	}

	p.StateMeans = params.FixedMeans(0.3, 0.7)
	assert.Equal(t, []float64{0.3, 0.7}, resolveStateMeans(p, r))
}

func TestRatiosHoldPreviousValueOnDegenerateFrames(t *testing.T) {
	c := channels{
		dd: []float64{0, 1, 0, 0},
		da: []float64{0, 1, 0, 0},
		aa: []float64{0, 2, 3, 0},
	}
	e, s, degenerate := ratios(c, -1)

	assert.Equal(t, []float64{-1, 0.5, 0.5, 0.5}, e)
	assert.Equal(t, []float64{-1, 0.5, 0, 0}, s)
	assert.Equal(t, 3, degenerate)
	for _, v := range append(e, s...) {
		assert.False(t, math.IsNaN(v))
	}
}

func TestSimulateMoleculeIntensityModel(t *testing.T) {
	p := params.Default()
	p.TraceLength = 50
	p.DonorLifetime = nil
	p.AcceptorLifetime = nil
	p.BlinkProb = 0
	res := trace.Resolved{TransProb: 0, BleedThrough: 0.1, AAMismatch: 0.2, ScalingFactor: 2}

	mol := simulateMolecule(p, res, []float64{0.4}, rand.NewPCG(10, 10), newRand(10))
	for t0 := 0; t0 < p.TraceLength; t0++ {
		require.InDelta(t, 2*(1-0.4), mol.ideal.dd[t0], 1e-12)
		require.InDelta(t, 2*0.4+0.1*2*(1-0.4), mol.ideal.da[t0], 1e-12)
		require.InDelta(t, 2*1.2, mol.ideal.aa[t0], 1e-12)
	}
}
