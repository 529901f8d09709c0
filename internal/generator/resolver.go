package generator

import (
	"math/rand/v2"
	"slices"

	"fiddler/domain/params"
	"fiddler/domain/trace"
)

// resolveTrace draws the concrete per-trace value of every scalar-or-range
// parameter. The draw order is part of the determinism contract.
func resolveTrace(p params.Parameters, src rand.Source) trace.Resolved {
	return trace.Resolved{
		TransProb:     p.TransProb.Resolve(src),
		Noise:         p.Noise.Resolve(src),
		BleedThrough:  p.BleedThrough.Resolve(src),
		AAMismatch:    p.AAMismatch.Resolve(src),
		ScalingFactor: p.ScalingFactor.Resolve(src),
	}
}

// resolveStateMeans returns the state means for one trace. Fixed means are
// used as given. Random means pick K in [2, RandomKStatesMax] and place K
// values in [RandomMeanMin, RandomMeanMax] with pairwise gaps of at least
// MinStateDiff.
//
// Random placement draws K points in the interval shrunk by the reserved
// gaps, sorts them and re-inserts the gaps. This is distributed exactly like
// redrawing uniform means until the spacing holds, but always terminates;
// Validate has already rejected configurations where no spacing exists.
func resolveStateMeans(p params.Parameters, r *rand.Rand) []float64 {
	if !p.StateMeans.IsRandom() {
		return p.StateMeans.Values()
	}

	k := 2 + r.IntN(p.RandomKStatesMax-1)
	slack := (params.RandomMeanMax - params.RandomMeanMin) - float64(k-1)*p.MinStateDiff

	means := make([]float64, k)
	for i := range means {
		means[i] = r.Float64() * slack
	}
	slices.Sort(means)
	for i := range means {
		means[i] += params.RandomMeanMin + float64(i)*p.MinStateDiff
	}
	return means
}
