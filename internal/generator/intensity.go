package generator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"fiddler/domain/params"
	"fiddler/domain/trace"
)

// degenerateEps is the smallest denominator E and S are computed from.
const degenerateEps = 1e-12

// channels holds the three observed intensity series of one trace.
type channels struct {
	dd, da, aa []float64
}

func newChannels(n int) channels {
	return channels{dd: make([]float64, n), da: make([]float64, n), aa: make([]float64, n)}
}

// add sums other into c frame by frame.
func (c channels) add(other channels) {
	for t := range c.dd {
		c.dd[t] += other.dd[t]
		c.da[t] += other.da[t]
		c.aa[t] += other.aa[t]
	}
}

// molecule is one donor-acceptor pair with its hidden state path and
// photophysical history.
type molecule struct {
	states         []int
	donorBleach    *int
	acceptorBleach *int
	ideal          channels
}

// bleachesAt is the first frame at which either fluorophore is gone.
func (m molecule) bleachesAt() *int {
	return minBleach(m.donorBleach, m.acceptorBleach)
}

// simulateMolecule samples the state path, bleaching and blinking of one
// molecule and converts them to noise-free intensities:
//
//	DD = s(1-E)   DA = sE + b·DD   AA = s(1+m)
//
// with s the scaling factor, b the bleed-through and m the acceptor-excitation
// mismatch. A dark or bleached acceptor stops energy transfer, so the donor
// emits at full intensity; a dark or bleached donor silences both
// donor-excitation channels.
func simulateMolecule(p params.Parameters, res trace.Resolved, means []float64, src rand.Source, r *rand.Rand) molecule {
	n := p.TraceLength
	states := newChain(len(means), res.TransProb, p.TransitionMatrix).sample(n, r)
	donorBleach := drawBleach(p.DonorLifetime, n, src)
	acceptorBleach := drawBleach(p.AcceptorLifetime, n, src)
	donorDark, acceptorDark := darkMasks(n, p.BlinkProb, p.BlinkMeanDuration, r)

	s, b := res.ScalingFactor, res.BleedThrough
	ideal := newChannels(n)
	for t := 0; t < n; t++ {
		donorOn := (donorBleach == nil || t < *donorBleach) && !donorDark[t]
		acceptorOn := (acceptorBleach == nil || t < *acceptorBleach) && !acceptorDark[t]

		e := means[states[t]]
		switch {
		case donorOn && acceptorOn:
			ideal.dd[t] = s * (1 - e)
			ideal.da[t] = s*e + b*ideal.dd[t]
		case donorOn:
			ideal.dd[t] = s
			ideal.da[t] = b * s
		}
		if acceptorOn {
			ideal.aa[t] = s * (1 + res.AAMismatch)
		}
	}

	return molecule{
		states:         states,
		donorBleach:    donorBleach,
		acceptorBleach: acceptorBleach,
		ideal:          ideal,
	}
}

// addNoise adds zero-mean Gaussian noise with standard deviation noise·s to
// every channel. The channels are modified in place.
func addNoise(c channels, res trace.Resolved, src rand.Source) {
	sigma := res.Noise * res.ScalingFactor
	if sigma <= 0 {
		return
	}
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	for t := range c.dd {
		c.dd[t] += dist.Rand()
		c.da[t] += dist.Rand()
		c.aa[t] += dist.Rand()
	}
}

// ratios computes apparent FRET efficiency E = DA/(DD+DA) and stoichiometry
// S = (DD+DA)/(DD+DA+AA). Where a denominator vanishes the previous frame's
// value is held (nullValue on the first frame); the number of such frames is
// returned.
func ratios(c channels, nullValue float64) (e, s []float64, degenerate int) {
	n := len(c.dd)
	e = make([]float64, n)
	s = make([]float64, n)
	lastE, lastS := nullValue, nullValue
	for t := 0; t < n; t++ {
		donorSum := c.dd[t] + c.da[t]
		total := donorSum + c.aa[t]

		hit := false
		if math.Abs(donorSum) > degenerateEps {
			lastE = c.da[t] / donorSum
		} else {
			hit = true
		}
		if math.Abs(total) > degenerateEps {
			lastS = donorSum / total
		} else {
			hit = true
		}
		if hit {
			degenerate++
		}
		e[t], s[t] = lastE, lastS
	}
	return e, s, degenerate
}
