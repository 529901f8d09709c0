package generator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"fiddler/domain/params"
	"fiddler/domain/trace"
)

// chooseCategory is the first transition of the per-trace state machine:
// Normal, Aggregate or Scramble. Scramble is drawn conditionally so that its
// marginal rate equals ScrambleProb.
func chooseCategory(p params.Parameters, r *rand.Rand) trace.Category {
	if p.AggregationProb > 0 && r.Float64() < p.AggregationProb {
		return trace.AggregateTrace
	}
	if p.ScrambleProb > 0 {
		conditional := p.ScrambleProb / (1 - p.AggregationProb)
		if r.Float64() < conditional {
			return trace.ScrambleTrace
		}
	}
	return trace.Normal
}

// aggregateSize draws the number of co-localized molecules, uniform in
// [2, MaxAggregateSize].
func aggregateSize(p params.Parameters, r *rand.Rand) int {
	return 2 + r.IntN(p.MaxAggregateSize-1)
}

// drawBleach returns the frame a fluorophore with the given mean lifetime
// bleaches at, or nil when there is no lifetime or the fluorophore outlives
// the observation window.
func drawBleach(lifetime *float64, n int, src rand.Source) *int {
	if lifetime == nil {
		return nil
	}
	t := distuv.Exponential{Rate: 1 / *lifetime, Src: src}.Rand()
	if t >= float64(n) {
		return nil
	}
	frame := int(math.Floor(t))
	return &frame
}

// minBleach returns the earlier of two optional bleach frames.
func minBleach(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b < *a:
		return b
	}
	return a
}

// darkMasks marks the frames where the donor or the acceptor sits in a
// transient dark state. Each bright frame starts an excursion with
// probability blinkProb on a channel chosen with equal odds; the run length
// is geometric with the given mean.
func darkMasks(n int, blinkProb, meanDuration float64, r *rand.Rand) (donor, acceptor []bool) {
	donor = make([]bool, n)
	acceptor = make([]bool, n)
	if blinkProb <= 0 {
		return donor, acceptor
	}
	for t := 0; t < n; {
		if r.Float64() >= blinkProb {
			t++
			continue
		}
		mask := acceptor
		if r.IntN(2) == 0 {
			mask = donor
		}
		length := geometric(meanDuration, r)
		for end := min(t+length, n); t < end; t++ {
			mask[t] = true
		}
	}
	return donor, acceptor
}

// geometric draws a run length >= 1 with the given mean by inverting the
// geometric CDF.
func geometric(mean float64, r *rand.Rand) int {
	if mean <= 1 {
		return 1
	}
	q := 1 / mean
	u := 1 - r.Float64() // (0, 1]
	return 1 + int(math.Floor(math.Log(u)/math.Log(1-q)))
}
