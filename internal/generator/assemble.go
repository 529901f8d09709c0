package generator

import (
	"math/rand/v2"

	"fiddler/domain/params"
	"fiddler/domain/trace"
)

// buildTrace runs one complete attempt for a trace slot: resolve parameters,
// decide the structural category, simulate the molecule(s), add noise and
// label every frame.
func buildTrace(p params.Parameters, name int, src rand.Source) *trace.Trace {
	r := rand.New(src)

	res := resolveTrace(p, src)
	means := resolveStateMeans(p, r)
	category := chooseCategory(p, r)

	tr := &trace.Trace{
		Name:       name,
		Category:   category,
		StateMeans: means,
		Resolved:   res,
	}

	var obs channels
	var states []int
	switch category {
	case trace.AggregateTrace:
		obs = simulateAggregate(p, res, means, src, r, tr)
	case trace.ScrambleTrace:
		obs = simulateScramble(p, res, means, src, r, tr)
	default:
		mol := simulateMolecule(p, res, means, src, r)
		tr.DonorBleach, tr.AcceptorBleach = mol.donorBleach, mol.acceptorBleach
		tr.BleachesAt = mol.bleachesAt()
		obs, states = mol.ideal, mol.states
	}

	addNoise(obs, res, src)
	e, s, degenerate := ratios(obs, p.NullFRETValue)
	tr.Degenerate = degenerate

	tr.Frames = make([]trace.Frame, p.TraceLength)
	for t := range tr.Frames {
		tr.Frames[t] = trace.Frame{
			Frame: t,
			DD:    obs.dd[t],
			DA:    obs.da[t],
			AA:    obs.aa[t],
			E:     e[t],
			S:     s[t],
		}
	}
	labelFrames(p, tr, states, means)
	return tr
}

// simulateAggregate sums M independent molecules. The aggregate counts as
// bleached once every constituent has bleached.
func simulateAggregate(p params.Parameters, res trace.Resolved, means []float64, src rand.Source, r *rand.Rand, tr *trace.Trace) channels {
	m := aggregateSize(p, r)
	tr.AggregateSize = m

	obs := newChannels(p.TraceLength)
	var last *int
	allBleach := true
	for i := 0; i < m; i++ {
		mol := simulateMolecule(p, res, means, src, r)
		obs.add(mol.ideal)
		b := mol.bleachesAt()
		if b == nil {
			allBleach = false
			continue
		}
		if last == nil || *b > *last {
			last = b
		}
	}
	if allBleach {
		tr.BleachesAt = last
	}
	return obs
}

// simulateScramble takes the donor channel from one molecule and the
// acceptor channels from another, independent one, so donor and acceptor
// intensities no longer anti-correlate. Half of the time the donor-excitation
// channels are swapped as well.
func simulateScramble(p params.Parameters, res trace.Resolved, means []float64, src rand.Source, r *rand.Rand, tr *trace.Trace) channels {
	donorSide := simulateMolecule(p, res, means, src, r)
	acceptorSide := simulateMolecule(p, res, means, src, r)

	obs := channels{
		dd: donorSide.ideal.dd,
		da: acceptorSide.ideal.da,
		aa: acceptorSide.ideal.aa,
	}
	if r.IntN(2) == 0 {
		obs.dd, obs.da = obs.da, obs.dd
	}

	tr.DonorBleach = donorSide.donorBleach
	tr.AcceptorBleach = acceptorSide.acceptorBleach
	tr.BleachesAt = minBleach(donorSide.bleachesAt(), acceptorSide.bleachesAt())
	return obs
}

// labelFrames assigns E_true, the hidden state and the label of every frame.
//
// Aggregate and scramble traces carry their structural label on every frame
// and have no single-molecule ground truth. Normal traces are labelled by the
// number of distinct states visited before bleaching, or noisy when the
// resolved noise exceeds AcceptableNoise; frames from BleachesAt on are
// bleached.
func labelFrames(p params.Parameters, tr *trace.Trace, states []int, means []float64) {
	if structural, ok := tr.Category.Label(); ok {
		for t := range tr.Frames {
			tr.Frames[t].ETrue = p.NullFRETValue
			tr.Frames[t].State = -1
			tr.Frames[t].Label = structural
		}
		return
	}

	bleach := len(tr.Frames)
	if tr.BleachesAt != nil {
		bleach = *tr.BleachesAt
	}
	live := trace.StateLabel(max(1, distinctBefore(states, bleach)))
	if tr.Resolved.Noise > p.AcceptableNoise {
		live = trace.Noisy
	}

	for t := range tr.Frames {
		f := &tr.Frames[t]
		if t >= bleach {
			f.ETrue = p.NullFRETValue
			f.State = -1
			f.Label = trace.Bleached
			continue
		}
		f.ETrue = means[states[t]]
		f.State = states[t]
		f.Label = live
	}
}
