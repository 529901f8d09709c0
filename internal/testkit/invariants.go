package testkit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiddler/domain/params"
	"fiddler/domain/trace"
)

// CheckTable asserts the structural invariants every generated table holds:
// shape and ordering, label consistency, monotonic bleaching and the bounds
// of resolved scalar-or-range parameters.
func CheckTable(t testing.TB, p params.Parameters, tbl *trace.Table) {
	t.Helper()
	require.Equal(t, p.NTraces, tbl.Len(), "trace count")

	for i, tr := range tbl.Traces {
		require.Equal(t, i, tr.Name, "traces are in name order")
		require.Len(t, tr.Frames, p.TraceLength, "trace %d length", i)
		for j, f := range tr.Frames {
			require.Equal(t, j, f.Frame, "trace %d frames contiguous", i)
		}
		CheckTrace(t, p, tr)
	}
}

// CheckTrace asserts the per-trace invariants.
func CheckTrace(t testing.TB, p params.Parameters, tr *trace.Trace) {
	t.Helper()

	checkResolved(t, "trans_prob", p.TransProb, tr.Resolved.TransProb)
	checkResolved(t, "noise", p.Noise, tr.Resolved.Noise)
	checkResolved(t, "bleed_through", p.BleedThrough, tr.Resolved.BleedThrough)
	checkResolved(t, "aa_mismatch", p.AAMismatch, tr.Resolved.AAMismatch)
	checkResolved(t, "au_scaling_factor", p.ScalingFactor, tr.Resolved.ScalingFactor)

	for i, m := range tr.StateMeans {
		for _, other := range tr.StateMeans[:i] {
			assert.GreaterOrEqual(t, math.Abs(m-other), p.MinStateDiff-1e-12,
				"trace %d means %v spaced below min_state_diff", tr.Name, tr.StateMeans)
		}
	}

	if structural, ok := tr.Category.Label(); ok {
		for _, f := range tr.Frames {
			require.Equal(t, structural, f.Label, "trace %d frame %d", tr.Name, f.Frame)
			require.Equal(t, p.NullFRETValue, f.ETrue)
		}
		return
	}

	bleached := false
	var live trace.Label = -1
	for _, f := range tr.Frames {
		if f.Label == trace.Bleached {
			bleached = true
			require.Equal(t, p.NullFRETValue, f.ETrue, "trace %d frame %d bleached E_true", tr.Name, f.Frame)
			continue
		}
		require.False(t, bleached, "trace %d un-bleaches at frame %d", tr.Name, f.Frame)
		require.NotEqual(t, trace.Aggregate, f.Label)
		require.NotEqual(t, trace.Scramble, f.Label)
		if live == -1 {
			live = f.Label
		}
		require.Equal(t, live, f.Label, "trace %d has one live label", tr.Name)
	}

	if tr.BleachesAt == nil {
		require.False(t, bleached, "trace %d bleached frames without a bleach time", tr.Name)
	} else {
		b := *tr.BleachesAt
		require.GreaterOrEqual(t, b, 0)
		require.Less(t, b, p.TraceLength)
		require.Equal(t, trace.Bleached, tr.Frames[b].Label)
		if b > 0 {
			require.NotEqual(t, trace.Bleached, tr.Frames[b-1].Label)
		}
	}
}

func checkResolved(t testing.TB, name string, p params.Param, got float64) {
	t.Helper()
	if !p.IsRange() {
		require.Equal(t, p.Value(), got, "%s is fixed", name)
		return
	}
	lo, hi := p.Bounds()
	require.GreaterOrEqual(t, got, lo, name)
	require.LessOrEqual(t, got, hi, name)
}
