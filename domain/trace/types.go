// Package trace defines the generator's output: per-frame records grouped into
// traces, and the flat table consumed by previews and exporters.
package trace

import (
	"fmt"
	"strconv"

	"fiddler/domain/core"
)

// Label is the frame-level category. The numeric coding matches the one used
// by downstream classifiers: 0-3 are the special classes and 3+k marks a frame
// of a k-state trace.
type Label int

const (
	Bleached  Label = 0
	Aggregate Label = 1
	Noisy     Label = 2
	Scramble  Label = 3
)

// StateLabel returns the label for a frame of a k-state trace (k >= 1).
func StateLabel(k int) Label {
	return Label(int(Scramble) + k)
}

// States returns k for a state label, or 0 for the special classes.
func (l Label) States() int {
	if l <= Scramble {
		return 0
	}
	return int(l - Scramble)
}

func (l Label) String() string {
	switch l {
	case Bleached:
		return "bleached"
	case Aggregate:
		return "aggregate"
	case Noisy:
		return "noisy"
	case Scramble:
		return "scramble"
	}
	return strconv.Itoa(l.States()) + "-state"
}

// Category is the structural class of a whole trace. It is decided once,
// before any bleaching, blinking or noise is applied.
type Category int

const (
	Normal Category = iota
	AggregateTrace
	ScrambleTrace
)

func (c Category) String() string {
	switch c {
	case Normal:
		return "normal"
	case AggregateTrace:
		return "aggregate"
	case ScrambleTrace:
		return "scramble"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Label returns the full-length label a structural category imposes, and
// false for Normal traces.
func (c Category) Label() (Label, bool) {
	switch c {
	case AggregateTrace:
		return Aggregate, true
	case ScrambleTrace:
		return Scramble, true
	}
	return 0, false
}

// Frame is one time point of a trace.
type Frame struct {
	Frame int     `json:"frame"`
	DD    float64 `json:"DD"`
	DA    float64 `json:"DA"`
	AA    float64 `json:"AA"`
	E     float64 `json:"E"`
	ETrue float64 `json:"E_true"`
	S     float64 `json:"S"`
	Label Label   `json:"label"`
	// State is the hidden state index, -1 where no single-molecule state applies.
	State int `json:"state"`
}

// Resolved holds the per-trace values drawn from scalar-or-range parameters.
type Resolved struct {
	TransProb     float64 `json:"trans_prob"`
	Noise         float64 `json:"noise"`
	BleedThrough  float64 `json:"bleed_through"`
	AAMismatch    float64 `json:"aa_mismatch"`
	ScalingFactor float64 `json:"au_scaling_factor"`
}

// Trace is one simulated molecule (or aggregate of molecules).
type Trace struct {
	Name           int       `json:"name"`
	Category       Category  `json:"category"`
	AggregateSize  int       `json:"aggregate_size,omitempty"`
	BleachesAt     *int      `json:"_bleaches_at"`
	DonorBleach    *int      `json:"donor_bleach,omitempty"`
	AcceptorBleach *int      `json:"acceptor_bleach,omitempty"`
	StateMeans     []float64 `json:"state_means"`
	Resolved       Resolved  `json:"resolved"`
	// Degenerate counts frames where E or S hit 0/0 and the previous value was held.
	Degenerate int     `json:"degenerate_frames"`
	Frames     []Frame `json:"frames"`
}

// Len returns the number of frames.
func (t *Trace) Len() int { return len(t.Frames) }

// Column extracts one numeric channel by its table column name.
func (t *Trace) Column(name string) []float64 {
	out := make([]float64, len(t.Frames))
	for i, f := range t.Frames {
		switch name {
		case "DD":
			out[i] = f.DD
		case "DA":
			out[i] = f.DA
		case "AA":
			out[i] = f.AA
		case "E":
			out[i] = f.E
		case "E_true":
			out[i] = f.ETrue
		case "S":
			out[i] = f.S
		case "label":
			out[i] = float64(f.Label)
		}
	}
	return out
}

// Degeneracy reports held E/S frames as an error wrapping
// core.ErrNumericalDegeneracy, or nil when every ratio was defined.
func (t *Trace) Degeneracy() error {
	if t.Degenerate == 0 {
		return nil
	}
	return fmt.Errorf("%w: trace %d held E/S on %d of %d frames", core.ErrNumericalDegeneracy, t.Name, t.Degenerate, len(t.Frames))
}

// Labels returns the label sequence.
func (t *Trace) Labels() []Label {
	out := make([]Label, len(t.Frames))
	for i, f := range t.Frames {
		out[i] = f.Label
	}
	return out
}

// BleachString renders BleachesAt the way the export header expects.
func (t *Trace) BleachString() string {
	if t.BleachesAt == nil {
		return "None"
	}
	return strconv.Itoa(*t.BleachesAt)
}
