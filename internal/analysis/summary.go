package analysis

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"fiddler/domain/trace"
)

// Apparent E histogram range. Noise pushes E outside [0, 1]; values beyond
// the range are counted in the edge bins.
const (
	histLow  = -0.2
	histHigh = 1.2
	histBins = 14
)

// Distribution summarises one sample.
type Distribution struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Bin is one histogram bucket [Low, High).
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Summary describes a generated table: class balance for training sets and
// the distributions a reader checks against the parameters.
type Summary struct {
	NTraces     int `json:"n_traces"`
	TraceLength int `json:"trace_length"`
	Frames      int `json:"frames"`

	LabelCounts    map[string]int     `json:"label_counts"`
	LabelFractions map[string]float64 `json:"label_fractions"`
	Categories     map[string]int     `json:"categories"`
	// StateCounts maps K (number of state means) to the number of traces.
	StateCounts map[int]int `json:"state_counts"`

	BleachedTraces   int           `json:"bleached_traces"`
	BleachTimes      *Distribution `json:"bleach_times,omitempty"`
	AggregateSizes   *Distribution `json:"aggregate_sizes,omitempty"`
	DegenerateFrames int           `json:"degenerate_frames"`

	// ApparentE covers live frames of normal traces.
	ApparentE  *Distribution `json:"apparent_e,omitempty"`
	EHistogram []Bin         `json:"e_histogram"`
	// ECorrelation is the Pearson correlation of apparent and true E over
	// the same frames; nil when either is constant.
	ECorrelation *float64 `json:"e_correlation,omitempty"`

	Noise         *Distribution `json:"noise,omitempty"`
	TransProb     *Distribution `json:"trans_prob,omitempty"`
	ScalingFactor *Distribution `json:"au_scaling_factor,omitempty"`
}

// Summarize computes the batch summary of a table.
func Summarize(table *trace.Table) (*Summary, error) {
	s := &Summary{
		NTraces:        table.Len(),
		LabelCounts:    make(map[string]int),
		LabelFractions: make(map[string]float64),
		Categories:     make(map[string]int),
		StateCounts:    make(map[int]int),
	}

	var (
		bleachTimes, aggSizes []float64
		apparentE, trueE      []float64
		noise, trans, scaling []float64
	)
	for _, tr := range table.Traces {
		s.TraceLength = max(s.TraceLength, tr.Len())
		s.Frames += tr.Len()
		s.Categories[tr.Category.String()]++
		s.StateCounts[len(tr.StateMeans)]++
		s.DegenerateFrames += tr.Degenerate

		noise = append(noise, tr.Resolved.Noise)
		trans = append(trans, tr.Resolved.TransProb)
		scaling = append(scaling, tr.Resolved.ScalingFactor)

		if tr.BleachesAt != nil {
			s.BleachedTraces++
			bleachTimes = append(bleachTimes, float64(*tr.BleachesAt))
		}
		if tr.Category == trace.AggregateTrace {
			aggSizes = append(aggSizes, float64(tr.AggregateSize))
		}

		for _, f := range tr.Frames {
			s.LabelCounts[f.Label.String()]++
			if tr.Category == trace.Normal && f.Label != trace.Bleached {
				apparentE = append(apparentE, f.E)
				trueE = append(trueE, f.ETrue)
			}
		}
	}

	for name, n := range s.LabelCounts {
		s.LabelFractions[name] = float64(n) / float64(s.Frames)
	}

	var err error
	if s.BleachTimes, err = describe(bleachTimes); err != nil {
		return nil, err
	}
	if s.AggregateSizes, err = describe(aggSizes); err != nil {
		return nil, err
	}
	if s.ApparentE, err = describe(apparentE); err != nil {
		return nil, err
	}
	if s.Noise, err = describe(noise); err != nil {
		return nil, err
	}
	if s.TransProb, err = describe(trans); err != nil {
		return nil, err
	}
	if s.ScalingFactor, err = describe(scaling); err != nil {
		return nil, err
	}

	s.EHistogram = histogram(apparentE)
	if len(apparentE) > 1 {
		if r := stat.Correlation(apparentE, trueE, nil); !math.IsNaN(r) {
			s.ECorrelation = &r
		}
	}
	return s, nil
}

// describe returns nil for an empty sample.
func describe(data []float64) (*Distribution, error) {
	if len(data) == 0 {
		return nil, nil
	}
	d := &Distribution{N: len(data)}
	var err error
	if d.Mean, err = stats.Mean(data); err != nil {
		return nil, err
	}
	if d.StdDev, err = stats.StandardDeviation(data); err != nil {
		return nil, err
	}
	if d.Min, err = stats.Min(data); err != nil {
		return nil, err
	}
	if d.Max, err = stats.Max(data); err != nil {
		return nil, err
	}
	if d.Median, err = stats.Median(data); err != nil {
		return nil, err
	}
	// stats.Percentile rejects small samples; the empirical quantile does not.
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	d.Q25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	d.Q75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	return d, nil
}

func histogram(data []float64) []Bin {
	dividers := make([]float64, histBins+1)
	width := (histHigh - histLow) / histBins
	for i := range dividers {
		dividers[i] = histLow + float64(i)*width
	}
	dividers[histBins] = histHigh

	top := math.Nextafter(histHigh, histLow)
	x := make([]float64, len(data))
	for i, v := range data {
		x[i] = math.Min(math.Max(v, histLow), top)
	}
	slices.Sort(x)

	counts := stat.Histogram(nil, dividers, x, nil)
	bins := make([]Bin, histBins)
	for i := range bins {
		bins[i] = Bin{Low: dividers[i], High: dividers[i+1], Count: int(counts[i])}
	}
	return bins
}
