package params

import (
	"fmt"
	"math"

	"fiddler/domain/core"
)

// Bounds used when drawing random state means.
const (
	RandomMeanMin = 0.01
	RandomMeanMax = 0.99
)

// Parameters is the statistical description of one generation run. Field
// names follow the keyword names of the original generator in their tags.
type Parameters struct {
	NTraces     int `yaml:"n_traces" json:"n_traces"`
	TraceLength int `yaml:"trace_length" json:"trace_length"`

	StateMeans       StateMeans  `yaml:"state_means" json:"state_means"`
	RandomKStatesMax int         `yaml:"random_k_states_max" json:"random_k_states_max"`
	TransProb        Param       `yaml:"trans_prob" json:"trans_prob"`
	TransitionMatrix [][]float64 `yaml:"transition_matrix,omitempty" json:"transition_matrix,omitempty"`

	Noise            Param    `yaml:"noise" json:"noise"`
	DonorLifetime    *float64 `yaml:"d_lifetime" json:"d_lifetime"`
	AcceptorLifetime *float64 `yaml:"a_lifetime" json:"a_lifetime"`
	BleedThrough     Param    `yaml:"bleed_through" json:"bleed_through"`
	AAMismatch       Param    `yaml:"aa_mismatch" json:"aa_mismatch"`
	ScalingFactor    Param    `yaml:"au_scaling_factor" json:"au_scaling_factor"`

	BlinkProb         float64 `yaml:"blink_prob" json:"blink_prob"`
	BlinkMeanDuration float64 `yaml:"blink_mean_duration" json:"blink_mean_duration"`
	AggregationProb   float64 `yaml:"aggregation_prob" json:"aggregation_prob"`
	MaxAggregateSize  int     `yaml:"max_aggregate_size" json:"max_aggregate_size"`
	ScrambleProb      float64 `yaml:"scramble_prob" json:"scramble_prob"`

	DiscardUnbleached bool    `yaml:"discard_unbleached" json:"discard_unbleached"`
	NullFRETValue     float64 `yaml:"null_fret_value" json:"null_fret_value"`
	MinStateDiff      float64 `yaml:"min_state_diff" json:"min_state_diff"`
	AcceptableNoise   float64 `yaml:"acceptable_noise" json:"acceptable_noise"`
	MaxRetries        int     `yaml:"max_retries" json:"max_retries"`
}

// Lifetime returns a pointer to v, for the optional lifetime fields.
func Lifetime(v float64) *float64 { return &v }

// Default returns the values the desktop tool starts with.
func Default() Parameters {
	return Parameters{
		NTraces:           10,
		TraceLength:       200,
		StateMeans:        RandomMeans(),
		RandomKStatesMax:  4,
		TransProb:         Range(0.01, 0.2),
		Noise:             Range(0.01, 0.3),
		DonorLifetime:     Lifetime(500),
		AcceptorLifetime:  Lifetime(500),
		BleedThrough:      Range(0, 0.15),
		AAMismatch:        Range(-0.35, 0.35),
		ScalingFactor:     Range(0.8, 1.2),
		BlinkProb:         0.05,
		BlinkMeanDuration: 5,
		AggregationProb:   0.1,
		MaxAggregateSize:  20,
		ScrambleProb:      0.1,
		DiscardUnbleached: false,
		NullFRETValue:     -1,
		MinStateDiff:      0.2,
		AcceptableNoise:   0.25,
		MaxRetries:        1000,
	}
}

// Validate returns a *core.ConfigurationError for the first invalid field.
func (p Parameters) Validate() error {
	if p.NTraces < 1 {
		return core.NewConfigurationError("n_traces", "must be >= 1, got %d", p.NTraces)
	}
	if p.TraceLength < 1 {
		return core.NewConfigurationError("trace_length", "must be >= 1, got %d", p.TraceLength)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"null_fret_value", p.NullFRETValue},
		{"min_state_diff", p.MinStateDiff},
		{"acceptable_noise", p.AcceptableNoise},
		{"blink_mean_duration", p.BlinkMeanDuration},
	} {
		if !isFinite(f.v) {
			return core.NewConfigurationError(f.name, "must be finite, got %v", f.v)
		}
	}
	if err := p.validateMeans(); err != nil {
		return err
	}
	if err := p.TransProb.Validate("trans_prob", 0, 1); err != nil {
		return err
	}
	if err := p.validateMatrix(); err != nil {
		return err
	}
	if err := p.Noise.Validate("noise", 0, math.Inf(1)); err != nil {
		return err
	}
	if err := p.BleedThrough.Validate("bleed_through", 0, 1); err != nil {
		return err
	}
	if err := p.AAMismatch.Validate("aa_mismatch", -1, math.Inf(1)); err != nil {
		return err
	}
	if err := p.ScalingFactor.Validate("au_scaling_factor", math.SmallestNonzeroFloat64, math.Inf(1)); err != nil {
		return err
	}
	for _, lt := range []struct {
		name string
		v    *float64
	}{
		{"d_lifetime", p.DonorLifetime},
		{"a_lifetime", p.AcceptorLifetime},
	} {
		if lt.v != nil && (!(*lt.v > 0) || math.IsInf(*lt.v, 1)) {
			return core.NewConfigurationError(lt.name, "must be finite and > 0, or unset, got %v", *lt.v)
		}
	}
	for _, pr := range []struct {
		name string
		v    float64
	}{
		{"blink_prob", p.BlinkProb},
		{"aggregation_prob", p.AggregationProb},
		{"scramble_prob", p.ScrambleProb},
	} {
		if pr.v < 0 || pr.v > 1 || math.IsNaN(pr.v) {
			return core.NewConfigurationError(pr.name, "probability outside [0, 1]: %v", pr.v)
		}
	}
	if p.AggregationProb+p.ScrambleProb > 1 {
		return core.NewConfigurationError("scramble_prob", "aggregation_prob + scramble_prob exceeds 1")
	}
	if p.AggregationProb > 0 && p.MaxAggregateSize < 2 {
		return core.NewConfigurationError("max_aggregate_size", "must be >= 2 when aggregation_prob > 0, got %d", p.MaxAggregateSize)
	}
	if p.BlinkMeanDuration < 1 {
		return core.NewConfigurationError("blink_mean_duration", "must be >= 1 frame, got %v", p.BlinkMeanDuration)
	}
	if p.MinStateDiff < 0 {
		return core.NewConfigurationError("min_state_diff", "must be >= 0, got %v", p.MinStateDiff)
	}
	if p.AcceptableNoise < 0 {
		return core.NewConfigurationError("acceptable_noise", "must be >= 0, got %v", p.AcceptableNoise)
	}
	if p.DiscardUnbleached && p.DonorLifetime == nil && p.AcceptorLifetime == nil {
		return core.NewConfigurationError("discard_unbleached", "no lifetime set, traces can never bleach")
	}
	if p.MaxRetries < 1 {
		return core.NewConfigurationError("max_retries", "must be >= 1, got %d", p.MaxRetries)
	}
	return nil
}

func (p Parameters) validateMeans() error {
	if p.StateMeans.IsRandom() {
		if p.RandomKStatesMax < 2 {
			return core.NewConfigurationError("random_k_states_max", "must be >= 2, got %d", p.RandomKStatesMax)
		}
		span := RandomMeanMax - RandomMeanMin
		if float64(p.RandomKStatesMax-1)*p.MinStateDiff > span {
			return core.NewConfigurationError("random_k_states_max",
				"%d states cannot be spaced %v apart inside [%v, %v]", p.RandomKStatesMax, p.MinStateDiff, RandomMeanMin, RandomMeanMax)
		}
		return nil
	}

	means := p.StateMeans.fixed
	if len(means) == 0 {
		return core.NewConfigurationError("state_means", "empty state mean list")
	}
	for i, m := range means {
		if !(m >= 0 && m <= 1) {
			return core.NewConfigurationError("state_means", "mean %v outside [0, 1]", m)
		}
		for _, other := range means[:i] {
			if math.Abs(m-other) < p.MinStateDiff {
				return core.NewConfigurationError("state_means", "means %v and %v closer than min_state_diff %v", other, m, p.MinStateDiff)
			}
		}
	}
	return nil
}

func (p Parameters) validateMatrix() error {
	if p.TransitionMatrix == nil {
		return nil
	}
	if p.StateMeans.IsRandom() {
		return core.NewConfigurationError("transition_matrix", "requires fixed state_means")
	}
	k := len(p.StateMeans.fixed)
	if len(p.TransitionMatrix) != k {
		return core.NewConfigurationError("transition_matrix", "expected %dx%d matrix, got %d rows", k, k, len(p.TransitionMatrix))
	}
	for i, row := range p.TransitionMatrix {
		if len(row) != k {
			return core.NewConfigurationError("transition_matrix", "row %d has %d columns, want %d", i, len(row), k)
		}
		sum := 0.0
		for _, v := range row {
			if !(v >= 0 && v <= 1) {
				return core.NewConfigurationError("transition_matrix", "row %d entry %v outside [0, 1]", i, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			return core.NewConfigurationError("transition_matrix", "row %d sums to %v, want 1", i, sum)
		}
	}
	return nil
}

// Hash fingerprints every field that influences sampling.
func (p Parameters) Hash() core.Hash {
	return core.ComputeFieldHash(map[string]interface{}{
		"n_traces":            p.NTraces,
		"trace_length":        p.TraceLength,
		"state_means":         p.StateMeans.String(),
		"random_k_states_max": p.RandomKStatesMax,
		"trans_prob":          p.TransProb.String(),
		"transition_matrix":   fmt.Sprint(p.TransitionMatrix),
		"noise":               p.Noise.String(),
		"d_lifetime":          optional(p.DonorLifetime),
		"a_lifetime":          optional(p.AcceptorLifetime),
		"bleed_through":       p.BleedThrough.String(),
		"aa_mismatch":         p.AAMismatch.String(),
		"au_scaling_factor":   p.ScalingFactor.String(),
		"blink_prob":          p.BlinkProb,
		"blink_mean_duration": p.BlinkMeanDuration,
		"aggregation_prob":    p.AggregationProb,
		"max_aggregate_size":  p.MaxAggregateSize,
		"scramble_prob":       p.ScrambleProb,
		"discard_unbleached":  p.DiscardUnbleached,
		"null_fret_value":     p.NullFRETValue,
		"min_state_diff":      p.MinStateDiff,
		"acceptable_noise":    p.AcceptableNoise,
		"max_retries":         p.MaxRetries,
	})
}

func optional(v *float64) string {
	if v == nil {
		return "None"
	}
	return formatFloat(*v)
}
