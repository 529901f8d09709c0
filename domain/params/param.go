// Package params holds the immutable input of a generation run.
//
// Parameters that may be given either as a single value or as a [low, high]
// interval are represented by Param, which is resolved once per trace.
package params

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"fiddler/domain/core"
)

// Param is either Fixed(value) or Range(low, high).
type Param struct {
	lo, hi  float64
	ranged  bool
	present bool
}

// Fixed returns a parameter that resolves to v for every trace.
func Fixed(v float64) Param {
	return Param{lo: v, hi: v, present: true}
}

// Range returns a parameter that resolves to a uniform draw from [lo, hi] per trace.
func Range(lo, hi float64) Param {
	return Param{lo: lo, hi: hi, ranged: true, present: true}
}

// IsRange reports whether the parameter is sampled per trace.
func (p Param) IsRange() bool { return p.ranged }

// IsZero reports whether the parameter was never set.
func (p Param) IsZero() bool { return !p.present }

// Bounds returns the interval; for a fixed value both bounds are equal.
func (p Param) Bounds() (lo, hi float64) { return p.lo, p.hi }

// Value returns the fixed value, or the lower bound of a range.
func (p Param) Value() float64 { return p.lo }

// Resolve returns the concrete value for one trace.
func (p Param) Resolve(src rand.Source) float64 {
	if !p.ranged || p.lo == p.hi {
		return p.lo
	}
	return distuv.Uniform{Min: p.lo, Max: p.hi, Src: src}.Rand()
}

// Validate checks that both bounds are finite, lo <= hi and that both lie in
// [min, max].
func (p Param) Validate(name string, min, max float64) error {
	if !p.present {
		return core.NewConfigurationError(name, "not set")
	}
	if !isFinite(p.lo) || !isFinite(p.hi) {
		return core.NewConfigurationError(name, "non-finite value: %s", p)
	}
	if p.lo > p.hi {
		return core.NewConfigurationError(name, "range low %v > high %v", p.lo, p.hi)
	}
	if p.lo < min || p.hi > max {
		return core.NewConfigurationError(name, "value outside [%v, %v]: %s", min, max, p)
	}
	return nil
}

func (p Param) String() string {
	if p.ranged {
		return fmt.Sprintf("[%s, %s]", formatFloat(p.lo), formatFloat(p.hi))
	}
	return formatFloat(p.lo)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (p Param) MarshalJSON() ([]byte, error) {
	if p.ranged {
		return json.Marshal([]float64{p.lo, p.hi})
	}
	return json.Marshal(p.lo)
}

func (p *Param) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*p = Fixed(scalar)
		return nil
	}
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return core.NewConfigurationError("param", "expected number or [low, high], got %s", string(data))
	}
	return p.fromSlice(pair)
}

func (p Param) MarshalYAML() (interface{}, error) {
	if p.ranged {
		return []float64{p.lo, p.hi}, nil
	}
	return p.lo, nil
}

func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var scalar float64
		if err := node.Decode(&scalar); err != nil {
			return core.NewConfigurationError("param", "line %d: %v", node.Line, err)
		}
		*p = Fixed(scalar)
		return nil
	case yaml.SequenceNode:
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return core.NewConfigurationError("param", "line %d: %v", node.Line, err)
		}
		return p.fromSlice(pair)
	default:
		return core.NewConfigurationError("param", "line %d: expected number or [low, high]", node.Line)
	}
}

func (p *Param) fromSlice(pair []float64) error {
	switch len(pair) {
	case 1:
		*p = Fixed(pair[0])
	case 2:
		*p = Range(pair[0], pair[1])
	default:
		return core.NewConfigurationError("param", "range needs exactly 2 values, got %d", len(pair))
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
