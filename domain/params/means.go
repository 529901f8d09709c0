package params

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fiddler/domain/core"
)

const randomMeansKeyword = "random"

// StateMeans is either a fixed list of FRET state means shared by every
// trace, or the instruction to draw a random set per trace.
type StateMeans struct {
	fixed  []float64
	random bool
}

// FixedMeans uses the given means for every trace.
func FixedMeans(means ...float64) StateMeans {
	cp := make([]float64, len(means))
	copy(cp, means)
	return StateMeans{fixed: cp}
}

// RandomMeans draws K means per trace, K bounded by Parameters.RandomKStatesMax.
func RandomMeans() StateMeans {
	return StateMeans{random: true}
}

func (m StateMeans) IsRandom() bool { return m.random }

// Values returns a copy of the fixed means; nil for random means.
func (m StateMeans) Values() []float64 {
	if m.random {
		return nil
	}
	cp := make([]float64, len(m.fixed))
	copy(cp, m.fixed)
	return cp
}

func (m StateMeans) String() string {
	if m.random {
		return randomMeansKeyword
	}
	parts := make([]string, len(m.fixed))
	for i, v := range m.fixed {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseMeans extracts every non-negative number from free text, whatever the
// separators, e.g. "0.2, 0.5; 0.8" or "0.2 0.5 0.8".
func ParseMeans(s string) []float64 {
	matches := numberPattern.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ParseStateMeans accepts "random" or any text ParseMeans understands.
func ParseStateMeans(s string) (StateMeans, error) {
	if strings.EqualFold(strings.TrimSpace(s), randomMeansKeyword) {
		return RandomMeans(), nil
	}
	means := ParseMeans(s)
	if len(means) == 0 {
		return StateMeans{}, core.NewConfigurationError("state_means", "no numbers found in %q", s)
	}
	return FixedMeans(means...), nil
}

func (m StateMeans) MarshalJSON() ([]byte, error) {
	if m.random {
		return json.Marshal(randomMeansKeyword)
	}
	return json.Marshal(m.fixed)
}

func (m *StateMeans) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseStateMeans(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var list []float64
	if err := json.Unmarshal(data, &list); err != nil {
		return core.NewConfigurationError("state_means", "expected \"random\" or a list of numbers")
	}
	*m = FixedMeans(list...)
	return nil
}

func (m StateMeans) MarshalYAML() (interface{}, error) {
	if m.random {
		return randomMeansKeyword, nil
	}
	return m.fixed, nil
}

func (m *StateMeans) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := ParseStateMeans(node.Value)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case yaml.SequenceNode:
		var list []float64
		if err := node.Decode(&list); err != nil {
			return core.NewConfigurationError("state_means", "line %d: %v", node.Line, err)
		}
		*m = FixedMeans(list...)
		return nil
	default:
		return core.NewConfigurationError("state_means", "line %d: expected \"random\" or a list", node.Line)
	}
}
