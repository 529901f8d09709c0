package trace

// Segment is a run of equal consecutive labels.
type Segment struct {
	Start  int
	Length int
	Label  Label
}

// Segments splits a label sequence into runs of equal values, in order.
func Segments(labels []Label) []Segment {
	var out []Segment
	for i, l := range labels {
		if len(out) > 0 && out[len(out)-1].Label == l {
			out[len(out)-1].Length++
			continue
		}
		out = append(out, Segment{Start: i, Length: 1, Label: l})
	}
	return out
}
