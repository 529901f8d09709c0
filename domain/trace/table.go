package trace

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"fiddler/domain/core"
)

// Columns is the column order of the flat result table.
var Columns = []string{"name", "frame", "DD", "DA", "AA", "E", "E_true", "S", "label", "_bleaches_at", "fb"}

// Record is one row of the flat result table.
type Record struct {
	Name       int     `json:"name"`
	Frame      int     `json:"frame"`
	DD         float64 `json:"DD"`
	DA         float64 `json:"DA"`
	AA         float64 `json:"AA"`
	E          float64 `json:"E"`
	ETrue      float64 `json:"E_true"`
	S          float64 `json:"S"`
	Label      Label   `json:"label"`
	BleachesAt *int    `json:"_bleaches_at"`
	// FB duplicates BleachesAt under the name the exporter reads.
	FB *int `json:"fb"`
}

// Table is the generator result: traces in name order, each with contiguous,
// ascending frames.
type Table struct {
	Traces []*Trace `json:"traces"`
}

// Len returns the number of traces.
func (t *Table) Len() int { return len(t.Traces) }

// Group returns the trace with the given name.
func (t *Table) Group(name int) (*Trace, bool) {
	if name >= 0 && name < len(t.Traces) && t.Traces[name].Name == name {
		return t.Traces[name], true
	}
	for _, tr := range t.Traces {
		if tr.Name == name {
			return tr, true
		}
	}
	return nil, false
}

// Records flattens the table in trace-major, frame-minor order.
func (t *Table) Records() []Record {
	n := 0
	for _, tr := range t.Traces {
		n += len(tr.Frames)
	}
	out := make([]Record, 0, n)
	for _, tr := range t.Traces {
		for _, f := range tr.Frames {
			out = append(out, Record{
				Name:       tr.Name,
				Frame:      f.Frame,
				DD:         f.DD,
				DA:         f.DA,
				AA:         f.AA,
				E:          f.E,
				ETrue:      f.ETrue,
				S:          f.S,
				Label:      f.Label,
				BleachesAt: tr.BleachesAt,
				FB:         tr.BleachesAt,
			})
		}
	}
	return out
}

// LabelCounts counts frames per label across the table.
func (t *Table) LabelCounts() map[Label]int {
	counts := make(map[Label]int)
	for _, tr := range t.Traces {
		for _, f := range tr.Frames {
			counts[f.Label]++
		}
	}
	return counts
}

// WriteCSV writes the table with Columns as header. Floats use the shortest
// exact representation, so equal tables produce equal bytes.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range t.Records() {
		row := []string{
			strconv.Itoa(r.Name),
			strconv.Itoa(r.Frame),
			formatExact(r.DD),
			formatExact(r.DA),
			formatExact(r.AA),
			formatExact(r.E),
			formatExact(r.ETrue),
			formatExact(r.S),
			strconv.Itoa(int(r.Label)),
			formatOptional(r.BleachesAt),
			formatOptional(r.FB),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Fingerprint hashes the canonical CSV encoding.
func (t *Table) Fingerprint() (core.Hash, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return "", err
	}
	return core.NewHash(buf.Bytes()), nil
}

func formatExact(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
