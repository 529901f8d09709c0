package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"fiddler/domain/run"
	"fiddler/domain/trace"
)

const (
	tracesSheet   = "traces"
	manifestSheet = "manifest"
)

// SaveXLSX writes the table to a "traces" sheet and, when manifest is set,
// the run metadata to a "manifest" sheet.
func SaveXLSX(path string, table *trace.Table, manifest *run.Manifest) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty Sheet1 behind.
	if err := f.SetSheetName("Sheet1", tracesSheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(tracesSheet)
	if err != nil {
		return err
	}
	header := make([]interface{}, len(trace.Columns))
	for i, h := range trace.Columns {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for r, rec := range table.Records() {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := sw.SetRow(cell, recordRow(rec)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if manifest != nil {
		if err := writeManifestSheet(f, manifest); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func recordRow(r trace.Record) []interface{} {
	return []interface{}{
		r.Name, r.Frame, r.DD, r.DA, r.AA, r.E, r.ETrue, r.S, int(r.Label),
		optionalCell(r.BleachesAt), optionalCell(r.FB),
	}
}

func optionalCell(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func writeManifestSheet(f *excelize.File, m *run.Manifest) error {
	if _, err := f.NewSheet(manifestSheet); err != nil {
		return err
	}

	rows := [][2]interface{}{
		{"run_id", m.RunID.String()},
		{"seed", m.Seed},
		{"workers", m.Workers},
		{"n_traces", m.NTraces},
		{"trace_length", m.TraceLength},
		{"params_hash", m.Fingerprint.ParamsHash.String()},
		{"code_version", m.Fingerprint.CodeVersion},
		{"fingerprint", m.Fingerprint.Fingerprint.String()},
		{"table_hash", m.TableHash.String()},
		{"created_at", m.CreatedAt.String()},
	}
	rows = append(rows, sortedCounts("label:", m.LabelCounts)...)
	rows = append(rows, sortedCounts("category:", m.Categories)...)

	for i, kv := range rows {
		if err := f.SetSheetRow(manifestSheet, fmt.Sprintf("A%d", i+1), &[]interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
	}
	return nil
}

func sortedCounts(prefix string, counts map[string]int) [][2]interface{} {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]interface{}, len(keys))
	for i, k := range keys {
		out[i] = [2]interface{}{prefix + k, counts[k]}
	}
	return out
}
