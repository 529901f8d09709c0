package run

import (
	"testing"

	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/domain/trace"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	paramsHash := core.Hash("test-params")

	fp1 := NewRunFingerprint(paramsHash, 42, "1.0.0")
	fp2 := NewRunFingerprint(paramsHash, 42, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 {
		t.Errorf("Seed mismatch: %d vs %d", fp1.Seed, 42)
	}
	if fp1.ParamsHash != paramsHash {
		t.Errorf("ParamsHash mismatch: %s vs %s", fp1.ParamsHash, paramsHash)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint(core.Hash("p"), 42, "1.0.0")

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different params", NewRunFingerprint(core.Hash("q"), 42, "1.0.0")},
		{"different seed", NewRunFingerprint(core.Hash("p"), 43, "1.0.0")},
		{"different code version", NewRunFingerprint(core.Hash("p"), 42, "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("expected fingerprint to change")
			}
		})
	}
}

func TestNewManifest(t *testing.T) {
	table := &trace.Table{Traces: []*trace.Trace{{
		Name:     0,
		Category: trace.Normal,
		Frames: []trace.Frame{
			{Frame: 0, ETrue: 0.2, Label: trace.StateLabel(1)},
			{Frame: 1, ETrue: -1, Label: trace.Bleached},
		},
	}}}
	p := params.Default()
	p.NTraces, p.TraceLength = 1, 2

	m, err := NewManifest(p, 7, 1, table)
	if err != nil {
		t.Fatalf("NewManifest failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if m.LabelCounts["bleached"] != 1 || m.LabelCounts["1-state"] != 1 {
		t.Errorf("unexpected label counts: %v", m.LabelCounts)
	}
	if m.Categories["normal"] != 1 {
		t.Errorf("unexpected categories: %v", m.Categories)
	}

	ok, err := m.Matches(table)
	if err != nil || !ok {
		t.Errorf("Matches(original) = %v, %v", ok, err)
	}
	table.Traces[0].Frames[0].DD = 1
	ok, _ = m.Matches(table)
	if ok {
		t.Error("Matches should fail after the table changes")
	}
}
