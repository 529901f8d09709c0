package run

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/domain/trace"
)

// CodeVersion is bumped whenever a change alters the sampled output for a
// given seed and parameter set.
const CodeVersion = "fiddler-gen/1"

// RunFingerprint ensures deterministic replay: same parameters, seed and code
// version must yield the same table hash.
type RunFingerprint struct {
	ParamsHash  core.Hash `json:"params_hash"`
	Seed        int64     `json:"seed"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(paramsHash core.Hash, seed int64, codeVersion string) RunFingerprint {
	return RunFingerprint{
		ParamsHash:  paramsHash,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(paramsHash, seed, codeVersion),
	}
}

func computeRunFingerprint(paramsHash core.Hash, seed int64, codeVersion string) core.Hash {
	h := sha256.New()
	fmt.Fprintf(h, "params=%s;seed=%d;code=%s", paramsHash, seed, codeVersion)
	return core.Hash(hex.EncodeToString(h.Sum(nil)))
}

// Manifest is the archived record of one generation run. It carries enough
// to regenerate the table and to check that the regeneration matches.
type Manifest struct {
	RunID       core.RunID        `json:"run_id"`
	Params      params.Parameters `json:"params"`
	Seed        int64             `json:"seed"`
	Workers     int               `json:"workers"`
	Fingerprint RunFingerprint    `json:"fingerprint"`
	TableHash   core.Hash         `json:"table_hash"`
	NTraces     int               `json:"n_traces"`
	TraceLength int               `json:"trace_length"`
	// LabelCounts is keyed by label name (e.g. "bleached", "2-state").
	LabelCounts map[string]int `json:"label_counts"`
	Categories  map[string]int `json:"categories"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// NewManifest builds the manifest for a finished run.
func NewManifest(p params.Parameters, seed int64, workers int, table *trace.Table) (*Manifest, error) {
	tableHash, err := table.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprinting table: %w", err)
	}

	labels := make(map[string]int)
	for l, n := range table.LabelCounts() {
		labels[l.String()] = n
	}
	categories := make(map[string]int)
	for _, tr := range table.Traces {
		categories[tr.Category.String()]++
	}

	return &Manifest{
		RunID:       core.NewRunID(),
		Params:      p,
		Seed:        seed,
		Workers:     workers,
		Fingerprint: NewRunFingerprint(p.Hash(), seed, CodeVersion),
		TableHash:   tableHash,
		NTraces:     table.Len(),
		TraceLength: p.TraceLength,
		LabelCounts: labels,
		Categories:  categories,
		CreatedAt:   core.Now(),
	}, nil
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run_manifest: run_id cannot be empty")
	}
	if m.TableHash.IsEmpty() {
		return fmt.Errorf("run_manifest: table_hash cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("run_manifest: fingerprint cannot be empty")
	}
	if m.NTraces < 1 {
		return fmt.Errorf("run_manifest: n_traces must be positive")
	}
	return nil
}

// Matches reports whether a regenerated table reproduces this run.
func (m *Manifest) Matches(table *trace.Table) (bool, error) {
	h, err := table.Fingerprint()
	if err != nil {
		return false, err
	}
	return h.Equals(m.TableHash), nil
}
