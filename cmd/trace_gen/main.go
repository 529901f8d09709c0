package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fiddler/adapters/export"
	"fiddler/adapters/rng"
	"fiddler/domain/params"
	"fiddler/domain/run"
	"fiddler/domain/trace"
	"fiddler/internal"
	"fiddler/internal/config"
	"fiddler/internal/generator"
)

// trace_gen writes one training table to a single file without the CLI's
// configuration layer. Parameters come from a preset; the flags override the
// batch shape.
func main() {
	out := flag.String("out", "traces.csv", "output file path")
	format := flag.String("format", "", "output format: csv or xlsx (default inferred from -out)")
	preset := flag.String("params", "", "YAML parameter preset")
	n := flag.Int("n", 0, "number of traces (default from preset)")
	length := flag.Int("length", 0, "frames per trace (default from preset)")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	workers := flag.Int("workers", 1, "traces generated concurrently")
	means := flag.String("means", "", `state means, "random" or a list such as "0.2 0.8"`)
	flag.Parse()

	fmtName := strings.ToLower(strings.TrimSpace(*format))
	if fmtName == "" {
		switch strings.ToLower(filepath.Ext(*out)) {
		case ".xlsx":
			fmtName = "xlsx"
		default:
			fmtName = "csv"
		}
	}

	p, err := config.LoadParams(*preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading parameters:", err)
		os.Exit(2)
	}
	if *n > 0 {
		p.NTraces = *n
	}
	if *length > 0 {
		p.TraceLength = *length
	}
	if *means != "" {
		sm, err := params.ParseStateMeans(*means)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid -means:", err)
			os.Exit(2)
		}
		p.StateMeans = sm
	}

	logger := internal.NewDefaultLogger()
	gen := generator.New(generator.WithLogger(logger), generator.WithWorkers(*workers))
	res, err := gen.Generate(context.Background(), generator.Request{Params: p, RNG: rng.NewSeeded(*seed, logger)})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating traces:", err)
		os.Exit(1)
	}

	switch fmtName {
	case "csv":
		err = export.SaveCSV(*out, res.Table)
	case "xlsx":
		var m *run.Manifest
		m, err = run.NewManifest(p, res.Seed, *workers, res.Table)
		if err == nil {
			err = export.SaveXLSX(*out, res.Table, m)
		}
	default:
		fmt.Fprintln(os.Stderr, "unsupported format:", fmtName)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", fmtName, err)
		os.Exit(1)
	}

	counts := res.Table.LabelCounts()
	fmt.Printf("Wrote %s\n", *out)
	fmt.Printf("Traces: %d | Frames: %d | Bleached frames: %d\n", res.Table.Len(), res.Table.Len()*p.TraceLength, counts[trace.Bleached])
}
