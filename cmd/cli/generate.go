package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fiddler/adapters/export"
	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/domain/run"
	"fiddler/internal/generator"
	"fiddler/ports"
)

// batch is a finished generation with its manifest.
type batch struct {
	result   *generator.Result
	manifest *run.Manifest
}

// runBatch generates with progress reporting and builds the manifest.
func (a *app) runBatch(ctx context.Context, p params.Parameters, streams ports.RNGPort, workers int) (*batch, error) {
	progress := stderrProgress()
	cb, every := progress.callback(p.NTraces)

	res, err := a.generator(workers).Generate(ctx, generator.Request{
		Params:        p,
		RNG:           streams,
		Progress:      cb,
		CallbackEvery: every,
	})
	progress.finish()
	if err != nil {
		return nil, err
	}

	m, err := run.NewManifest(p, res.Seed, workers, res.Table)
	if err != nil {
		return nil, err
	}
	return &batch{result: res, manifest: m}, nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		flags   runFlags
		outDir  string
		format  string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate traces and export them",
		Long: `Generate a batch of traces and write it to disk.

Formats:
  ascii  one text file per trace, as written by trace viewers
  csv    the full table in one file
  xlsx   the full table plus a manifest sheet

Example: fiddler generate --params presets/two_state.yaml --seed 42 --format csv --out ./traces`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, streams, workers, err := a.resolve(cmd, &flags)
			if err != nil {
				return err
			}
			fmtName, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			dir := a.cfg.Generation.OutDir
			if cmd.Flags().Changed("out") {
				dir = outDir
			}

			b, err := a.runBatch(ctx, p, streams, workers)
			if err != nil {
				return err
			}

			files, err := export.NewExporter(core.SystemClock, a.logger).Export(dir, fmtName, b.result.Table, b.manifest)
			if err != nil {
				return err
			}

			if archive || a.cfg.Archive.Enabled {
				store, err := a.openArchive(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				earlier, err := store.FindByFingerprint(ctx, b.manifest.Fingerprint.Fingerprint)
				if err != nil {
					return err
				}
				for _, m := range earlier {
					if !m.TableHash.Equals(b.manifest.TableHash) {
						a.logger.Warn("run %s has the same fingerprint but table %s", m.RunID, m.TableHash.Short())
					}
				}
				if len(earlier) > 0 {
					fmt.Printf("%d earlier run(s) share this fingerprint\n", len(earlier))
				}
				if err := store.Save(ctx, b.manifest); err != nil {
					return err
				}
				fmt.Printf("Archived run %s\n", b.manifest.RunID)
			}

			fmt.Printf("Generated %d traces of %d frames in %s (seed %d)\n",
				b.result.Table.Len(), p.TraceLength, b.result.Elapsed.Round(time.Millisecond), b.result.Seed)
			fmt.Printf("Wrote %d %s file(s) to %s\n", len(files), fmtName, dir)
			fmt.Printf("Table hash: %s\n", b.manifest.TableHash.Short())
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default $FIDDLER_OUT_DIR)")
	cmd.Flags().StringVar(&format, "format", "ascii", "Output format: ascii, csv or xlsx")
	cmd.Flags().BoolVar(&archive, "archive", false, "Record the run in the run archive")

	return cmd
}
