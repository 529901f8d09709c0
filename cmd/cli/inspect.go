package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fiddler/adapters/rng"
	"fiddler/internal/analysis"
	"fiddler/internal/generator"
	"fiddler/internal/preview"
	"fiddler/internal/report"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		flags    runFlags
		examples int
		static   bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show an n×n grid of example traces",
		Long: `Generate examples² traces and browse them in the terminal. Press r to
draw a fresh batch with a new seed, q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if examples < 1 {
				return fmt.Errorf("--examples must be >= 1, got %d", examples)
			}
			p, streams, workers, err := a.resolve(cmd, &flags)
			if err != nil {
				return err
			}
			p.NTraces = examples * examples
			gen := a.generator(workers)

			res, err := gen.Generate(cmd.Context(), generator.Request{Params: p, RNG: streams})
			if err != nil {
				return err
			}
			first := preview.Batch{Table: res.Table, Seed: res.Seed}

			if static {
				fmt.Println(preview.Static(first.Table, examples, terminalWidth(120)))
				fmt.Printf("seed %d\n", first.Seed)
				return nil
			}

			regen := func(ctx context.Context) (preview.Batch, error) {
				res, err := gen.Generate(ctx, generator.Request{Params: p, RNG: rng.NewRandom(a.verbose, a.logger)})
				if err != nil {
					return preview.Batch{}, err
				}
				return preview.Batch{Table: res.Table, Seed: res.Seed}, nil
			}
			_, err = tea.NewProgram(preview.NewModel(first, examples, regen), tea.WithAltScreen()).Run()
			return err
		},
	}

	flags.bind(cmd)
	cmd.Flags().IntVar(&examples, "examples", 4, "Traces per side of the grid")
	cmd.Flags().BoolVar(&static, "static", false, "Print the grid once instead of starting the browser")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate a batch and print its label balance and distributions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, streams, workers, err := a.resolve(cmd, &flags)
			if err != nil {
				return err
			}
			b, err := a.runBatch(cmd.Context(), p, streams, workers)
			if err != nil {
				return err
			}
			s, err := analysis.Summarize(b.result.Table)
			if err != nil {
				return err
			}
			fmt.Println(preview.Summary(s))
			fmt.Printf("seed %d, table %s\n", b.result.Seed, b.manifest.TableHash.Short())
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var (
		flags    runFlags
		htmlPath string
		mdPath   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a Markdown (and optionally HTML) report of a generated batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, streams, workers, err := a.resolve(cmd, &flags)
			if err != nil {
				return err
			}
			b, err := a.runBatch(cmd.Context(), p, streams, workers)
			if err != nil {
				return err
			}
			s, err := analysis.Summarize(b.result.Table)
			if err != nil {
				return err
			}
			md, err := report.Markdown(b.manifest, s)
			if err != nil {
				return err
			}

			if mdPath == "" {
				fmt.Print(md)
			} else if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", mdPath, err)
			}
			if htmlPath != "" {
				page := report.HTML(md, "Fiddler run "+b.manifest.RunID.String())
				if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", htmlPath, err)
				}
				fmt.Fprintf(os.Stderr, "Wrote %s\n", htmlPath)
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also render the report as an HTML page at this path")
	cmd.Flags().StringVar(&mdPath, "md", "", "Write the Markdown to this path instead of stdout")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No archived runs")
				return nil
			}

			fmt.Println(preview.Runs(runs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}
