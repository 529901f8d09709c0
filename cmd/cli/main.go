package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fiddler/adapters/archive"
	"fiddler/adapters/rng"
	"fiddler/domain/params"
	"fiddler/internal"
	"fiddler/internal/config"
	"fiddler/internal/generator"
	"fiddler/ports"
)

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fiddler",
		Short: "Synthetic smFRET trace generator",
		Long: `Fiddler simulates single-molecule FRET intensity traces with ground-truth
labels for training and benchmarking trace classifiers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output and seeds")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newPreviewCmd(a),
		newSummaryCmd(a),
		newReportCmd(a),
		newRunsCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every command needs once the environment is loaded.
type app struct {
	verbose bool
	cfg     *config.Config
	logger  *internal.Logger
}

func (a *app) init() error {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = internal.NewDefaultLogger()
	if a.verbose {
		a.logger = internal.NewLogger(internal.LogLevelDebug)
	}
	return nil
}

// runFlags are the flags shared by every command that generates traces.
type runFlags struct {
	paramsFile string
	seed       int64
	workers    int
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.paramsFile, "params", "", "YAML parameter preset (default $FIDDLER_PARAMS, else built-in defaults)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed (default $FIDDLER_SEED, else a fresh seed)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Traces generated concurrently (default $FIDDLER_WORKERS)")
}

// resolve merges explicit flags over the environment configuration.
func (a *app) resolve(cmd *cobra.Command, f *runFlags) (params.Parameters, ports.RNGPort, int, error) {
	path := a.cfg.Generation.ParamsFile
	if cmd.Flags().Changed("params") {
		path = f.paramsFile
	}
	p, err := config.LoadParams(path)
	if err != nil {
		return params.Parameters{}, nil, 0, err
	}

	var streams ports.RNGPort
	switch {
	case cmd.Flags().Changed("seed"):
		streams = rng.NewSeeded(f.seed, a.logger)
	case a.cfg.Generation.Seed != nil:
		streams = rng.NewSeeded(*a.cfg.Generation.Seed, a.logger)
	default:
		streams = rng.NewRandom(true, a.logger)
	}

	workers := a.cfg.Generation.Workers
	if cmd.Flags().Changed("workers") {
		workers = f.workers
	}
	if workers < 1 {
		return params.Parameters{}, nil, 0, fmt.Errorf("--workers must be >= 1, got %d", workers)
	}
	return p, streams, workers, nil
}

func (a *app) generator(workers int) *generator.Generator {
	return generator.New(generator.WithLogger(a.logger), generator.WithWorkers(workers))
}

// openArchive opens the configured run archive.
func (a *app) openArchive(ctx context.Context) (*archive.Store, error) {
	return archive.Open(ctx, a.cfg.Archive.Driver, a.cfg.Archive.DSN, a.logger)
}
