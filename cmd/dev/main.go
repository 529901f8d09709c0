package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fiddler/adapters/archive"
	"fiddler/adapters/export"
	"fiddler/adapters/rng"
	"fiddler/domain/core"
	"fiddler/domain/params"
	"fiddler/domain/run"
	"fiddler/internal"
	"fiddler/internal/config"
	"fiddler/internal/generator"
	"fiddler/internal/migration"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fiddler-dev",
		Short: "Fiddler development tools",
	}

	rootCmd.AddCommand(
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func newSmokeTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run smoke tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context())
		},
	}
	return cmd
}

func newDeterminismTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "determinism [run-id]",
		Short: "Regenerate an archived run and check the table hash matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			return testDeterminism(cmd.Context(), runID)
		},
	}
	return cmd
}

// smokeParams is a small batch that exercises every trace category.
func smokeParams() params.Parameters {
	p := params.Default()
	p.NTraces = 40
	p.TraceLength = 150
	p.AggregationProb = 0.2
	p.ScrambleProb = 0.2
	return p
}

func runSmokeTests(ctx context.Context) error {
	fmt.Println("Running smoke tests...")

	logger := internal.NewLogger(internal.LogLevelWarn)
	p := smokeParams()
	const seed = 2024

	generate := func(workers int) (*generator.Result, error) {
		return generator.New(generator.WithLogger(logger), generator.WithWorkers(workers)).
			Generate(ctx, generator.Request{Params: p, RNG: rng.NewSeeded(seed, logger)})
	}

	tests := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"generation", func(ctx context.Context) error {
			res, err := generate(1)
			if err != nil {
				return err
			}
			if res.Table.Len() != p.NTraces {
				return fmt.Errorf("got %d traces, want %d", res.Table.Len(), p.NTraces)
			}
			return nil
		}},
		{"parallel_matches_sequential", func(ctx context.Context) error {
			seq, err := generate(1)
			if err != nil {
				return err
			}
			par, err := generate(4)
			if err != nil {
				return err
			}
			a, err := seq.Table.Fingerprint()
			if err != nil {
				return err
			}
			b, err := par.Table.Fingerprint()
			if err != nil {
				return err
			}
			if !a.Equals(b) {
				return fmt.Errorf("table hashes differ: %s vs %s", a.Short(), b.Short())
			}
			return nil
		}},
		{"export", func(ctx context.Context) error {
			res, err := generate(1)
			if err != nil {
				return err
			}
			dir, err := os.MkdirTemp("", "fiddler-smoke")
			if err != nil {
				return err
			}
			defer os.RemoveAll(dir)
			exp := export.NewExporter(core.SystemClock, logger)
			for _, f := range []export.Format{export.FormatASCII, export.FormatCSV, export.FormatXLSX} {
				if _, err := exp.Export(dir, f, res.Table, nil); err != nil {
					return err
				}
			}
			return nil
		}},
		{"archive_round_trip", func(ctx context.Context) error {
			res, err := generate(1)
			if err != nil {
				return err
			}
			m, err := run.NewManifest(p, res.Seed, 1, res.Table)
			if err != nil {
				return err
			}
			store, err := archive.Open(ctx, "sqlite3", ":memory:", logger)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(ctx, m); err != nil {
				return err
			}
			got, err := store.Get(ctx, m.RunID)
			if err != nil {
				return err
			}
			if !got.TableHash.Equals(m.TableHash) {
				return fmt.Errorf("archived table hash changed")
			}
			return nil
		}},
	}

	passed := 0
	for _, test := range tests {
		fmt.Printf("  Running %s...", test.name)
		if err := test.fn(ctx); err != nil {
			fmt.Printf(" FAILED: %v\n", err)
		} else {
			fmt.Println(" PASSED")
			passed++
		}
	}

	fmt.Printf("\nSmoke tests: %d/%d passed\n", passed, len(tests))
	if passed < len(tests) {
		return fmt.Errorf("some smoke tests failed")
	}

	return nil
}

func testDeterminism(ctx context.Context, runID core.RunID) error {
	fmt.Printf("Testing determinism for run %s...\n", runID)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := internal.NewDefaultLogger()
	store, err := archive.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	original, err := store.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get original run: %w", err)
	}
	if original.Fingerprint.CodeVersion != run.CodeVersion {
		fmt.Printf("warning: run was generated by %s, this build is %s\n", original.Fingerprint.CodeVersion, run.CodeVersion)
	}

	fmt.Println("Re-running with same parameters and seed...")
	res, err := generator.New(generator.WithLogger(logger), generator.WithWorkers(original.Workers)).
		Generate(ctx, generator.Request{Params: original.Params, RNG: rng.NewSeeded(original.Seed, logger)})
	if err != nil {
		return fmt.Errorf("failed to replay run: %w", err)
	}

	ok, err := original.Matches(res.Table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("determinism test failed: table hash differs from archived %s", original.TableHash.Short())
	}

	fmt.Println("✓ Determinism test passed - results identical")
	return nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|status]",
		Short: "Apply or inspect the run archive schema",
		Long: `Run archive schema migrations against ARCHIVE_DRIVER / ARCHIVE_DSN.

Commands:
  up      Apply the schema
  status  Show the schema version and the number of archived runs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), args[0])
		},
	}
	return cmd
}

func runMigrations(ctx context.Context, action string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("Running migrations: %s (%s)\n", action, cfg.Archive.Driver)

	db, err := sqlx.ConnectContext(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrator := migration.NewRunner()
	switch action {
	case "up":
		if err := migrator.Run(ctx, db); err != nil {
			return err
		}
		fmt.Printf("Schema at version %s\n", migrator.Version())
		return nil
	case "status":
		var count int
		if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM runs`); err != nil {
			return fmt.Errorf("runs table missing, run 'migrate up': %w", err)
		}
		fmt.Printf("Schema version %s, %d archived runs\n", migrator.Version(), count)
		return nil
	default:
		return fmt.Errorf("unknown migration action: %s", action)
	}
}
