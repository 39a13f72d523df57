// Command surveycore generates the canonical simulation-input dataset for a
// survey year from the raw survey tables.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"surveycore/internal/artifact"
	"surveycore/internal/config"
	"surveycore/internal/dataset"
	"surveycore/internal/pipeline"
	"surveycore/internal/rawstore"
	"surveycore/internal/sources"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "surveycore",
		Short:         "Survey-to-simulation-input dataset pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCommand())
	return root
}

func newGenerateCommand() *cobra.Command {
	var (
		year    int
		cfgPath string
		seed    int64
		seeded  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the canonical dataset for one survey year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				return fmt.Errorf("--year is required")
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return generate(cmd, cfg, year, seed, seeded, verbose)
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Survey year to generate")
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to surveycore.yaml")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the age-jitter random source")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.PreRun = func(c *cobra.Command, args []string) {
		seeded = c.Flags().Changed("seed")
	}
	return cmd
}

func generate(cmd *cobra.Command, cfg *config.Config, year int, seed int64, seeded, verbose bool) error {
	ctx := cmd.Context()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	raw, err := rawstore.Open(rawstore.Driver(cfg.Raw.Driver), cfg.RawStorePath())
	if err != nil {
		return fmt.Errorf("open raw store: %w", err)
	}
	defer func() { _ = raw.Close() }()

	store, err := artifact.Open(ctx, cfg.ArtifactStoreConfig())
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	gen := pipeline.NewGenerator(raw, sources.NewArchiveProvider(registry, raw), dataset.NewWriter(store))
	gen.Log = log
	switch {
	case seeded:
		gen.Seed = &seed
	case cfg.Seed != nil:
		gen.Seed = cfg.Seed
	}

	if _, err := gen.Generate(ctx, year); err != nil {
		return err
	}
	return nil
}
