package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"refugia/adapters/render"
	"refugia/adapters/rng"
	"refugia/adapters/wals"
	"refugia/app"
	"refugia/domain/atlas"
	"refugia/internal/config"
	apperrors "refugia/internal/errors"
	"refugia/internal/testkit"
	"refugia/ports"
)

func main() {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "refugia",
		Short: "Statistical analysis of linguistic feature distributions in refugia",
		Long: `Tests whether typological features are over-represented in the
Americas, Caucasus, and Sahul refugia, using enrichment factors against a
global baseline and Moran's I spatial autocorrelation with randomization
significance.`,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDemoCmd(),
		newRulesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if code := apperrors.GetCode(err); code != apperrors.CodeUnknown {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", code, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type runFlags struct {
	neighbors    int
	seed         int64
	permutations int
	workers      int
	format       string
	out          string
}

func (f *runFlags) register(cmd *cobra.Command, defaults config.AnalysisConfig, report config.ReportConfig) {
	cmd.Flags().IntVar(&f.neighbors, "neighbors", defaults.Neighbors, "Nearest neighbors per language in the weight matrix")
	cmd.Flags().Int64Var(&f.seed, "seed", defaults.Seed, "Random seed for deterministic permutation streams")
	cmd.Flags().IntVar(&f.permutations, "permutations", defaults.PermutationRounds, "Permutation test rounds (0 disables)")
	cmd.Flags().IntVar(&f.workers, "workers", defaults.Workers, "Concurrent per-feature analyses")
	cmd.Flags().StringVar(&f.format, "format", report.Format, "Report format: text, markdown, html or xlsx")
	cmd.Flags().StringVar(&f.out, "out", report.OutputDir, "Output file (default stdout; required for xlsx)")
}

func newAnalyzeCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "analyze [wals-xml-files...]",
		Short: "Run the full refugia analysis over WALS XML exports",
		Long: `Run the complete pipeline over WALS chapter exports.

File order matters: population deduplication keeps the first occurrence of
each language ID under the given order. When no paths are given, the
comma-separated REFUGIA_FILES variable supplies them.

Example: refugia analyze 1a.xml 2a.xml 18a.xml 131a.xml --permutations 999`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				files = loadConfig().Data.Files
			}
			if len(files) == 0 {
				return apperrors.InvalidInput("no input files: pass WALS XML paths or set REFUGIA_FILES")
			}
			return runAnalysis(cmd.Context(), wals.NewReader(files...), flags)
		},
	}

	cfg := loadConfig()
	flags.register(cmd, cfg.Analysis, cfg.Report)
	return cmd
}

// loadConfig reads the env-driven defaults; flag values always win over it.
// An invalid environment falls back to built-in defaults so flag parsing can
// still surface a usable CLI.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		return &config.Config{
			Analysis: config.AnalysisConfig{Neighbors: 5, Seed: 42, Workers: 4},
			Report:   config.ReportConfig{Format: "text"},
		}
	}
	return cfg
}

func newDemoCmd() *cobra.Command {
	var flags runFlags
	var languages int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the pipeline over a seeded synthetic atlas",
		Long: `Generate a synthetic atlas with a planted refugia signal and push it
through the full pipeline. Useful for checking the installation and for
seeing what a strongly clustered result looks like.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets := testkit.GenerateAtlas(testkit.Config{
				Seed:                flags.seed,
				LanguagesPerFeature: languages,
				RefugiaMatchBias:    0.75,
			})
			return runAnalysis(cmd.Context(), atlas.StaticSource{Datasets: datasets}, flags)
		},
	}

	cfg := loadConfig()
	flags.register(cmd, cfg.Analysis, cfg.Report)
	cmd.Flags().IntVar(&languages, "languages", 120, "Synthetic languages per chapter")
	return cmd
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the default feature rule registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range atlas.DefaultRules() {
				values := make([]string, len(r.TargetValues))
				for i, v := range r.TargetValues {
					values[i] = fmt.Sprintf("%d", v)
				}
				fmt.Printf("%-6s values {%s}  %s\n", r.FeatureID, strings.Join(values, ","), r.Label)
			}
			return nil
		},
	}
}

func runAnalysis(ctx context.Context, source ports.FeatureSource, flags runFlags) error {
	service := app.NewAnalysisService(source, rng.NewSeededSource())

	rep, err := service.Run(ctx, app.AnalysisRequest{
		Rules:             atlas.DefaultRules(),
		Neighbors:         flags.neighbors,
		Seed:              flags.seed,
		PermutationRounds: flags.permutations,
		Workers:           flags.workers,
	})
	if err != nil {
		return err
	}

	sink, cleanup, err := buildSink(flags)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := sink.Write(ctx, rep); err != nil {
		return apperrors.ReportFailed(sink.Name(), err)
	}
	return nil
}

// buildSink resolves the format/out flags into a report sink plus the
// closer for any file it opened.
func buildSink(flags runFlags) (ports.ReportSink, func(), error) {
	noop := func() {}

	if flags.format == "xlsx" {
		path := flags.out
		if path == "" {
			path = "refugia-report.xlsx"
		}
		if filepath.Ext(path) != ".xlsx" {
			path += ".xlsx"
		}
		return render.NewXLSXSink(path), noop, nil
	}

	var out io.Writer = os.Stdout
	cleanup := noop
	if flags.out != "" {
		f, err := os.Create(flags.out)
		if err != nil {
			return nil, nil, fmt.Errorf("opening output file: %w", err)
		}
		out = f
		cleanup = func() { f.Close() }
	}

	switch flags.format {
	case "text":
		return render.NewTextSink(out), cleanup, nil
	case "markdown":
		return render.NewMarkdownSink(out), cleanup, nil
	case "html":
		return render.NewHTMLSink(out), cleanup, nil
	default:
		cleanup()
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("unknown report format %q", flags.format))
	}
}
