package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/trannammai/pbilint/internal/analyzer"
	"github.com/trannammai/pbilint/internal/cli/config"
	"github.com/trannammai/pbilint/internal/report"
	"github.com/trannammai/pbilint/internal/rules"
	"github.com/trannammai/pbilint/internal/tabular"
	"github.com/trannammai/pbilint/pkg/bpa"
)

// Collaborator constructors, swappable in tests.
var (
	newAnalyzer = func(cfg *config.Config, logger *slog.Logger) analyzer.Analyzer {
		return analyzer.NewExecAnalyzer(cfg.AnalyzerCommand, logger)
	}
	newFetcher = func(cfg *config.Config, logger *slog.Logger) *rules.Fetcher {
		return rules.NewFetcher(&http.Client{Timeout: cfg.FetchTimeout()}, logger)
	}
)

// NewScoreCommand creates the score command.
func NewScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <model-path>",
		Short: "Score a tabular model against the best-practice rules",
		Long: `Load a tabular model, fetch the configured best-practice rule collection,
run the external analyzer, and print a quality report as one JSON object:

  {"objects":100,"errors":2,"warnings":10,"infos":0,"score":"9.00"}

objects is the model's measure count plus column count. The score starts at
10 and loses (warnings + errors*5) * 5 penalty points spread across the
scorable objects, floored at 0.

Only the report is written to stdout; collaborator logging goes to stderr
(or nowhere with --quiet). On failure a single error line is printed and the
exit status is 1.`,
		Example: `  # Score a TMDL semantic model folder
  pbilint score ./Sales.SemanticModel

  # Score a TMSL model file against a private rule collection
  pbilint score model.bim --rules-url https://internal.example/rules.json`,
		Args: cobra.ArbitraryArgs,
		// The root command silences usage on error; set it here too so the
		// command behaves the same when executed standalone.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args)
		},
	}
	return cmd
}

func runScore(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(cmd.OutOrStdout(), "Usage: pbilint score <model-path>")
		return ErrReported
	}

	cfg := GetConfig(cmd)
	logger := NewLogger(cmd, cfg)

	rep, err := scoreModel(cmd.Context(), cfg, logger, args[0], nil)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "An error occurred: %v\n", err)
		return ErrReported
	}

	data, err := json.Marshal(rep)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "An error occurred: %v\n", err)
		return ErrReported
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// scoreModel runs the full pipeline for one model: load, fetch rules unless
// a collection is supplied, analyze, tally, score. The violations slice is
// fully materialized before the report is built.
func scoreModel(ctx context.Context, cfg *config.Config, logger *slog.Logger, modelPath string, coll *bpa.Collection) (report.Report, error) {
	loader := tabular.NewLoader(logger)
	summary, err := loader.Load(modelPath, tabular.DefaultLoadOptions())
	if err != nil {
		return report.Report{}, err
	}

	if coll == nil {
		coll, err = newFetcher(cfg, logger).Fetch(ctx, cfg.RulesURL)
		if err != nil {
			return report.Report{}, err
		}
	}

	violations, err := newAnalyzer(cfg, logger).Analyze(ctx, modelPath, coll)
	if err != nil {
		return report.Report{}, err
	}

	return report.Build(summary, violations), nil
}
