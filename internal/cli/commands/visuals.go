package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/trannammai/pbilint/internal/visuals"
)

// VisualsOptions holds options for the visuals command.
type VisualsOptions struct {
	Results string // inspector results file
}

// NewVisualsCommand creates the visuals command.
func NewVisualsCommand() *cobra.Command {
	opts := &VisualsOptions{}
	cmd := &cobra.Command{
		Use:   "visuals <report-dir>",
		Short: "Score a report's visuals from visual-inspector results",
		Long: `Count the visuals in a report definition (report.json) and aggregate an
external visual inspector's results file into the same JSON report shape
used for model scoring. Failed checks weigh five visuals, error findings
carry double penalty weight, and a report with no visuals scores 0.`,
		Example: `  # Score the visuals of a report item
  pbilint visuals ./Sales.Report --results inspection.json`,
		Args: cobra.ArbitraryArgs,
		// The root command silences usage on error; set it here too so the
		// command behaves the same when executed standalone.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVisuals(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Results, "results", "", "Path to the inspector results file (required)")

	return cmd
}

func runVisuals(cmd *cobra.Command, args []string, opts *VisualsOptions) error {
	if len(args) != 1 || opts.Results == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Usage: pbilint visuals <report-dir> --results <file>")
		return ErrReported
	}

	cfg := GetConfig(cmd)
	logger := NewLogger(cmd, cfg)

	summary, err := scoreVisuals(args[0], opts.Results, logger)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "An error occurred: %v\n", err)
		return ErrReported
	}

	data, err := json.Marshal(summary)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "An error occurred: %v\n", err)
		return ErrReported
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func scoreVisuals(reportDir, resultsPath string, logger *slog.Logger) (visuals.Summary, error) {
	nVisuals, err := visuals.CountVisuals(reportDir)
	if err != nil {
		return visuals.Summary{}, err
	}

	results, err := visuals.LoadResults(resultsPath)
	if err != nil {
		return visuals.Summary{}, err
	}

	return visuals.Aggregate(results, nVisuals, logger), nil
}
