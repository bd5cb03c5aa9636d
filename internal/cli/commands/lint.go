package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trannammai/pbilint/internal/cli/output"
	"github.com/trannammai/pbilint/internal/platform"
	"github.com/trannammai/pbilint/internal/report"
)

// Lint score thresholds. At or above excellent the item just logs, at or
// above attention it logs a warning, below that the lint run fails.
const (
	excellentThreshold = 8.0
	attentionThreshold = 6.0
)

// scoreWorkers bounds concurrent analyzer subprocesses during a lint run.
const scoreWorkers = 4

// LintOptions holds options for the lint command.
type LintOptions struct {
	Path     string // workspace root to scan
	MaxDepth int    // item search depth, 0 means configured default
}

// ItemResult is the lint outcome for one workspace item. Exactly one of
// Report and Error is set.
type ItemResult struct {
	Item   string         `json:"item"`
	Folder string         `json:"folder"`
	Report *report.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path]",
		Short: "Score every semantic model item under a workspace folder",
		Long: `Walk a workspace folder for items (folders carrying a .platform metadata
file), score each SemanticModel item against the best-practice rules, and
grade the results: 8.0 or better is excellent, 6.0 or better needs
attention, anything lower is poor and fails the run.

Report items are listed but not scored here; score their visuals with
'pbilint visuals' once inspector results are available.`,
		Example: `  # Lint the current workspace
  pbilint lint

  # Lint a checkout subtree with a deeper item search
  pbilint lint ./workspaces/finance --max-depth 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runLint(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "Item search depth (default from config)")

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions) error {
	cfg := GetConfig(cmd)
	logger := NewLogger(cmd, cfg)
	r := GetRenderer(cmd)

	root := opts.Path
	if root == "" {
		root = "."
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = cfg.MaxDepth
	}

	groups, err := platform.Discover(root, maxDepth)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		r.Warning("no items found at %s", root)
		return nil
	}

	// One rule collection for the whole run.
	coll, err := newFetcher(cfg, logger).Fetch(cmd.Context(), cfg.RulesURL)
	if err != nil {
		return err
	}

	var results []ItemResult
	for _, group := range groups {
		logger.Info("reviewing folder",
			"folder", group.Folder,
			"semanticModels", len(group.SemanticModels),
			"reports", len(group.Reports),
		)

		for _, item := range group.SemanticModels {
			results = append(results, ItemResult{Item: item.Path, Folder: group.Folder})
		}
		for _, item := range group.Reports {
			logger.Debug("skipping report item, use the visuals command", "item", item.Path)
		}
	}

	// Items score independently; grading stays sequential to keep output
	// ordered.
	eg, egctx := errgroup.WithContext(cmd.Context())
	eg.SetLimit(scoreWorkers)
	for i := range results {
		eg.Go(func() error {
			rep, err := scoreModel(egctx, cfg, logger, results[i].Item, coll)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = &rep
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	failed := false
	for _, res := range results {
		if res.Error != "" {
			logger.Error("linting failed", "item", res.Item, "error", res.Error)
			failed = true
			continue
		}
		failed = gradeItem(r, logger, res.Item, *res.Report) || failed
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(results); err != nil {
			return err
		}
	}

	if failed {
		return fmt.Errorf("lint issues found")
	}
	return nil
}

// gradeItem renders one scored item against the thresholds and reports
// whether it counts as a failure.
func gradeItem(r *output.Renderer, logger *slog.Logger, item string, rep report.Report) (failed bool) {
	score := report.ComputeScore(rep.Objects, rep.Warnings, rep.Errors)

	switch {
	case score >= excellentThreshold:
		logger.Info("excellent", "item", item, "score", rep.Score, "errors", rep.Errors, "warnings", rep.Warnings)
		if r.EffectiveMode() != output.ModeJSON {
			r.Success("%s - score %s", item, rep.Score)
		}
	case score >= attentionThreshold:
		logger.Warn("needs attention", "item", item, "score", rep.Score, "errors", rep.Errors, "warnings", rep.Warnings)
		if r.EffectiveMode() != output.ModeJSON {
			r.Warning("%s - score %s", item, rep.Score)
		}
	default:
		logger.Error("poor performance", "item", item, "score", rep.Score, "errors", rep.Errors, "warnings", rep.Warnings)
		if r.EffectiveMode() != output.ModeJSON {
			r.Error("%s - score %s", item, rep.Score)
		}
		failed = true
	}
	return failed
}
