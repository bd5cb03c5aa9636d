package commands

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trannammai/pbilint/internal/cli/output"
	"github.com/trannammai/pbilint/pkg/bpa"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active best-practice rule collection",
		Long: `Fetch the configured rule collection and list its rules with their
severity, category, and scope.

Output adapts to environment:
  - Terminal: styled table
  - Piped/Scripted: markdown table
  - JSON: the raw rule collection`,
		Example: `  # List the active rules
  pbilint rules

  # List a private collection as JSON
  pbilint rules --rules-url https://internal.example/rules.json --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd)
		},
	}
	return cmd
}

func runRules(cmd *cobra.Command) error {
	cfg := GetConfig(cmd)
	logger := NewLogger(cmd, cfg)
	r := GetRenderer(cmd)

	coll, err := newFetcher(cfg, logger).Fetch(cmd.Context(), cfg.RulesURL)
	if err != nil {
		return err
	}

	sorted := make([]bpa.Rule, len(coll.Rules))
	copy(sorted, coll.Rules)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].ID < sorted[j].ID
	})

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(sorted)
	}

	titler := cases.Title(language.English)

	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.AppendHeader(table.Row{"ID", "Severity", "Category", "Name", "Scope"})
	for _, rule := range sorted {
		t.AppendRow(table.Row{
			rule.ID,
			rule.Severity.String(),
			titler.String(rule.Category),
			rule.Name,
			rule.Scope,
		})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.SetStyle(table.StyleLight)
		t.Render()
	}

	r.Plain("%d rules from %s", len(sorted), coll.Source)
	return nil
}
