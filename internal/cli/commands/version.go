package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo carries the version details stamped in at build time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the pbilint version and build metadata.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pbilint %s\n", info.Version)
			if info.GitCommit != "" {
				fmt.Fprintf(out, "commit: %s\n", info.GitCommit)
			}
			if info.BuildDate != "" {
				fmt.Fprintf(out, "built:  %s\n", info.BuildDate)
			}
		},
	}
}
