// Command pbilint scores tabular data models against best-practice rules.
package main

import (
	"os"

	"github.com/trannammai/pbilint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
