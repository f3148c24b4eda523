// Package main provides the entry point for the repoharvest CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/repoharvest/cmd/repoharvest/commands"
	"github.com/Sumatoshi-tech/repoharvest/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "repoharvest",
		Short: "Repoharvest - incremental repository collection",
		Long: `Repoharvest collects version histories and auxiliary review data
from configured repositories into deduplicated table artifacts.

Commands:
  collect   Run one collection pass over the configured repositories`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewCollectCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stdout, version.String())
		},
	}
}
