// Package main is the entry point for the braid CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "braid",
		Short:         "Context budget engine for local LLMs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		versionCmd(),
		startCmd(),
		budgetCmd(),
		configCmd(),
		serviceCmd(),
		mcpCmd(),
	)
	return root
}
