package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "famcal",
	Short: "Shared family calendar with an agent-facing tool server",
	Long: `famcal keeps one shared calendar for a household and exposes it as a
set of MCP scheduling tools for a conversational agent.

It can run as:
  - An MCP server over stdio or HTTP (serve)
  - A one-shot seeding or export command`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "famcal version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newExportCmd())
}
