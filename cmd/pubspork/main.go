// Package main provides the pubspork CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubspork",
	Short: "Match publication alerts against a curated library",
	Long: `pubspork turns piles of publication alert emails into an actionable
curation page.

It parses alerts from Google Scholar, My NCBI, ScienceDirect, Wiley,
and Web of Science, matches every reported pub against your reference
library and against the pubs seen on earlier runs, and writes out a
curation page plus an updated known-pubs ledger. Commands output JSON
by default for easy scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
