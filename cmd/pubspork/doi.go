package main

import (
	"github.com/spf13/cobra"

	"pubspork/internal/pdfdoi"
)

func init() {
	rootCmd.AddCommand(doiCmd)
}

var doiCmd = &cobra.Command{
	Use:   "doi <file.pdf>",
	Short: "Extract the DOI from a publication PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runDOI,
}

// DOIResult is the JSON output of the doi command.
type DOIResult struct {
	File string `json:"file"`
	DOI  string `json:"doi"`
}

func runDOI(cmd *cobra.Command, args []string) error {
	doi, err := pdfdoi.ExtractDOI(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if doi == "" {
		exitWithError(ExitDataError, "no DOI found in %s", args[0])
	}

	if humanOutput {
		outputHuman("%s\n", doi)
		return nil
	}
	return outputJSON(DOIResult{File: args[0], DOI: doi})
}
