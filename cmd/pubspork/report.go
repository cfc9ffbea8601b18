package main

import (
	"os"

	"github.com/spf13/cobra"

	"pubspork/internal/config"
	"pubspork/internal/library"
	"pubspork/internal/pub"
	"pubspork/internal/report"
)

var (
	reportLibType string
	reportLibPath string
	reportFormat  string
	reportOut     string
)

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportLibType, "lib-type", "", "Library export format (zotero-csv, citeulike-json)")
	f.StringVar(&reportLibPath, "lib-path", "", "Path to the library export")
	f.StringVar(&reportFormat, "format", "markdown", "Report format (html, markdown)")
	f.StringVar(&reportOut, "out", "", "Write the report here instead of stdout")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the library by year and journal",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if !cmd.Flags().Changed("lib-type") && cfg.LibraryType != "" {
		reportLibType = cfg.LibraryType
	}
	if !cmd.Flags().Changed("lib-path") && cfg.LibraryPath != "" {
		reportLibPath = cfg.LibraryPath
	}
	if reportLibPath == "" {
		exitWithError(ExitConfigError, "no library configured: pass --lib-path or set library_path")
	}

	raws, errs := library.Read(library.Type(reportLibType), reportLibPath)
	if raws == nil && len(errs) > 0 {
		exitWithError(ExitDataError, "reading library: %v", errs[0])
	}
	for _, e := range errs {
		warn("library: %v", e)
	}

	var pubs []pub.Pub
	for _, raw := range raws {
		p, err := pub.Normalize(raw)
		if err != nil {
			continue
		}
		pubs = append(pubs, p)
	}

	rpt := report.BuildLibraryReport(pubs)

	out := os.Stdout
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		defer f.Close()
		out = f
	}

	switch reportFormat {
	case "html":
		err = report.WriteLibraryHTML(out, rpt)
	case "markdown", "md":
		err = report.WriteLibraryMarkdown(out, rpt)
	case "json":
		err = outputJSON(rpt)
	default:
		exitWithError(ExitError, "unknown format %q (want html, markdown, or json)", reportFormat)
	}
	if err != nil {
		exitWithError(ExitError, "writing report: %v", err)
	}
	if reportOut != "" && humanOutput {
		outputHuman("Wrote %s report for %d pubs to %s\n", reportFormat, rpt.Total, reportOut)
	}
	return nil
}
