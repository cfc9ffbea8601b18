package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pubspork/internal/alert"
	"pubspork/internal/config"
	"pubspork/internal/export"
	"pubspork/internal/ledger"
	"pubspork/internal/library"
	"pubspork/internal/match"
	"pubspork/internal/pub"
	"pubspork/internal/report"
	"pubspork/internal/resolve"
	"pubspork/internal/triage"
)

// alertDateLayout is the --since/--before format, e.g. 01-Dec-2024.
const alertDateLayout = "02-Jan-2006"

var (
	matchAlertsDir    string
	matchSources      string
	matchSince        string
	matchBefore       string
	matchLibType      string
	matchLibPath      string
	matchLedger       string
	matchLedgerOut    string
	matchCurationPage string
	matchFormat       string
	matchBibTeXOut    string
	matchProxy        string
	matchProxySep     string
	matchSearchURL    string
	matchThreshold    float64
	matchIgnored      bool
	matchResolveURLs  bool
)

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchAlertsDir, "alerts-dir", "", "Directory of raw alert emails (.eml files)")
	f.StringVar(&matchSources, "sources", "all", "Alert sources to process: 'all' or a comma-separated list")
	f.StringVar(&matchSince, "since", "", "Only process alerts on or after this date (01-Dec-2024)")
	f.StringVar(&matchBefore, "before", "", "Only process alerts before this date (01-Jan-2025)")
	f.StringVar(&matchLibType, "lib-type", "", "Library export format (zotero-csv, citeulike-json)")
	f.StringVar(&matchLibPath, "lib-path", "", "Path to the library export")
	f.StringVar(&matchLedger, "ledger", "", "Known-pubs ledger TSV to read and update")
	f.StringVar(&matchLedgerOut, "ledger-out", "", "Write the updated ledger here instead of in place")
	f.StringVar(&matchCurationPage, "curation-page", "", "Where to write the curation page")
	f.StringVar(&matchFormat, "format", "html", "Curation page format (html, markdown)")
	f.StringVar(&matchBibTeXOut, "bibtex", "", "Also write newly reported pubs as BibTeX to this file")
	f.StringVar(&matchProxy, "proxy", "", "Paywall proxy to splice into pub URLs")
	f.StringVar(&matchProxySep, "proxy-separator", "", "How the proxy rewrites host dots (dot, dash)")
	f.StringVar(&matchSearchURL, "custom-search-url", "", "Catalog search URL the pub title gets appended to")
	f.Float64Var(&matchThreshold, "threshold", 0, "Minimum edit similarity for a probable title match")
	f.BoolVar(&matchIgnored, "include-ignored", false, "Also list pubs previously dismissed by a human")
	f.BoolVar(&matchResolveURLs, "resolve-urls", false, "Follow pub URL redirects before generating links")
	matchCmd.MarkFlagRequired("alerts-dir")
	matchCmd.MarkFlagRequired("curation-page")
	rootCmd.AddCommand(matchCmd)
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match alert emails against the library and the known-pubs ledger",
	Long: `Match newly reported pubs with pubs in a library and pubs from
earlier runs, and generate an actionable curation page.

Usage:
  pubspork match --alerts-dir alerts/ --ledger known-pubs.tsv \
    --lib-type zotero-csv --lib-path library.csv \
    --curation-page curation.html --since 01-Dec-2024`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

// MatchResult is the JSON summary of one match run.
type MatchResult struct {
	Alerts       int            `json:"alerts"`
	Messages     int            `json:"messages"`
	Counts       map[string]int `json:"counts"`
	Skipped      int            `json:"skipped"`
	LedgerSize   int            `json:"ledger_size"`
	CurationPage string         `json:"curation_page"`
	Ledger       string         `json:"ledger,omitempty"`
	BibTeX       string         `json:"bibtex,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	applyConfig(cmd, cfg)

	sources, err := alert.ParseSources(matchSources)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	since, before, err := parseDateRange(matchSince, matchBefore)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	proxySep, err := report.ParseProxySeparator(matchProxySep)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	alerts, messages, warnings := readAlerts(matchAlertsDir, sources, since, before)

	var libraryPubs []pub.Raw
	if matchLibPath != "" {
		if matchLibType == "" {
			exitWithError(ExitConfigError, "--lib-path given without --lib-type")
		}
		var errs []error
		libraryPubs, errs = library.Read(library.Type(matchLibType), matchLibPath)
		if libraryPubs == nil && len(errs) > 0 {
			exitWithError(ExitDataError, "reading library: %v", errs[0])
		}
		for _, e := range errs {
			warnings = append(warnings, fmt.Sprintf("library: %v", e))
		}
	}

	led, err := ledger.LoadFile(matchLedger)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	warnings = append(warnings, led.Warnings()...)

	m := match.New()
	if matchThreshold != 0 {
		m.Threshold = matchThreshold
	}

	now := time.Now()
	res := triage.Run(alerts, libraryPubs, led, m, now)

	if matchResolveURLs {
		resolveURLs(cmd.Context(), &res)
	}

	ledgerOut := matchLedgerOut
	if ledgerOut == "" {
		ledgerOut = matchLedger
	}
	if ledgerOut != "" {
		if err := led.SaveFile(ledgerOut); err != nil {
			exitWithError(ExitError, "writing ledger: %v", err)
		}
	}

	page := report.BuildPage(res, now, report.Options{
		Proxy:           matchProxy,
		ProxySeparator:  proxySep,
		CustomSearchURL: matchSearchURL,
		IncludeIgnored:  matchIgnored,
	})
	if err := writeCurationPage(matchCurationPage, matchFormat, page); err != nil {
		exitWithError(ExitError, "writing curation page: %v", err)
	}

	if matchBibTeXOut != "" {
		if err := writeBibTeX(matchBibTeXOut, res); err != nil {
			exitWithError(ExitError, "writing bibtex: %v", err)
		}
	}

	for _, w := range warnings {
		warn("%s", w)
	}

	result := MatchResult{
		Alerts:       len(res.Classified),
		Messages:     messages,
		Counts:       classCounts(res),
		Skipped:      res.Skipped,
		LedgerSize:   led.Len(),
		CurationPage: matchCurationPage,
		Ledger:       ledgerOut,
		BibTeX:       matchBibTeXOut,
		Warnings:     warnings,
	}
	if humanOutput {
		printMatchHuman(result, res)
		return nil
	}
	return outputJSON(result)
}

// applyConfig fills in flags the user left unset from the config file.
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, target *string, value string) {
		if !cmd.Flags().Changed(name) && value != "" {
			*target = value
		}
	}
	set("lib-type", &matchLibType, cfg.LibraryType)
	set("lib-path", &matchLibPath, cfg.LibraryPath)
	set("ledger", &matchLedger, cfg.LedgerPath)
	set("proxy", &matchProxy, cfg.Proxy)
	set("proxy-separator", &matchProxySep, cfg.ProxySeparator)
	set("custom-search-url", &matchSearchURL, cfg.CustomSearchURL)
	if !cmd.Flags().Changed("threshold") && cfg.MatchThreshold != 0 {
		matchThreshold = cfg.MatchThreshold
	}
}

func parseDateRange(sinceArg, beforeArg string) (since, before time.Time, err error) {
	if sinceArg != "" {
		since, err = time.Parse(alertDateLayout, sinceArg)
		if err != nil {
			return since, before, fmt.Errorf("parsing --since: %w", err)
		}
	}
	if beforeArg != "" {
		before, err = time.Parse(alertDateLayout, beforeArg)
		if err != nil {
			return since, before, fmt.Errorf("parsing --before: %w", err)
		}
	}
	return since, before, nil
}

// readAlerts parses every .eml file in the directory whose sender
// matches a selected source and whose date falls in the window.
// Unparseable files become warnings, never fatal errors.
func readAlerts(dir string, sources []alert.Source, since, before time.Time) ([]pub.Raw, int, []string) {
	selected := make(map[alert.Source]bool, len(sources))
	for _, s := range sources {
		selected[s] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		exitWithError(ExitError, "reading alerts dir: %v", err)
	}

	var alerts []pub.Raw
	var warnings []string
	messages := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".eml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		msg, err := alert.ParseMessage(f)
		f.Close()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}

		adapter := alert.ForSender(msg.From)
		if adapter == nil || !selected[adapter.Source()] {
			continue
		}
		if !since.IsZero() && msg.Date.Before(since) {
			continue
		}
		if !before.IsZero() && !msg.Date.Before(before) {
			continue
		}

		pubs, err := adapter.Parse(msg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		messages++
		alerts = append(alerts, pubs...)
	}
	return alerts, messages, warnings
}

// resolveURLs replaces every classified pub's URL with its
// post-redirect form so curation links land on the publisher page.
func resolveURLs(ctx context.Context, res *triage.Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := resolve.New()
	for i := range res.Classified {
		res.Classified[i].Pub.URL = r.Resolve(ctx, res.Classified[i].Pub.URL)
	}
}

func writeCurationPage(path, format string, page report.Page) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "html":
		return report.WriteHTML(f, page)
	case "markdown", "md":
		return report.WriteMarkdown(f, page)
	default:
		return fmt.Errorf("unknown format %q (want html or markdown)", format)
	}
}

func writeBibTeX(path string, res triage.Result) error {
	var pubs []pub.Pub
	for _, c := range res.Classified {
		if c.Class == triage.ClassNewlyReported {
			pubs = append(pubs, c.Pub)
		}
	}
	return os.WriteFile(path, []byte(export.ToBibTeXList(pubs)), 0o644)
}

func classCounts(res triage.Result) map[string]int {
	counts := make(map[string]int, len(res.Counts))
	for class, n := range res.Counts {
		counts[string(class)] = n
	}
	return counts
}

func printMatchHuman(result MatchResult, res triage.Result) {
	outputHuman("Processed %d messages, %d pubs after dedup\n", result.Messages, result.Alerts)

	classes := make([]string, 0, len(result.Counts))
	for class := range result.Counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		outputHuman("  %-20s %d\n", class, result.Counts[class])
	}
	if result.Skipped > 0 {
		outputHuman("  %-20s %d\n", "skipped", result.Skipped)
	}

	for _, c := range res.Classified {
		if c.Class != triage.ClassNewlyReported {
			continue
		}
		outputHuman("new: %s\n", truncateString(c.Pub.Title, 70))
	}
	outputHuman("Curation page: %s\n", result.CurationPage)
	if result.Ledger != "" {
		outputHuman("Ledger: %s (%d pubs)\n", result.Ledger, result.LedgerSize)
	}
}
