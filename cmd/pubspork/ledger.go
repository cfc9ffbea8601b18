package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pubspork/internal/config"
	"pubspork/internal/ledger"
)

var (
	ledgerPath   string
	ledgerDBPath string
	ledgerState  string
)

func init() {
	for _, c := range []*cobra.Command{ledgerSyncCmd, ledgerInfoCmd} {
		c.Flags().StringVar(&ledgerPath, "ledger", "", "Known-pubs ledger TSV")
		c.Flags().StringVar(&ledgerDBPath, "db", "", "SQLite mirror database")
		ledgerCmd.AddCommand(c)
	}
	ledgerExportCmd.Flags().StringVar(&ledgerPath, "ledger", "", "Known-pubs ledger TSV")
	ledgerExportCmd.Flags().StringVar(&ledgerState, "state", "", "Only export entries in this state (new, in_library, ignore)")
	ledgerCmd.AddCommand(ledgerExportCmd)
	rootCmd.AddCommand(ledgerCmd)
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and mirror the known-pubs ledger",
}

var ledgerSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the SQLite mirror from the ledger TSV",
	Args:  cobra.NoArgs,
	RunE:  runLedgerSync,
}

var ledgerInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show mirror entry counts and last sync time",
	Args:  cobra.NoArgs,
	RunE:  runLedgerInfo,
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump ledger entries as JSON",
	Args:  cobra.NoArgs,
	RunE:  runLedgerExport,
}

// SyncResult is the JSON output of ledger sync.
type SyncResult struct {
	Ledger   string `json:"ledger"`
	DB       string `json:"db"`
	Synced   int    `json:"synced"`
	SyncedAt string `json:"synced_at"`
}

// InfoResult is the JSON output of ledger info.
type InfoResult struct {
	DB       string         `json:"db"`
	Total    int            `json:"total"`
	States   map[string]int `json:"states"`
	LastSync string         `json:"last_sync,omitempty"`
}

func ledgerPaths(cmd *cobra.Command) {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if !cmd.Flags().Changed("ledger") && cfg.LedgerPath != "" {
		ledgerPath = cfg.LedgerPath
	}
	if !cmd.Flags().Changed("db") && cfg.LedgerDBPath != "" {
		ledgerDBPath = cfg.LedgerDBPath
	}
	if ledgerDBPath == "" {
		exitWithError(ExitConfigError, "no mirror database: pass --db or set ledger_db_path")
	}
}

func runLedgerSync(cmd *cobra.Command, args []string) error {
	ledgerPaths(cmd)
	if ledgerPath == "" {
		exitWithError(ExitConfigError, "no ledger: pass --ledger or set ledger_path")
	}

	led, err := ledger.LoadFile(ledgerPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	for _, w := range led.Warnings() {
		warn("%s", w)
	}

	db, err := ledger.OpenDB(ledgerDBPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	now := time.Now()
	n, err := db.Sync(led, now)
	if err != nil {
		exitWithError(ExitError, "syncing mirror: %v", err)
	}

	if humanOutput {
		outputHuman("Synced %d pubs from %s to %s\n", n, ledgerPath, ledgerDBPath)
		return nil
	}
	return outputJSON(SyncResult{
		Ledger:   ledgerPath,
		DB:       ledgerDBPath,
		Synced:   n,
		SyncedAt: now.Format(time.RFC3339),
	})
}

// ExportEntry is one ledger row in export output.
type ExportEntry struct {
	Title      string `json:"title"`
	Authors    string `json:"authors,omitempty"`
	DOI        string `json:"doi,omitempty"`
	Year       int    `json:"year,omitempty"`
	Journal    string `json:"journal,omitempty"`
	State      string `json:"state"`
	FirstSeen  string `json:"first_seen,omitempty"`
	EntryDate  string `json:"entry_date,omitempty"`
	Annotation string `json:"annotation,omitempty"`
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if !cmd.Flags().Changed("ledger") && cfg.LedgerPath != "" {
		ledgerPath = cfg.LedgerPath
	}
	if ledgerPath == "" {
		exitWithError(ExitConfigError, "no ledger: pass --ledger or set ledger_path")
	}

	led, err := ledger.LoadFile(ledgerPath)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	for _, w := range led.Warnings() {
		warn("%s", w)
	}

	entries := []ExportEntry{}
	for _, e := range led.Entries() {
		if ledgerState != "" && string(e.State) != ledgerState {
			continue
		}
		out := ExportEntry{
			Title:      e.Title,
			Authors:    strings.Join(e.Authors, "; "),
			DOI:        e.DOI,
			Year:       e.Year,
			Journal:    e.Journal,
			State:      string(e.State),
			Annotation: e.Annotation,
		}
		if !e.FirstSeen.IsZero() {
			out.FirstSeen = e.FirstSeen.Format("2006-01-02")
		}
		if !e.EntryDate.IsZero() {
			out.EntryDate = e.EntryDate.Format("2006-01-02")
		}
		entries = append(entries, out)
	}

	if humanOutput {
		for _, e := range entries {
			outputHuman("%-12s %s\n", e.State, truncateString(e.Title, 64))
		}
		outputHuman("%d entries\n", len(entries))
		return nil
	}
	return outputJSON(entries)
}

func runLedgerInfo(cmd *cobra.Command, args []string) error {
	ledgerPaths(cmd)

	db, err := ledger.OpenDB(ledgerDBPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	total, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting entries: %v", err)
	}
	stateCounts, err := db.StateCounts()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	lastSync, err := db.LastSync()
	if err != nil {
		exitWithError(ExitError, "reading sync time: %v", err)
	}

	states := make(map[string]int, len(stateCounts))
	for state, n := range stateCounts {
		states[string(state)] = n
	}

	result := InfoResult{DB: ledgerDBPath, Total: total, States: states}
	if !lastSync.IsZero() {
		result.LastSync = lastSync.Format(time.RFC3339)
	}

	if humanOutput {
		outputHuman("Mirror: %s\n", ledgerDBPath)
		outputHuman("Entries: %d\n", total)
		for _, state := range []ledger.State{ledger.StateNew, ledger.StateInLibrary, ledger.StateIgnore} {
			if n := stateCounts[state]; n > 0 {
				outputHuman("  %-12s %d\n", state, n)
			}
		}
		if !lastSync.IsZero() {
			outputHuman("Last sync: %s\n", lastSync.Format(time.RFC3339))
		}
		return nil
	}
	return outputJSON(result)
}
