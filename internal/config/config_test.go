package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	ResetCache()
	t.Cleanup(ResetCache)

	if err := os.MkdirAll(filepath.Join(dir, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, Dir, File), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	writeConfig(t, `
library_type: zotero-csv
library_path: /data/library.csv
library_url: https://www.zotero.org/groups/1732893/galaxy
ledger_path: /data/known-pubs.tsv
proxy: .proxy1.library.jhu.edu
proxy_separator: dash
match_threshold: 0.85
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LibraryType != "zotero-csv" {
		t.Errorf("LibraryType = %q", cfg.LibraryType)
	}
	if cfg.LedgerPath != "/data/known-pubs.tsv" {
		t.Errorf("LedgerPath = %q", cfg.LedgerPath)
	}
	if cfg.ProxySeparator != "dash" {
		t.Errorf("ProxySeparator = %q", cfg.ProxySeparator)
	}
	if cfg.MatchThreshold != 0.85 {
		t.Errorf("MatchThreshold = %v", cfg.MatchThreshold)
	}
}

func TestLoad_MissingFileIsEmptyConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	ResetCache()
	t.Cleanup(ResetCache)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != (Config{}) {
		t.Errorf("Load() = %+v, want zero config", cfg)
	}
}

func TestLoad_Malformed(t *testing.T) {
	writeConfig(t, "library_type: [unclosed")
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for malformed YAML")
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandTilde("~/pubs/known.tsv"); got != filepath.Join(home, "pubs/known.tsv") {
		t.Errorf("ExpandTilde(~/...) = %q", got)
	}
	if got := ExpandTilde("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandTilde(abs) = %q", got)
	}
	if got := ExpandTilde(""); got != "" {
		t.Errorf("ExpandTilde(\"\") = %q", got)
	}
}
