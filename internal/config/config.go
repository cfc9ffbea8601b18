// Package config handles global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in
// ~/.config/pubspork/config.yml. Every field has a matching command
// line flag; flags win when both are set.
type Config struct {
	// Library export to match against.
	LibraryType string `yaml:"library_type,omitempty"`
	LibraryPath string `yaml:"library_path,omitempty"`
	// Base URL of the online library, used in curation page links.
	LibraryURL string `yaml:"library_url,omitempty"`

	// Curation history TSV.
	LedgerPath string `yaml:"ledger_path,omitempty"`
	// SQLite mirror of the ledger.
	LedgerDBPath string `yaml:"ledger_db_path,omitempty"`

	// Paywall proxy, e.g. ".proxy1.library.jhu.edu".
	Proxy string `yaml:"proxy,omitempty"`
	// "dot" or "dash"; how the proxy rewrites host names.
	ProxySeparator string `yaml:"proxy_separator,omitempty"`
	// Catalog search URL the pub title gets appended to.
	CustomSearchURL string `yaml:"custom_search_url,omitempty"`

	// Minimum edit similarity for a probable title match. Zero means
	// use the built-in default.
	MatchThreshold float64 `yaml:"match_threshold,omitempty"`
}

const (
	// Dir is the directory name under XDG_CONFIG_HOME.
	Dir = "pubspork"
	// File is the config file name.
	File = "config.yml"
)

// cache holds the loaded config for the process lifetime.
var cache *Config

// Path returns the path to the config file. Respects XDG_CONFIG_HOME,
// defaults to ~/.config/pubspork/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, Dir, File)
}

// Load loads the configuration file. Returns an empty config (not an
// error) if the file doesn't exist.
func Load() (*Config, error) {
	if cache != nil {
		return cache, nil
	}

	path := Path()
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.LibraryPath = ExpandTilde(cfg.LibraryPath)
	cfg.LedgerPath = ExpandTilde(cfg.LedgerPath)
	cfg.LedgerDBPath = ExpandTilde(cfg.LedgerDBPath)

	cache = &cfg
	return &cfg, nil
}

// ResetCache clears the cached config. Useful for testing.
func ResetCache() {
	cache = nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Paths without one come back unchanged.
func ExpandTilde(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
