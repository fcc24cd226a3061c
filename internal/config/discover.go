package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./bookarc.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "bookarc", "config.toml")
}

// DefaultJournalPath returns the XDG-compliant default journal database path.
func DefaultJournalPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./bookarc-journal.db"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "bookarc", "journal.db")
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. BOOKARC_CONFIG environment variable
//  2. ./bookarc.toml (current directory)
//  3. $XDG_CONFIG_HOME/bookarc/config.toml
//  4. /etc/bookarc/config.toml
func Discover() (string, error) {
	if envPath := os.Getenv("BOOKARC_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("BOOKARC_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./bookarc.toml",
		DefaultPath(),
		"/etc/bookarc/config.toml",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
