package config

import (
	"fmt"
	"os"
	"path/filepath"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validModes = map[string]bool{
	"auto": true, "manual": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Library.ArchiveDir == "" {
		errs = append(errs, "library.archive_dir: required")
	}
	if !validModes[c.Library.Mode] {
		errs = append(errs, fmt.Sprintf("library.mode: must be auto or manual; got %q", c.Library.Mode))
	}
	if c.Library.ArchiveDir != "" && c.Library.StartDir != "" &&
		filepath.Clean(c.Library.ArchiveDir) == filepath.Clean(c.Library.StartDir) {
		errs = append(errs, "library.start_dir: must differ from library.archive_dir")
	}

	if t := c.Policy.Threshold(); t < 0 || t > 1 {
		errs = append(errs, fmt.Sprintf("policy.finished_threshold: must be between 0 and 1, got %v", t))
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if c.Journal.Retention < 0 {
		errs = append(errs, "journal.retention: must not be negative")
	}

	// Directories must already exist; nothing here creates them.
	if c.Library.ArchiveDir != "" {
		if info, err := os.Stat(c.Library.ArchiveDir); err != nil {
			errs = append(errs, fmt.Sprintf("library.archive_dir: directory %q does not exist", c.Library.ArchiveDir))
		} else if !info.IsDir() {
			errs = append(errs, fmt.Sprintf("library.archive_dir: %q is not a directory", c.Library.ArchiveDir))
		}
	}
	if c.Library.StartDir != "" {
		if _, err := os.Stat(c.Library.StartDir); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("library.start_dir: directory %q does not exist", c.Library.StartDir))
		}
	}

	return errs
}
