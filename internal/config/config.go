// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied after decoding.
const (
	DefaultStartDir          = "."
	DefaultHistoryFile       = "read.txt"
	DefaultMode              = "auto"
	DefaultFinishedThreshold = 0.90
	DefaultCompleteStatus    = "complete"
	DefaultLogLevel          = "info"
	DefaultBackupDir         = "~/Downloads/bookarc-backup"
	DefaultJournalRetention  = 90 * 24 * time.Hour
)

// Config is the root configuration structure.
type Config struct {
	Library LibraryConfig `toml:"library"`
	Policy  PolicyConfig  `toml:"policy"`
	Books   BooksConfig   `toml:"books"`
	Backup  BackupConfig  `toml:"backup"`
	Journal JournalConfig `toml:"journal"`
	Log     LogConfig     `toml:"log"`
}

type LibraryConfig struct {
	StartDir   string `toml:"start_dir"`
	ArchiveDir string `toml:"archive_dir"`
	// HistoryFile is resolved against ArchiveDir unless absolute.
	HistoryFile string   `toml:"history_file"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	Mode        string   `toml:"mode"`
	Recursive   bool     `toml:"recursive"`
}

type PolicyConfig struct {
	// FinishedThreshold is nil when unset; 0 is a valid threshold.
	FinishedThreshold *float64 `toml:"finished_threshold"`
	CompleteStatus    string   `toml:"complete_status"`
	StatusFoldCase    bool     `toml:"status_fold_case"`
}

// Threshold returns the configured fraction, or the default when unset.
func (p PolicyConfig) Threshold() float64 {
	if p.FinishedThreshold == nil {
		return DefaultFinishedThreshold
	}
	return *p.FinishedThreshold
}

type BooksConfig struct {
	ExtraNonBookExtensions []string `toml:"extra_non_book_extensions"`
}

type BackupConfig struct {
	Dir string `toml:"dir"`
}

type JournalConfig struct {
	Enabled   *bool         `toml:"enabled"`
	Path      string        `toml:"path"`
	Retention time.Duration `toml:"retention"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// IsEnabled reports whether the journal is on; it defaults to true.
func (j JournalConfig) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// HistoryPath returns the absolute or archive-relative read-history log path.
func (l LibraryConfig) HistoryPath() string {
	if l.HistoryFile == "" || filepath.IsAbs(l.HistoryFile) {
		return l.HistoryFile
	}
	return filepath.Join(l.ArchiveDir, l.HistoryFile)
}

// Load reads, parses and validates the configuration file.
// Unresolved environment variables and validation problems are reported
// together in a *ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping Validate.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}
	return cfg, nil
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, missing, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Library.StartDir == "" {
		c.Library.StartDir = DefaultStartDir
	}
	if c.Library.HistoryFile == "" {
		c.Library.HistoryFile = DefaultHistoryFile
	}
	if c.Library.Mode == "" {
		c.Library.Mode = DefaultMode
	}
	if c.Policy.FinishedThreshold == nil {
		t := DefaultFinishedThreshold
		c.Policy.FinishedThreshold = &t
	}
	if c.Policy.CompleteStatus == "" {
		c.Policy.CompleteStatus = DefaultCompleteStatus
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = DefaultBackupDir
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath()
	}
	if c.Journal.Retention == 0 {
		c.Journal.Retention = DefaultJournalRetention
	}

	c.Library.StartDir = ExpandHome(c.Library.StartDir)
	c.Library.ArchiveDir = ExpandHome(c.Library.ArchiveDir)
	c.Library.HistoryFile = ExpandHome(c.Library.HistoryFile)
	c.Backup.Dir = ExpandHome(c.Backup.Dir)
	c.Journal.Path = ExpandHome(c.Journal.Path)
	for i, d := range c.Library.ExcludeDirs {
		c.Library.ExcludeDirs[i] = ExpandHome(d)
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references and returns the names of
// variables that could not be resolved. Unresolved references are left as-is.
// Empty values count as unset for the :- and :? forms. Comment text after an
// unquoted '#' is never substituted.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		code, comment := splitComment(line)
		lines[i] = envVarPattern.ReplaceAllStringFunc(code, func(match string) string {
			m := envVarPattern.FindStringSubmatch(match)
			name, op, arg := m[1], m[2], m[3]
			value, ok := os.LookupEnv(name)

			switch op {
			case ":-":
				if !ok || value == "" {
					return arg
				}
				return value
			case ":?":
				if !ok || value == "" {
					missing = append(missing, name+": "+arg)
					return match
				}
				return value
			default:
				if !ok {
					missing = append(missing, name)
					return match
				}
				return value
			}
		}) + comment
	}
	return strings.Join(lines, "\n"), missing
}

// splitComment splits a TOML line at the first '#' outside a string.
func splitComment(line string) (code, comment string) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '"' && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i], line[i:]
		}
	}
	return line, ""
}
