package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vmunix/bookarc/internal/archive"
	"github.com/vmunix/bookarc/internal/config"
	"github.com/vmunix/bookarc/internal/history"
	"github.com/vmunix/bookarc/internal/journal"
	"github.com/vmunix/bookarc/internal/progress"
	"github.com/vmunix/bookarc/internal/scan"
	"github.com/vmunix/bookarc/internal/workflow"
)

// app holds the components every command is built from.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	scanner *scan.Scanner
	mover   *archive.Mover
	history *history.Log
	journal *journal.Journal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Discover()
}

// openApp loads the configuration and wires the core components.
// The journal is opened only when withJournal is set and it is enabled.
func openApp(withJournal bool) (*app, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger := newLogger(os.Stderr, level)

	historyPath := cfg.Library.HistoryPath()
	a := &app{
		cfg: cfg,
		log: logger,
		scanner: scan.New(scan.Options{
			ExtraNonBook: cfg.Books.ExtraNonBookExtensions,
			Skip:         []string{historyPath},
			ExcludeDirs:  cfg.Library.ExcludeDirs,
		}, logger.With("component", "scan")),
		mover:   archive.NewMover(logger.With("component", "archive"), historyPath),
		history: history.New(historyPath),
	}

	if withJournal && cfg.Journal.IsEnabled() {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		a.journal = j
	}
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("closing journal", "error", err)
		}
	}
}

func (a *app) policy() progress.Policy {
	return progress.Policy{
		Threshold:      a.cfg.Policy.Threshold(),
		CompleteStatus: a.cfg.Policy.CompleteStatus,
		FoldCase:       a.cfg.Policy.StatusFoldCase,
	}
}

func (a *app) settings() (workflow.Settings, error) {
	mode, err := workflow.ParseMode(a.cfg.Library.Mode)
	if err != nil {
		return workflow.Settings{}, err
	}
	return workflow.Settings{
		StartDir:    a.cfg.Library.StartDir,
		ArchiveDir:  a.cfg.Library.ArchiveDir,
		HistoryFile: a.cfg.Library.HistoryPath(),
		Mode:        mode,
		Recursive:   a.cfg.Library.Recursive,
	}, nil
}

// archiver builds a workflow.Archiver over the app's components.
func (a *app) archiver(settings workflow.Settings, decider workflow.Decider) (*workflow.Archiver, error) {
	deps := workflow.Deps{
		Scanner: a.scanner,
		Reader:  progress.Reader{},
		Policy:  a.policy(),
		Mover:   a.mover,
		History: a.history,
		Decider: decider,
	}
	// A nil *journal.Journal must not become a non-nil interface.
	if a.journal != nil {
		deps.Journal = a.journal
	}
	return workflow.New(settings, deps, a.log)
}
