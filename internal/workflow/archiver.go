package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vmunix/bookarc/internal/book"
	"github.com/vmunix/bookarc/internal/journal"
	"github.com/vmunix/bookarc/internal/progress"
)

// Deps are the collaborators of an Archiver. Journal is optional; Decider is
// required in manual mode.
type Deps struct {
	Scanner Scanner
	Reader  ProgressReader
	Policy  progress.Policy
	Mover   Relocator
	History Recorder
	Journal Journal
	Decider Decider
}

// Archiver runs the scan, decide and relocate loop.
type Archiver struct {
	settings Settings
	deps     Deps
	log      *slog.Logger
}

// New creates an archiver.
func New(settings Settings, deps Deps, log *slog.Logger) (*Archiver, error) {
	if settings.Mode == ModeManual && deps.Decider == nil {
		return nil, ErrNoDecider
	}
	if settings.StartDir != "" && sameDir(settings.StartDir, settings.ArchiveDir) {
		return nil, fmt.Errorf("%w: %s", ErrStartIsArchive, settings.StartDir)
	}
	return &Archiver{settings: settings, deps: deps, log: log.With("component", "archiver")}, nil
}

// Settings returns the run settings.
func (a *Archiver) Settings() Settings {
	return a.settings
}

// Run processes every book under the start directory. The history log is
// checked before anything moves. Cancellation is honoured between books.
func (a *Archiver) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	if !a.settings.DryRun {
		if err := a.deps.History.Check(); err != nil {
			return sum, err
		}
	}

	a.log.Info("run started",
		"start_dir", a.settings.StartDir,
		"archive_dir", a.settings.ArchiveDir,
		"mode", a.settings.Mode.String(),
		"recursive", a.settings.Recursive,
		"dry_run", a.settings.DryRun)

	err := a.walk(ctx, a.settings.StartDir, true, &sum)
	if errors.Is(err, ErrQuit) {
		err = nil
	}

	a.log.Info("run finished",
		"scanned", sum.Scanned,
		"archived", sum.Archived,
		"discarded", sum.Discarded,
		"skipped", sum.Skipped,
		"failed", sum.Failed)
	return sum, err
}

func (a *Archiver) walk(ctx context.Context, dir string, top bool, sum *Summary) error {
	for e, err := range a.deps.Scanner.Scan(dir) {
		if err != nil {
			if top {
				return err
			}
			a.log.Warn("scan failed", "dir", dir, "error", err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rep, err := a.Process(ctx, e)
		if err != nil {
			return err
		}
		sum.add(rep)
	}

	if !a.settings.Recursive {
		return nil
	}

	for sub, err := range a.deps.Scanner.Dirs(dir) {
		if err != nil {
			a.log.Warn("list directories failed", "dir", dir, "error", err)
			return nil
		}
		if sameDir(sub, a.settings.ArchiveDir) {
			continue
		}
		if err := a.walk(ctx, sub, false, sum); err != nil {
			return err
		}
	}
	return nil
}

// Process handles one book according to the mode. The returned error is
// reserved for conditions that end the run (cancellation, decider failure);
// per-book failures are carried in the report.
func (a *Archiver) Process(ctx context.Context, e book.Entry) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{Entry: e}, err
	}

	data, readErr := a.deps.Reader.Read(e)
	rep := Report{
		Entry:    e,
		Progress: data,
		Finished: readErr == nil && a.deps.Policy.IsFinished(data),
	}

	switch a.settings.Mode {
	case ModeManual:
		d, err := a.deps.Decider.Decide(ctx, Candidate{Entry: e, Progress: data, Finished: rep.Finished, Err: readErr})
		if err != nil {
			return rep, err
		}
		rep.Decision = d
		if d == DecisionSkip {
			rep.Err = readErr
		}
	default:
		if readErr != nil {
			rep.Err = readErr
			a.log.Warn("progress unreadable", "book", e.FileName, "error", readErr)
		} else if rep.Finished {
			rep.Decision = DecisionArchive
		}
	}

	a.execute(&rep)
	a.journal(rep)
	return rep, nil
}

func (a *Archiver) execute(rep *Report) {
	e := rep.Entry
	if rep.Decision == DecisionSkip {
		a.log.Debug("book skipped", "book", e.FileName, "finished", rep.Finished)
		return
	}
	if a.settings.DryRun {
		rep.DryRun = true
		a.log.Info("dry run", "book", e.FileName, "decision", rep.Decision.String())
		return
	}

	switch rep.Decision {
	case DecisionArchive:
		res := a.deps.Mover.RelocateWithProgressStore(e, a.settings.ArchiveDir)
		rep.Result = &res
		if !res.Book.OK() {
			a.log.Warn("archive failed", "book", e.FileName, "error", res.Book.Err)
			return
		}
		if err := a.deps.History.Record(e.FileName); err != nil {
			rep.Err = err
			a.log.Error("history not updated", "book", e.FileName, "error", err)
			return
		}
		rep.Recorded = true
		a.log.Info("book archived", "book", e.FileName, "dest", res.Book.Dest)
	case DecisionDiscard:
		res := a.deps.Mover.Discard(e)
		rep.Result = &res
		if !res.Book.OK() {
			a.log.Warn("discard failed", "book", e.FileName, "error", res.Book.Err)
			return
		}
		a.log.Info("book discarded", "book", e.FileName)
	}
}

func (a *Archiver) journal(rep Report) {
	if a.deps.Journal == nil || rep.DryRun {
		return
	}

	entry := journal.Entry{
		Action: rep.Action(),
		Book:   rep.Entry.FileName,
		Source: rep.Entry.FullPath(),
	}
	if rep.Result != nil {
		entry.Dest = rep.Result.Book.Dest
	}
	if err := errors.Join(rep.Errors(), rep.Warnings()); err != nil {
		entry.Detail = err.Error()
	}

	if _, err := a.deps.Journal.Append(entry); err != nil {
		a.log.Warn("journal append failed", "book", rep.Entry.FileName, "error", err)
	}
}

func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return absClean(a) == absClean(b)
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
