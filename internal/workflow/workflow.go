// Package workflow drives an archive run: scan a library, read each book's
// progress, decide what to do with it, relocate it and record the result.
package workflow

//go:generate mockgen -source=workflow.go -destination=mocks/workflow.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/vmunix/bookarc/internal/archive"
	"github.com/vmunix/bookarc/internal/book"
	"github.com/vmunix/bookarc/internal/journal"
	"github.com/vmunix/bookarc/internal/progress"
)

var (
	// ErrInvalidMode indicates an unrecognised mode name.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrNoDecider indicates manual mode was requested without a Decider.
	ErrNoDecider = errors.New("manual mode requires a decider")

	// ErrStartIsArchive indicates the start directory is the archive directory itself.
	ErrStartIsArchive = errors.New("start directory is the archive directory")

	// ErrQuit is returned by a Decider to stop the run without error.
	ErrQuit = errors.New("quit requested")
)

// Mode selects who decides what happens to each book.
type Mode int

const (
	// ModeAuto archives books the policy considers finished and leaves the rest.
	ModeAuto Mode = iota
	// ModeManual asks a Decider about every book.
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeManual:
		return "manual"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "auto" or "manual", ignoring case. An empty string is auto.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "manual":
		return ModeManual, nil
	default:
		return 0, fmt.Errorf("%w: %q (want auto or manual)", ErrInvalidMode, s)
	}
}

// Decision is what to do with one book.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionArchive
	DecisionDiscard
)

func (d Decision) String() string {
	switch d {
	case DecisionArchive:
		return "archive"
	case DecisionDiscard:
		return "discard"
	default:
		return "skip"
	}
}

// Settings replaces the scattered current/central directory state with one value.
type Settings struct {
	StartDir    string
	ArchiveDir  string
	HistoryFile string
	Mode        Mode
	Recursive   bool
	DryRun      bool
}

// Candidate is what a Decider sees about a book.
type Candidate struct {
	Entry    book.Entry
	Progress progress.Data
	Finished bool
	// Err is set when the progress store could not be read.
	Err error
}

// Scanner lists books and subdirectories one level at a time.
type Scanner interface {
	Scan(dir string) iter.Seq2[book.Entry, error]
	Dirs(dir string) iter.Seq2[string, error]
}

// ProgressReader reads a book's sidecar progress data.
type ProgressReader interface {
	Read(e book.Entry) (progress.Data, error)
}

// Relocator moves or deletes a book together with its sidecar.
type Relocator interface {
	RelocateWithProgressStore(e book.Entry, archiveDir string) archive.Result
	Discard(e book.Entry) archive.Result
}

// Recorder is the read-history log.
type Recorder interface {
	Check() error
	Record(name string) error
}

// Journal stores one entry per processed book.
type Journal interface {
	Append(e journal.Entry) (int64, error)
}

// Decider chooses what to do with a book in manual mode.
type Decider interface {
	Decide(ctx context.Context, c Candidate) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, c Candidate) (Decision, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, c Candidate) (Decision, error) {
	return f(ctx, c)
}
