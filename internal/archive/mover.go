// Package archive relocates finished books and their sidecar directories into
// the archive directory. Originals are deleted only after a verified copy.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/bookarc/internal/book"
)

type entityKind int

const (
	kindFile entityKind = iota
	kindDir
)

// Mover copies artifacts into an archive directory and then deletes the originals.
type Mover struct {
	protected []string
	log       *slog.Logger
}

// NewMover creates a mover that refuses to delete or overwrite any of the
// protected paths (normally the read-history log).
func NewMover(log *slog.Logger, protected ...string) *Mover {
	m := &Mover{log: log}
	for _, p := range protected {
		if p != "" {
			m.protected = append(m.protected, p)
		}
	}
	return m
}

// Relocate copies the book into archiveDir and deletes the original once the
// copy is verified. A copy failure leaves the original untouched.
func (m *Mover) Relocate(e book.Entry, archiveDir string) Outcome {
	return m.relocate(e.FullPath(), archiveDir, e.FileName, false)
}

// RelocateWithProgressStore relocates the book and, if present, its sidecar
// directory. The two halves are attempted independently; Sidecar is nil when
// the book has no sidecar.
func (m *Mover) RelocateWithProgressStore(e book.Entry, archiveDir string) Result {
	res := Result{Book: m.Relocate(e, archiveDir)}

	sidecar := e.ProgressStorePath()
	if _, err := os.Lstat(sidecar); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res
		}
		res.Sidecar = &Outcome{Source: sidecar, Err: fmt.Errorf("%w: %v", ErrCopyFailed, err)}
		return res
	}

	out := m.relocate(sidecar, archiveDir, e.ProgressStoreName(), true)
	res.Sidecar = &out
	return res
}

// Discard deletes the book and its sidecar without archiving them.
func (m *Mover) Discard(e book.Entry) Result {
	res := Result{Book: m.discard(e.FullPath())}

	sidecar := e.ProgressStorePath()
	if _, err := os.Lstat(sidecar); errors.Is(err, fs.ErrNotExist) {
		return res
	}
	out := m.discard(sidecar)
	res.Sidecar = &out
	return res
}

// Remove deletes a file or a directory tree. Protected paths fail with
// ErrProtectedResource and anything that is neither a file nor a directory
// fails with ErrUnknownEntityType; neither case touches the filesystem.
func (m *Mover) Remove(path string) error {
	if err := m.guard(path); err != nil {
		return err
	}
	kind, err := classify(path)
	if err != nil {
		return err
	}
	return remove(path, kind)
}

func (m *Mover) discard(path string) Outcome {
	out := Outcome{Source: path}
	if err := m.Remove(path); err != nil {
		out.Err = err
		m.log.Warn("discard failed", "path", path, "error", err)
		return out
	}
	out.Removed = true
	m.log.Info("discarded", "path", path)
	return out
}

func (m *Mover) relocate(src, archiveDir, name string, wantDir bool) Outcome {
	dst := filepath.Join(archiveDir, name)
	out := Outcome{Source: src, Dest: dst}

	if err := ValidatePath(dst, archiveDir); err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrCopyFailed, err)
		return out
	}
	if err := m.guard(src); err != nil {
		out.Err = err
		return out
	}
	if err := m.guard(dst); err != nil {
		out.Err = err
		return out
	}

	kind, err := classify(src)
	if errors.Is(err, ErrUnknownEntityType) {
		out.Err = err
		return out
	}
	if err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrCopyFailed, err)
		return out
	}
	if wantDir && kind != kindDir {
		out.Err = fmt.Errorf("%w: sidecar %s is not a directory", ErrUnknownEntityType, src)
		return out
	}
	if samePath(src, dst) {
		out.Err = fmt.Errorf("%w: %w: %s", ErrCopyFailed, ErrAlreadyArchived, src)
		return out
	}

	var n int64
	if kind == kindDir {
		n, err = copyTreeFunc(src, dst)
	} else {
		n, err = copyFileFunc(src, dst)
	}
	if err != nil {
		out.Err = fmt.Errorf("%w: %s: %w", ErrCopyFailed, src, err)
		m.log.Warn("copy failed", "src", src, "dest", dst, "error", err)
		return out
	}
	out.Copied = true
	out.Bytes = n
	m.log.Debug("copied", "src", src, "dest", dst, "size_bytes", n)

	if err := remove(src, kind); err != nil {
		out.Warning = fmt.Errorf("%w: %s: %w", ErrOrphanCopy, src, err)
		m.log.Warn("original not removed", "src", src, "dest", dst, "error", err)
		return out
	}
	out.Removed = true
	m.log.Info("archived", "src", src, "dest", dst)
	return out
}

func (m *Mover) guard(path string) error {
	for _, p := range m.protected {
		if samePath(path, p) {
			return fmt.Errorf("%w: %s", ErrProtectedResource, path)
		}
	}
	return nil
}

// classify follows symlinks to regular files; any other symlink, and any
// special file, is an unknown entity.
func classify(path string) (entityKind, error) {
	linfo, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}

	mode := linfo.Mode()
	switch {
	case mode.IsRegular():
		return kindFile, nil
	case mode.IsDir():
		return kindDir, nil
	case mode&fs.ModeSymlink != 0:
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return kindFile, nil
		}
		return 0, fmt.Errorf("%w: %s (symlink)", ErrUnknownEntityType, path)
	default:
		return 0, fmt.Errorf("%w: %s (%s)", ErrUnknownEntityType, path, mode.Type())
	}
}

func remove(path string, kind entityKind) error {
	if kind == kindDir {
		return removeAllFunc(path)
	}
	return removeFunc(path)
}
