// Package scan discovers candidate books one directory level at a time.
package scan

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/bookarc/internal/book"
)

// batchSize is how many directory entries are read per call.
const batchSize = 64

// Options configures a Scanner.
type Options struct {
	// ExtraNonBook adds extensions to the non-book deny-set.
	ExtraNonBook []string
	// Skip lists file paths that are never reported, such as the read-history log.
	Skip []string
	// ExcludeDirs lists directory names or absolute paths that Dirs never yields.
	ExcludeDirs []string
}

// Scanner lists books and subdirectories of a single directory.
// It keeps no state between calls.
type Scanner struct {
	id      *book.Identifier
	skip    []string
	exclude []string
	log     *slog.Logger
}

// New creates a scanner.
func New(opts Options, log *slog.Logger) *Scanner {
	s := &Scanner{
		id:      book.NewIdentifier(opts.ExtraNonBook...),
		exclude: opts.ExcludeDirs,
		log:     log,
	}
	for _, p := range opts.Skip {
		if p != "" {
			s.skip = append(s.skip, absClean(p))
		}
	}
	return s
}

// Identifier returns the identifier used to classify names.
func (s *Scanner) Identifier() *book.Identifier {
	return s.id
}

// Scan lazily yields the books directly inside dir in directory-listing order.
// Subdirectories are never entered. An error reading dir is yielded once and
// ends the sequence.
func (s *Scanner) Scan(dir string) iter.Seq2[book.Entry, error] {
	return func(yield func(book.Entry, error) bool) {
		for d, err := range readDir(dir) {
			if err != nil {
				yield(book.Entry{}, err)
				return
			}
			if isDir(dir, d) {
				continue
			}
			name := d.Name()
			if !s.id.IsBook(name) {
				continue
			}
			if s.skipped(filepath.Join(dir, name)) {
				s.log.Debug("skipping protected file", "path", filepath.Join(dir, name))
				continue
			}
			if !yield(book.NewEntry(dir, name), nil) {
				return
			}
		}
	}
}

// Dirs lazily yields the subdirectories of dir that may hold books.
// Hidden directories, sidecar directories, symlinks and excluded directories
// are left out.
func (s *Scanner) Dirs(dir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for d, err := range readDir(dir) {
			if err != nil {
				yield("", err)
				return
			}
			if !d.IsDir() {
				continue
			}
			name := d.Name()
			path := filepath.Join(dir, name)
			if strings.HasPrefix(name, ".") || strings.HasSuffix(name, book.SidecarSuffix) {
				continue
			}
			if s.excluded(name, path) {
				s.log.Debug("skipping excluded directory", "path", path)
				continue
			}
			if !yield(path, nil) {
				return
			}
		}
	}
}

// Books collects Scan into a slice, stopping at the first error.
func (s *Scanner) Books(dir string) ([]book.Entry, error) {
	var books []book.Entry
	for e, err := range s.Scan(dir) {
		if err != nil {
			return books, err
		}
		books = append(books, e)
	}
	return books, nil
}

func (s *Scanner) skipped(path string) bool {
	p := absClean(path)
	for _, skip := range s.skip {
		if p == skip {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(name, path string) bool {
	p := absClean(path)
	for _, ex := range s.exclude {
		if filepath.IsAbs(ex) || strings.ContainsRune(ex, filepath.Separator) {
			if isUnder(p, absClean(ex)) {
				return true
			}
			continue
		}
		if strings.EqualFold(name, ex) {
			return true
		}
	}
	return false
}

// readDir yields the entries of dir in batches without sorting them.
func readDir(dir string) iter.Seq2[fs.DirEntry, error] {
	return func(yield func(fs.DirEntry, error) bool) {
		f, err := os.Open(dir)
		if err != nil {
			yield(nil, fmt.Errorf("open directory %s: %w", dir, err))
			return
		}
		defer func() { _ = f.Close() }()

		for {
			entries, err := f.ReadDir(batchSize)
			for _, d := range entries {
				if !yield(d, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("read directory %s: %w", dir, err))
				return
			}
		}
	}
}

// isDir reports whether d is a directory or a symlink to one.
func isDir(dir string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, d.Name()))
	return err == nil && info.IsDir()
}

func isUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
