// Package book models candidate book files on disk and decides which
// directory entries count as books.
package book

import (
	"path/filepath"
	"strings"
)

// SidecarSuffix is appended to a book's stem to name the reader-device
// directory holding its bookmarks and reading progress.
const SidecarSuffix = ".sdr"

// Entry is one candidate book found during a scan.
// Only the directory and file name are stored; everything else is derived.
type Entry struct {
	Dir      string `json:"dir"`
	FileName string `json:"file_name"`
}

// NewEntry creates an entry for fileName inside dir.
func NewEntry(dir, fileName string) Entry {
	return Entry{Dir: dir, FileName: fileName}
}

// FromPath splits a book path into an entry.
func FromPath(path string) Entry {
	return Entry{Dir: filepath.Dir(path), FileName: filepath.Base(path)}
}

// Extension returns the text after the last dot of the file name, without the dot.
// Names without an extension (including dot-files like ".profile") return "".
func (e Entry) Extension() string {
	return extension(e.FileName)
}

// FullPath is the book file's path.
func (e Entry) FullPath() string {
	return filepath.Join(e.Dir, e.FileName)
}

// BaseStem is the file name without its extension.
func (e Entry) BaseStem() string {
	ext := e.Extension()
	if ext == "" {
		return e.FileName
	}
	return strings.TrimSuffix(e.FileName, "."+ext)
}

// ProgressStoreName is the sidecar directory name, e.g. "Dune.sdr" for "Dune.epub".
func (e Entry) ProgressStoreName() string {
	return e.BaseStem() + SidecarSuffix
}

// ProgressStorePath is the sidecar directory path next to the book.
func (e Entry) ProgressStorePath() string {
	return filepath.Join(e.Dir, e.ProgressStoreName())
}

func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		// no dot, or a leading dot only
		return ""
	}
	return name[i+1:]
}
