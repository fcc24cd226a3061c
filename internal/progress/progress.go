// Package progress reads reader-device sidecar directories and decides
// whether a book has been finished.
package progress

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vmunix/bookarc/internal/book"
)

// ErrCorruptSidecar indicates a sidecar directory exists but does not hold
// exactly one readable metadata file.
var ErrCorruptSidecar = errors.New("corrupt sidecar")

// metadataMarker identifies the metadata file inside a sidecar directory.
const metadataMarker = "metadata"

// The sidecar is Lua; both `percent_finished = 0.5` and `["percent_finished"] = 0.5` occur.
var (
	percentPattern = regexp.MustCompile(`percent_finished["\]]*\s*=\s*([0-9]*\.?[0-9]+)`)
	statusPattern  = regexp.MustCompile(`status["\]]*\s*=\s*["']([^"']+)["']`)
)

// Data is the progress information parsed from a sidecar.
// HasData is true only when the sidecar existed and its metadata file was read.
type Data struct {
	HasData         bool     `json:"has_data"`
	PercentFinished *float64 `json:"percent_finished,omitempty"`
	Status          *string  `json:"status,omitempty"`
}

// Read parses the sidecar of e. A missing sidecar is not an error: the book
// was simply never opened on the device.
func Read(e book.Entry) (Data, error) {
	path, err := MetadataPath(e)
	if err != nil || path == "" {
		return Data{}, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("%w: read %s: %v", ErrCorruptSidecar, path, err)
	}

	return Parse(string(content)), nil
}

// Parse extracts the progress fields from metadata text.
// Missing or malformed fields are left nil.
func Parse(content string) Data {
	d := Data{HasData: true}

	if m := percentPattern.FindStringSubmatch(content); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			d.PercentFinished = &v
		}
	}
	if m := statusPattern.FindStringSubmatch(content); m != nil {
		s := m[1]
		d.Status = &s
	}

	return d
}

// MetadataPath locates the single metadata file of e's sidecar.
// It returns "" with no error when the sidecar does not exist.
func MetadataPath(e book.Entry) (string, error) {
	dir := e.ProgressStorePath()

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: stat %s: %v", ErrCorruptSidecar, dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrCorruptSidecar, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", ErrCorruptSidecar, dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), metadataMarker) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: %s has %d metadata files, want 1", ErrCorruptSidecar, dir, len(matches))
	}

	return filepath.Join(dir, matches[0]), nil
}

// ReadLines returns the metadata file lines of e's sidecar, skipping the
// two header lines the device writes (a comment and the `return {` opener).
// It returns nil when the book has no sidecar.
func ReadLines(e book.Entry) ([]string, error) {
	path, err := MetadataPath(e)
	if err != nil || path == "" {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCorruptSidecar, path, err)
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) <= 2 {
		return []string{}, nil
	}
	return lines[2:], nil
}

// Reader adapts the package functions to the workflow's reader dependency.
type Reader struct{}

// Read parses e's sidecar.
func (Reader) Read(e book.Entry) (Data, error) {
	return Read(e)
}
