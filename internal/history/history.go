// Package history maintains the append-only read-history log: one
// "<name> - <date>" line per finished book.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrLogUnavailable indicates the log file is missing or cannot be opened.
// The log is never created here; callers make sure it exists.
var ErrLogUnavailable = errors.New("read-history log unavailable")

const (
	// MaxDisplayName is the longest book name written to the log, in characters.
	MaxDisplayName = 80
	// TruncationMarker is appended to names cut at MaxDisplayName.
	TruncationMarker = "..."
	// Separator joins the display name and the date.
	Separator = " - "
	// DateLayout is the date format of records written by Record.
	DateLayout = "2006-01-02"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// DisplayName shortens name to MaxDisplayName characters plus TruncationMarker.
// Line breaks become spaces so each record stays on one line.
func DisplayName(name string) string {
	name = lineBreaks.Replace(name)
	if utf8.RuneCountInString(name) <= MaxDisplayName {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxDisplayName]) + TruncationMarker
}

// Log is a read-history file.
type Log struct {
	path string
	now  func() time.Time
}

// New returns a log backed by the file at path.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Check verifies the log file exists and is a regular file that can be appended to.
func (l *Log) Check() error {
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrLogUnavailable, l.path)
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	return f.Close()
}

// NeedsLeadingNewline reports whether the last line of the log lacks a
// newline terminator, so the next record must start with one.
// An empty log is clean.
func (l *Log) NeedsLeadingNewline() (bool, error) {
	f, err := l.open()
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	var lines, terminated int
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			lines++
			if strings.HasSuffix(line, "\n") {
				terminated++
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false, fmt.Errorf("%w: read: %v", ErrLogUnavailable, err)
		}
	}

	return lines > terminated, nil
}

// Append writes "<name> - <date>" to the log without a trailing newline.
// A newline is written first if the current last line is unterminated.
// The name is passed through DisplayName first.
func (l *Log) Append(name, date string) error {
	leading, err := l.NeedsLeadingNewline()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}

	record := DisplayName(name) + Separator + date
	if leading {
		record = "\n" + record
	}

	if _, err := f.WriteString(record); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write: %v", ErrLogUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrLogUnavailable, err)
	}
	return nil
}

// Record appends name with today's date.
func (l *Log) Record(name string) error {
	return l.Append(name, l.now().Format(DateLayout))
}

// FindDuplicates returns every line that occurs more than once with its count.
// Nothing is removed; the result is for reporting.
func (l *Log) FindDuplicates() (map[string]int, error) {
	lines, err := l.Lines()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(lines))
	for _, line := range lines {
		counts[line]++
	}

	dups := make(map[string]int)
	for line, n := range counts {
		if n >= 2 {
			dups[line] = n
		}
	}
	return dups, nil
}

// Find reports whether any line contains substr. An empty substr matches nothing.
func (l *Log) Find(substr string) (bool, error) {
	if substr == "" {
		return false, nil
	}

	f, err := l.open()
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.Contains(sc.Text(), substr) {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("%w: read: %v", ErrLogUnavailable, err)
	}
	return false, nil
}

// Lines returns the non-blank lines of the log without terminators.
func (l *Log) Lines() ([]string, error) {
	f, err := l.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrLogUnavailable, err)
	}
	return lines, nil
}

func (l *Log) open() (*os.File, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}
	return f, nil
}
