package history

import "strings"

// Entry is a parsed log line.
type Entry struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// ParseLine splits a log line on its last separator.
// Titles that themselves contain " - " are ambiguous in this format;
// splitting on the last one keeps such titles intact as long as dates never
// contain the separator. Lines without a separator have an empty Date.
func ParseLine(line string) Entry {
	i := strings.LastIndex(line, Separator)
	if i < 0 {
		return Entry{Name: line}
	}
	return Entry{Name: line[:i], Date: line[i+len(Separator):]}
}

// Entries returns the log records in file order.
func (l *Log) Entries() ([]Entry, error) {
	lines, err := l.Lines()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, ParseLine(line))
	}
	return entries, nil
}

// Count returns the number of records in the log.
func (l *Log) Count() (int, error) {
	lines, err := l.Lines()
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}
