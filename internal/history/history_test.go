package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T, content string) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "read.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return New(path)
}

func readAll(t *testing.T, l *Log) string {
	t.Helper()
	b, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	return string(b)
}

func TestNeedsLeadingNewline(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty log", "", false},
		{"single terminated line", "Dune - 2024-01-01\n", false},
		{"single unterminated line", "Dune - 2024-01-01", true},
		{"several lines last unterminated", "a - 1\nb - 2\nc - 3", true},
		{"several lines all terminated", "a - 1\nb - 2\n", false},
		{"only newline", "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLog(t, tt.content)
			got, err := l.NeedsLeadingNewline()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppend_EmptyLog(t *testing.T) {
	l := newTestLog(t, "")

	require.NoError(t, l.Append("Dune.epub", "2024-05-02"))
	assert.Equal(t, "Dune.epub - 2024-05-02", readAll(t, l))
}

func TestAppend_SuppliesSeparatingNewline(t *testing.T) {
	l := newTestLog(t, "")

	require.NoError(t, l.Append("Dune.epub", "2024-05-02"))
	require.NoError(t, l.Append("Emma.fb2", "2024-05-03"))
	require.NoError(t, l.Append("Ulysses.pdf", "2024-05-04"))

	assert.Equal(t, "Dune.epub - 2024-05-02\nEmma.fb2 - 2024-05-03\nUlysses.pdf - 2024-05-04", readAll(t, l))
}

func TestAppend_CleanLogGetsNoExtraNewline(t *testing.T) {
	l := newTestLog(t, "Dune.epub - 2024-05-02\n")

	require.NoError(t, l.Append("Emma.fb2", "2024-05-03"))
	assert.Equal(t, "Dune.epub - 2024-05-02\nEmma.fb2 - 2024-05-03", readAll(t, l))
}

func TestAppend_TruncatesLongNames(t *testing.T) {
	l := newTestLog(t, "")
	name := strings.Repeat("x", 90)

	require.NoError(t, l.Append(name, "2024-05-02"))

	entry := ParseLine(readAll(t, l))
	assert.Len(t, entry.Name, 83)
	assert.Equal(t, strings.Repeat("x", 80)+"...", entry.Name)
	assert.Equal(t, "2024-05-02", entry.Date)
}

func TestAppend_LineBreaksInName(t *testing.T) {
	l := newTestLog(t, "Dune.epub - 2024-05-02\n")

	require.NoError(t, l.Append("Emma\nVol 2\r\n.fb2", "2024-05-03"))

	assert.Equal(t, "Dune.epub - 2024-05-02\nEmma Vol 2 .fb2 - 2024-05-03", readAll(t, l))
	needs, err := l.NeedsLeadingNewline()
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestAppend_MissingLog(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "missing.txt"))

	err := l.Append("Dune.epub", "2024-05-02")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLogUnavailable)

	_, statErr := os.Stat(l.Path())
	assert.True(t, os.IsNotExist(statErr), "log must not be created")
}

func TestRecord_UsesToday(t *testing.T) {
	l := newTestLog(t, "")
	l.now = func() time.Time { return time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC) }

	require.NoError(t, l.Record("Dune.epub"))
	assert.Equal(t, "Dune.epub - 2024-03-09", readAll(t, l))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "short", DisplayName("short"))
	assert.Equal(t, strings.Repeat("a", 80), DisplayName(strings.Repeat("a", 80)))
	assert.Equal(t, strings.Repeat("a", 80)+"...", DisplayName(strings.Repeat("a", 81)))

	cyrillic := strings.Repeat("ж", 85)
	got := DisplayName(cyrillic)
	assert.Equal(t, strings.Repeat("ж", 80)+"...", got, "truncation counts characters, not bytes")

	assert.Equal(t, "Dune Part 1.epub", DisplayName("Dune\nPart\r1.epub"))
	assert.Equal(t, "a b", DisplayName("a\r\nb"))
}

func TestFindDuplicates(t *testing.T) {
	l := newTestLog(t, "a - 1\nb - 2\na - 1\nc - 3\na - 1\nb - 2")

	dups, err := l.FindDuplicates()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a - 1": 3, "b - 2": 2}, dups)

	assert.Equal(t, "a - 1\nb - 2\na - 1\nc - 3\na - 1\nb - 2", readAll(t, l), "duplicates are reported, never removed")
}

func TestFindDuplicates_None(t *testing.T) {
	l := newTestLog(t, "a - 1\nb - 2\n")

	dups, err := l.FindDuplicates()
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestFind(t *testing.T) {
	l := newTestLog(t, "Dune.epub - 2024-05-02\nEmma.fb2 - 2024-05-03")

	found, err := l.Find("Emma")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = l.Find("Ulysses")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = l.Find("")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFind_MissingLog(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "nope.txt"))

	_, err := l.Find("x")
	assert.ErrorIs(t, err, ErrLogUnavailable)
}

func TestCheck(t *testing.T) {
	l := newTestLog(t, "")
	assert.NoError(t, l.Check())

	missing := New(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, missing.Check(), ErrLogUnavailable)

	dir := New(t.TempDir())
	assert.ErrorIs(t, dir.Check(), ErrLogUnavailable)
}
