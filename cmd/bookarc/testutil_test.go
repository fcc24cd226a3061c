package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testLibrary is a temporary reading directory, archive and config file.
type testLibrary struct {
	t       *testing.T
	root    string
	start   string
	archive string
	log     string
	config  string
	journal bool
	books   map[string]string
}

// newTestLibrary creates a library builder.
// Call .Build() to write the files and config.
func newTestLibrary(t *testing.T) *testLibrary {
	t.Helper()
	root := t.TempDir()
	return &testLibrary{
		t:       t,
		root:    root,
		start:   filepath.Join(root, "books"),
		archive: filepath.Join(root, "archive"),
		log:     filepath.Join(root, "archive", "read.txt"),
		config:  filepath.Join(root, "bookarc.toml"),
		books:   map[string]string{},
	}
}

// Book adds a book with the given sidecar metadata. An empty metadata string
// means the book has no sidecar.
func (l *testLibrary) Book(name, metadata string) *testLibrary {
	l.books[name] = metadata
	return l
}

// Finished adds a book whose sidecar reports it fully read.
func (l *testLibrary) Finished(name string) *testLibrary {
	return l.Book(name, `return { ["percent_finished"] = 1.0 }`)
}

// Reading adds a book whose sidecar reports it partly read.
func (l *testLibrary) Reading(name string, pct float64) *testLibrary {
	return l.Book(name, fmt.Sprintf(`return { ["percent_finished"] = %v }`, pct))
}

// WithJournal enables the sqlite journal under the library root.
func (l *testLibrary) WithJournal() *testLibrary {
	l.journal = true
	return l
}

// History seeds the read-history log.
func (l *testLibrary) History(lines ...string) *testLibrary {
	l.write(l.log, strings.Join(lines, "\n"))
	return l
}

func (l *testLibrary) Build() *testLibrary {
	l.t.Helper()
	require.NoError(l.t, os.MkdirAll(l.start, 0755))
	require.NoError(l.t, os.MkdirAll(l.archive, 0755))
	if _, err := os.Stat(l.log); os.IsNotExist(err) {
		l.write(l.log, "")
	}

	for name, meta := range l.books {
		l.write(filepath.Join(l.start, name), "content of "+name)
		if meta != "" {
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			l.write(filepath.Join(l.start, stem+".sdr", "metadata"+filepath.Ext(name)+".lua"), meta)
		}
	}

	cfg := fmt.Sprintf(`
[library]
start_dir = %q
archive_dir = %q

[journal]
enabled = %t
path = %q

[log]
level = "error"
`, l.start, l.archive, l.journal, filepath.Join(l.root, "journal.db"))
	l.write(l.config, cfg)
	return l
}

func (l *testLibrary) write(path, content string) {
	l.t.Helper()
	require.NoError(l.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(l.t, os.WriteFile(path, []byte(content), 0644))
}

func (l *testLibrary) readLog() string {
	l.t.Helper()
	data, err := os.ReadFile(l.log)
	require.NoError(l.t, err)
	return string(data)
}

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	configPath, jsonOutput, logLevel = "", false, ""
	archiveDryRun, archiveManual, archiveRecursive = false, false, false
	statusRaw = false
	historyListLimit, historyAddDate = 0, ""
	journalLimit, journalBook, journalPrune = 20, "", false
	configInitForce = false
}

// runCmd executes the root command with args and stdin, returning stdout.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}
