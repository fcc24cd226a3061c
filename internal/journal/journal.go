// Package journal records every archive decision in a SQLite database so
// past runs can be reviewed.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vmunix/bookarc/internal/migrations"
)

// Action is what happened to a book.
type Action string

const (
	ActionArchived  Action = "archived"
	ActionDiscarded Action = "discarded"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// Entry is one journal row.
type Entry struct {
	ID         int64     `json:"id"`
	Action     Action    `json:"action"`
	Book       string    `json:"book"`
	Source     string    `json:"source,omitempty"`
	Dest       string    `json:"dest,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Journal persists entries to SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the journal database at path and applies the schema.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	j, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an open database, applying the schema.
func New(db *sql.DB) (*Journal, error) {
	if _, err := db.Exec(migrations.JournalSQL); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append persists an entry and returns its ID. A zero OccurredAt is set to now.
func (j *Journal) Append(e Entry) (int64, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = j.now()
	}

	result, err := j.db.Exec(`
		INSERT INTO journal (action, book, source, dest, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(e.Action), e.Book, e.Source, e.Dest, e.Detail, e.OccurredAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert journal entry: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, action, book, source, dest, detail, occurred_at
		FROM journal
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ForBook returns every entry for the named book, oldest first.
func (j *Journal) ForBook(name string) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, action, book, source, dest, detail, occurred_at
		FROM journal
		WHERE book = ?
		ORDER BY id ASC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Counts returns the number of entries per action.
func (j *Journal) Counts() (map[Action]int, error) {
	rows, err := j.db.Query(`SELECT action, COUNT(*) FROM journal GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("count journal: %w", err)
	}
	defer rows.Close()

	counts := make(map[Action]int)
	for rows.Next() {
		var a string
		var n int
		if err := rows.Scan(&a, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Action(a)] = n
	}
	return counts, rows.Err()
}

// Prune removes entries older than the given duration.
func (j *Journal) Prune(olderThan time.Duration) (int64, error) {
	cutoff := j.now().Add(-olderThan).UTC()
	result, err := j.db.Exec(`DELETE FROM journal WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &action, &e.Book, &e.Source, &e.Dest, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
