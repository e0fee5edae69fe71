// Package sessionindex maintains a SQLite-backed read cache over the
// Session Store's JSON files, so listing and filtering sessions does not
// require reading and parsing every file on disk. It is a collaborator,
// not core: the Session Store files remain the single source of truth,
// and the index can always be rebuilt from them.
package sessionindex

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/chainkeeper/pkg/session"
)

// Index is a read-optimized cache over session summaries.
type Index struct {
	db   *sql.DB
	path string
}

// Summary is the subset of session.State the index keeps queryable
// without round-tripping through the full JSON file.
type Summary struct {
	SessionID   string
	ProfileID   string
	ActivatedAt time.Time
	Complete    bool
	PercentDone int
}

// Open creates (if needed) and opens the index database at path, matching
// the teacher's read-performance pragmas for the reader side, plus normal
// (non-read-only) mode since Index is also the writer.
func Open(path string) (*Index, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening session index: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			// Non-fatal: the index degrades to default page-cache behavior.
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id   TEXT PRIMARY KEY,
			profile_id   TEXT NOT NULL,
			activated_at DATETIME NOT NULL,
			complete     INTEGER NOT NULL,
			percent_done INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session index schema: %w", err)
	}

	return &Index{db: db, path: path}, nil
}

// Close closes the underlying database handle.
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// Upsert records or refreshes s's summary row. Called by collaborators
// after every Session Store write; the index never drives writes on its
// own (spec.md §3's Store remains the sole writer of session state).
func (idx *Index) Upsert(s *session.State) error {
	_, err := idx.db.Exec(`
		INSERT INTO sessions (session_id, profile_id, activated_at, complete, percent_done)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			profile_id = excluded.profile_id,
			activated_at = excluded.activated_at,
			complete = excluded.complete,
			percent_done = excluded.percent_done
	`, s.SessionID, s.ProfileID, s.ActivatedAt, boolToInt(s.IsComplete()), s.PercentComplete())
	if err != nil {
		return fmt.Errorf("indexing session %s: %w", s.SessionID, err)
	}
	return nil
}

// Remove deletes id's summary row, e.g. after Store.Clear.
func (idx *Index) Remove(id string) error {
	if _, err := idx.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("removing session %s from index: %w", id, err)
	}
	return nil
}

// List returns all indexed session summaries, most recently activated
// first.
func (idx *Index) List() ([]Summary, error) {
	rows, err := idx.db.Query(`
		SELECT session_id, profile_id, activated_at, complete, percent_done
		FROM sessions
		ORDER BY activated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing session index: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var complete int
		if err := rows.Scan(&s.SessionID, &s.ProfileID, &s.ActivatedAt, &complete, &s.PercentDone); err != nil {
			continue
		}
		s.Complete = complete != 0
		out = append(out, s)
	}
	return out, nil
}

// Incomplete returns summaries for sessions not yet complete.
func (idx *Index) Incomplete() ([]Summary, error) {
	rows, err := idx.db.Query(`
		SELECT session_id, profile_id, activated_at, complete, percent_done
		FROM sessions
		WHERE complete = 0
		ORDER BY activated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing incomplete sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var complete int
		if err := rows.Scan(&s.SessionID, &s.ProfileID, &s.ActivatedAt, &complete, &s.PercentDone); err != nil {
			continue
		}
		s.Complete = complete != 0
		out = append(out, s)
	}
	return out, nil
}

// Rebuild clears and repopulates the index from the given states, used to
// recover from a deleted or stale index file.
func (idx *Index) Rebuild(states []*session.State) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("starting rebuild transaction: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing session index: %w", err)
	}
	for _, s := range states {
		if _, err := tx.Exec(`
			INSERT INTO sessions (session_id, profile_id, activated_at, complete, percent_done)
			VALUES (?, ?, ?, ?, ?)
		`, s.SessionID, s.ProfileID, s.ActivatedAt, boolToInt(s.IsComplete()), s.PercentComplete()); err != nil {
			tx.Rollback()
			return fmt.Errorf("rebuilding session index: %w", err)
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
