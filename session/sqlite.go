// SQLite session store.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSessionNotFound is returned when resuming an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// SqliteStore implements Store backed by a SQLite database file.
// One store instance is bound to one session.
type SqliteStore struct {
	db        *sql.DB
	sessionID string
}

// OpenSqlite opens (or creates) the database at path and starts a fresh
// session. Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	store := &SqliteStore{db: db, sessionID: NewSessionID()}
	if _, err := db.Exec(
		"INSERT INTO sessions (session_id) VALUES (?)", store.sessionID,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return store, nil
}

// ResumeSqlite opens the database at path and binds to an existing
// session. Returns ErrSessionNotFound if the ID is unknown.
func ResumeSqlite(path, sessionID string) (*SqliteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var exists int
	err = db.QueryRow(
		"SELECT COUNT(1) FROM sessions WHERE session_id = ?", sessionID,
	).Scan(&exists)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if exists == 0 {
		db.Close()
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}

	return &SqliteStore{db: db, sessionID: sessionID}, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &SqliteStore{db: db, sessionID: NewSessionID()}
	if _, err := db.Exec(
		"INSERT INTO sessions (session_id) VALUES (?)", store.sessionID,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return store, nil
}

func openDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL DEFAULT 'explain',
			scope TEXT NOT NULL DEFAULT 'include-pr',
			verbose INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			query TEXT NOT NULL,
			summary TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_queries_session
		ON queries(session_id, id);

		CREATE TABLE IF NOT EXISTS evidence (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			start_line INTEGER NOT NULL DEFAULT 0,
			end_line INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE,
			UNIQUE(session_id, file_path, start_line, end_line)
		);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SessionID returns the bound session identifier.
func (s *SqliteStore) SessionID() string {
	return s.sessionID
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// AddQuery appends a query/summary pair and trims history beyond the cap.
func (s *SqliteStore) AddQuery(ctx context.Context, query, summary string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after Commit
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO queries (session_id, query, summary, timestamp) VALUES (?, ?, ?, ?)",
		s.sessionID, query, truncateSummary(summary), nowUTC())
	if err != nil {
		return fmt.Errorf("failed to insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM queries WHERE session_id = ? AND id NOT IN (
			SELECT id FROM queries WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`, s.sessionID, s.sessionID, MaxRecentQueries)
	if err != nil {
		return fmt.Errorf("failed to trim query history: %w", err)
	}

	if err := s.touch(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddEvidence appends file refs, deduplicating by natural key and
// trimming beyond the cap.
func (s *SqliteStore) AddEvidence(ctx context.Context, refs []EvidenceRef) error {
	if len(refs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO evidence (session_id, file_path, start_line, end_line) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ref := range refs {
		if _, err := stmt.ExecContext(ctx, s.sessionID, ref.FilePath, ref.StartLine, ref.EndLine); err != nil {
			return fmt.Errorf("failed to insert evidence: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM evidence WHERE session_id = ? AND id NOT IN (
			SELECT id FROM evidence WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`, s.sessionID, s.sessionID, MaxEvidenceRefs)
	if err != nil {
		return fmt.Errorf("failed to trim evidence: %w", err)
	}

	if err := s.touch(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Context returns the current session view, most-recent-last.
func (s *SqliteStore) Context(ctx context.Context) (Context, error) {
	result := Context{SessionID: s.sessionID}

	var verbose int
	err := s.db.QueryRowContext(ctx,
		"SELECT mode, scope, verbose FROM sessions WHERE session_id = ?", s.sessionID,
	).Scan(&result.Settings.Mode, &result.Settings.Scope, &verbose)
	if err != nil {
		return Context{}, fmt.Errorf("failed to read session settings: %w", err)
	}
	result.Settings.Verbose = verbose != 0

	rows, err := s.db.QueryContext(ctx,
		"SELECT query, summary, timestamp FROM queries WHERE session_id = ? ORDER BY id ASC", s.sessionID)
	if err != nil {
		return Context{}, fmt.Errorf("failed to read queries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var q QueryRecord
		if err := rows.Scan(&q.Query, &q.Summary, &q.Timestamp); err != nil {
			return Context{}, fmt.Errorf("failed to scan query: %w", err)
		}
		result.RecentQueries = append(result.RecentQueries, q)
	}
	if err := rows.Err(); err != nil {
		return Context{}, fmt.Errorf("failed to iterate queries: %w", err)
	}

	evRows, err := s.db.QueryContext(ctx,
		"SELECT file_path, start_line, end_line FROM evidence WHERE session_id = ? ORDER BY id ASC", s.sessionID)
	if err != nil {
		return Context{}, fmt.Errorf("failed to read evidence: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		var ref EvidenceRef
		if err := evRows.Scan(&ref.FilePath, &ref.StartLine, &ref.EndLine); err != nil {
			return Context{}, fmt.Errorf("failed to scan evidence: %w", err)
		}
		result.EvidenceRefs = append(result.EvidenceRefs, ref)
	}
	if err := evRows.Err(); err != nil {
		return Context{}, fmt.Errorf("failed to iterate evidence: %w", err)
	}

	return result, nil
}

// UpdateSettings persists sticky user preferences.
func (s *SqliteStore) UpdateSettings(ctx context.Context, settings Settings) error {
	verbose := 0
	if settings.Verbose {
		verbose = 1
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET mode = ?, scope = ?, verbose = ?, updated_at = datetime('now')
		WHERE session_id = ?`,
		settings.Mode, settings.Scope, verbose, s.sessionID)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// ListSessions lists all session IDs in the database, oldest first.
func (s *SqliteStore) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM sessions ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SqliteStore) touch(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = datetime('now') WHERE session_id = ?", s.sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}
	return nil
}

// Verify SqliteStore implements Store
var _ Store = (*SqliteStore)(nil)
