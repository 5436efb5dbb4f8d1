package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/studyrag/ragchat/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite file, so the session
// survives client restarts. It is the terminal analogue of a browser's
// localStorage.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // single writer; Set/Clear serialize through here
}

// NewSQLite opens (or creates) the session database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	// One client process, one connection; more only invites SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping session database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		role TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get returns the stored session, or an empty session when none is stored.
func (s *SQLiteStore) Get() (domain.Session, error) {
	row := s.db.QueryRow(`SELECT token, role FROM session WHERE id = 1`)

	var sess domain.Session
	var role string
	err := row.Scan(&sess.Token, &role)
	if err == sql.ErrNoRows {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("scan session row: %w", err)
	}
	sess.Role = domain.Role(role)
	return sess, nil
}

// Set replaces the stored session with the given token and role.
func (s *SQLiteStore) Set(token string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO session (id, token, role, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			role = excluded.role,
			updated_at = excluded.updated_at`
	err := s.execRetry(query, token, string(role), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// execRetry retries once on a lock conflict. Two client processes pointed at
// the same session file (two terminal windows) can collide despite the busy
// timeout.
func (s *SQLiteStore) execRetry(query string, args ...any) error {
	_, err := s.db.Exec(query, args...)
	if err != nil && isConflict(err) {
		time.Sleep(50 * time.Millisecond)
		_, err = s.db.Exec(query, args...)
	}
	return err
}

func isConflict(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Clear removes the stored session. Token and role always go together; the
// row is deleted whole so a partial credential can never survive.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.execRetry(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
