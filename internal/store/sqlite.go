// Package store is the relational log sink: role-tagged message rows keyed
// by session plus a trigram-tokenized FTS5 index over message content for
// approximate recall. It is a secondary recall path, never authoritative.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding sessions, messages, the trigram
// message index, and the beliefs/goals side tables.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the database at dbPath and applies the
// schema. WAL mode keeps concurrent request writers cheap.
func Open(dbPath string, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &DB{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *DB) Close() error {
	return s.db.Close()
}

func (s *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
	);

	-- Trigram tokenization keeps recall usable for text without
	-- whitespace-delimited words.
	CREATE VIRTUAL TABLE IF NOT EXISTS message_index
	USING fts5(content, session_id UNINDEXED, tokenize='trigram');

	CREATE TABLE IF NOT EXISTS beliefs (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL,
		priority   INTEGER DEFAULT 0,
		due_at     INTEGER,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

func (s *DB) upsertSession(ctx context.Context, sessionID string) error {
	now := nowMs()
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	title := "session " + short

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions(session_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, title, now, now)
	return err
}

// SaveInteraction appends one role-tagged message row and mirrors its
// content into the trigram index.
func (s *DB) SaveInteraction(ctx context.Context, sessionID, role, content string) error {
	if err := s.upsertSession(ctx, sessionID); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO messages(session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, role, content, nowMs()); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO message_index(content, session_id) VALUES (?, ?)`,
		content, sessionID); err != nil {
		return fmt.Errorf("insert fts row: %w", err)
	}
	return nil
}

// sanitizeFTSQuery neutralizes characters that would otherwise act as FTS5
// operators, then quotes the whole phrase.
func sanitizeFTSQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '"', '*', ':', '-':
			return ' '
		default:
			return r
		}
	}, query)
	return `"` + strings.TrimSpace(cleaned) + `"`
}

// Recall returns up to limit message contents approximately matching the
// query, best bm25 rank first.
func (s *DB) Recall(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content
		FROM message_index
		WHERE message_index MATCH ?
		ORDER BY bm25(message_index)
		LIMIT ?`,
		sanitizeFTSQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, rows.Err()
}
