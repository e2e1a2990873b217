// Package sqlite keeps session history in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/salaryse/assistant/store"
)

// SessionStore keeps exchanges in a SQLite table.
type SessionStore struct {
	db         *sql.DB
	tableName  string
	maxHistory int
}

var _ store.SessionStore = (*SessionStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path       string
	TableName  string // Default "exchanges"
	MaxHistory int    // Default store.DefaultMaxHistory
}

// NewSessionStore opens the database and creates the schema.
func NewSessionStore(opts SqliteOptions) (*SessionStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "exchanges"
	}
	maxHistory := opts.MaxHistory
	if maxHistory <= 0 {
		maxHistory = store.DefaultMaxHistory
	}

	s := &SessionStore{db: db, tableName: tableName, maxHistory: maxHistory}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			low_confidence INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_thread_id ON %s (thread_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) History(ctx context.Context, threadID string) ([]store.Exchange, error) {
	query := fmt.Sprintf(`
		SELECT question, answer, low_confidence, created_at
		FROM %s
		WHERE thread_id = ?
		ORDER BY id ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := []store.Exchange{}
	for rows.Next() {
		var ex store.Exchange
		if err := rows.Scan(&ex.Question, &ex.Answer, &ex.LowConfidence, &ex.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		history = append(history, ex)
	}
	return history, rows.Err()
}

func (s *SessionStore) Append(ctx context.Context, threadID string, exchange store.Exchange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := exchange.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (thread_id, question, answer, low_confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.tableName)
	if _, err := tx.ExecContext(ctx, insert, threadID, exchange.Question, exchange.Answer, exchange.LowConfidence, ts.UTC()); err != nil {
		return fmt.Errorf("failed to insert exchange: %w", err)
	}

	evict := fmt.Sprintf(`
		DELETE FROM %s
		WHERE thread_id = ? AND id NOT IN (
			SELECT id FROM %s WHERE thread_id = ? ORDER BY id DESC LIMIT ?
		)
	`, s.tableName, s.tableName)
	if _, err := tx.ExecContext(ctx, evict, threadID, threadID, s.maxHistory); err != nil {
		return fmt.Errorf("failed to evict old exchanges: %w", err)
	}

	return tx.Commit()
}

func (s *SessionStore) Delete(ctx context.Context, threadID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}
