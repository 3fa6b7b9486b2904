// Package store persists labeled messages in an embedded SQLite database.
// The merge subcommand writes the store; the chat core can load its dataset
// from it instead of the CSV. CGo-free driver so the binary stays portable.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"msglens/internal/dataset"
)

// MessageStore wraps a single-connection SQLite database holding the labeled
// message dataset.
type MessageStore struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	id_user   TEXT NOT NULL,
	source    TEXT NOT NULL,
	category  TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_category ON messages(category);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
`

// Open initializes the store at path, creating the schema if needed.
func Open(path string) (*MessageStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal_mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &MessageStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *MessageStore) Close() error {
	return s.db.Close()
}

// Replace atomically swaps the store's contents for the given messages,
// preserving their order.
func (s *MessageStore) Replace(messages []dataset.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO messages (timestamp, id_user, source, category, message) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		_, err := stmt.Exec(
			m.Timestamp.Format("2006-01-02T15:04:05"),
			m.UserID, m.Source, m.Category, m.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

// LoadDataset reads the full message table in insertion order and builds the
// session dataset from it.
func (s *MessageStore) LoadDataset() (*dataset.Dataset, error) {
	rows, err := s.db.Query("SELECT timestamp, id_user, source, category, message FROM messages ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []dataset.Message
	for rows.Next() {
		var ts string
		var m dataset.Message
		if err := rows.Scan(&ts, &m.UserID, &m.Source, &m.Category, &m.Message); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		t, err := dataset.ParseTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("stored message has bad timestamp: %w", err)
		}
		m.Timestamp = t
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return dataset.New(messages), nil
}

// Count returns the number of stored messages.
func (s *MessageStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}
