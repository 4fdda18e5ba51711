package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gemchat/pkg/chat"
)

// timeLayout is fixed width so updated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements chat.Store on a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath
// and runs the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			messages   TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		return err
	}
	_, err := db.Exec("CREATE INDEX IF NOT EXISTS chats_updated_at ON chats (updated_at DESC)")
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) ([]chat.Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT messages FROM chats WHERE id = ?", id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var messages []chat.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, fmt.Errorf("unmarshal chat messages: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id, title string, messages []chat.Message) error {
	if messages == nil {
		messages = []chat.Message{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal chat messages: %w", err)
	}
	now := s.now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chats (id, title, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, messages = excluded.messages, updated_at = excluded.updated_at`,
		id, title, string(data), now, now,
	)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]chat.ChatHistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, updated_at FROM chats ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []chat.ChatHistoryItem{}
	for rows.Next() {
		var item chat.ChatHistoryItem
		var updatedStr string
		if err := rows.Scan(&item.ID, &item.Title, &updatedStr); err != nil {
			return nil, err
		}
		item.UpdatedAt, _ = time.Parse(timeLayout, updatedStr)
		items = append(items, item)
	}
	return items, rows.Err()
}
