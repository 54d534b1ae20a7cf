// Package storage provides SQLite conversation storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements ConversationStore using a SQLite database file.
// Useful for local runs without a MongoDB deployment.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
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

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_email TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_user
		ON conversations(user_email, updated_at DESC);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateConversation creates a conversation row with no messages.
func (s *SqliteStore) CreateConversation(ctx context.Context, userEmail, title string) (string, error) {
	if title == "" {
		title = DefaultTitle
	}

	id := uuid.New().String()
	now := time.Now().UTC().UnixNano()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_email, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		id, userEmail, title, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}

	return id, nil
}

// AppendMessage appends one message and refreshes updated_at.
func (s *SqliteStore) AppendMessage(ctx context.Context, conversationID string, msg Message) error {
	return s.AppendMessages(ctx, conversationID, []Message{msg})
}

// AppendMessages appends messages in order and refreshes updated_at inside
// one transaction, so readers never observe the message without the
// refreshed timestamp.
func (s *SqliteStore) AppendMessages(ctx context.Context, conversationID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback is a no-op after Commit
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		now.UnixNano(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to update conversation timestamp: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("append to conversation %s: %w", conversationID, ErrNotFound)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (conversation_id, role, content, timestamp) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, msg := range stamp(msgs, now) {
		if _, err := stmt.ExecContext(ctx, conversationID, msg.Role, msg.Content, msg.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListConversations returns the user's conversation summaries, most recently
// updated first.
func (s *SqliteStore) ListConversations(ctx context.Context, userEmail string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_email, title, created_at, updated_at FROM conversations WHERE user_email = ? ORDER BY updated_at DESC",
		userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return summaries, nil
}

// Messages returns the conversation's messages in stored order.
func (s *SqliteStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, timestamp FROM messages WHERE conversation_id = ? ORDER BY id ASC",
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var ts int64
		if err := rows.Scan(&msg.Role, &msg.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Timestamp = time.Unix(0, ts).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// GetConversation returns the summary for a single conversation.
func (s *SqliteStore) GetConversation(ctx context.Context, conversationID string) (Summary, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_email, title, created_at, updated_at FROM conversations WHERE id = ?",
		conversationID)

	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// RenameConversation overwrites the title field only.
func (s *SqliteStore) RenameConversation(ctx context.Context, conversationID, newTitle string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET title = ? WHERE id = ?",
		newTitle, conversationID)
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rename conversation %s: %w", conversationID, ErrNotFound)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row scanner) (Summary, error) {
	var summary Summary
	var createdAt, updatedAt int64
	if err := row.Scan(&summary.ID, &summary.UserEmail, &summary.Title, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, err
		}
		return Summary{}, fmt.Errorf("failed to scan conversation: %w", err)
	}
	summary.CreatedAt = time.Unix(0, createdAt).UTC()
	summary.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return summary, nil
}

// Verify SqliteStore implements ConversationStore
var _ ConversationStore = (*SqliteStore)(nil)
