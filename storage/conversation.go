// Package storage provides conversation persistence.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between Mongo, SQLite and memory without API changes
// - Each backend encapsulates its own document/row layout

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/richinex/penelope/llm"
)

// DefaultTitle is the title given to conversations created without one.
const DefaultTitle = "New Conversation"

// ErrNotFound reports that a conversation id did not resolve. All backends
// return it (possibly wrapped) so callers can distinguish a missing
// conversation from one that merely has no messages.
var ErrNotFound = errors.New("conversation not found")

// Message is one turn embedded in a conversation's message sequence.
// Messages are immutable once appended; the only mutation path for a
// conversation's sequence is appending a new message.
type Message struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Summary describes a conversation without its embedded messages. Listing
// calls project only these fields to bound response size.
type Summary struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationStore defines the interface for conversation persistence.
// The store is the single owner of persisted conversation state; it is
// constructed once at startup, injected where needed, and closed at shutdown.
type ConversationStore interface {
	// CreateConversation creates a conversation with an empty message
	// sequence and returns its id. A failure means no conversation was
	// created; there is no partial state.
	CreateConversation(ctx context.Context, userEmail, title string) (string, error)

	// AppendMessage appends one message and refreshes the update timestamp
	// as a single atomic operation against the stored conversation.
	// A zero msg.Timestamp is stamped with the current time.
	AppendMessage(ctx context.Context, conversationID string, msg Message) error

	// AppendMessages appends several messages in order and refreshes the
	// update timestamp, all in one atomic update.
	AppendMessages(ctx context.Context, conversationID string, msgs []Message) error

	// ListConversations returns the user's conversation summaries ordered
	// by most recently updated first.
	ListConversations(ctx context.Context, userEmail string) ([]Summary, error)

	// Messages returns the conversation's messages in stored order.
	// Returns an empty slice for an existing conversation with no messages
	// and ErrNotFound when the id does not resolve.
	Messages(ctx context.Context, conversationID string) ([]Message, error)

	// GetConversation returns the summary for a single conversation.
	GetConversation(ctx context.Context, conversationID string) (Summary, error)

	// RenameConversation overwrites the title field only. Idempotent.
	RenameConversation(ctx context.Context, conversationID, newTitle string) error

	// Close releases the underlying store handle.
	Close(ctx context.Context) error
}

// Transcript converts stored messages to the chat-completion message form.
func Transcript(msgs []Message) []llm.ChatMessage {
	result := make([]llm.ChatMessage, len(msgs))
	for i, msg := range msgs {
		result[i] = llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	return result
}

// stamp fills in zero timestamps. Shared by backends so appended messages
// always carry append time.
func stamp(msgs []Message, now time.Time) []Message {
	stamped := make([]Message, len(msgs))
	copy(stamped, msgs)
	for i := range stamped {
		if stamped[i].Timestamp.IsZero() {
			stamped[i].Timestamp = now
		}
	}
	return stamped
}
