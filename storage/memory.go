// Package storage provides in-memory conversation storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryConversation struct {
	summary  Summary
	messages []Message
}

// InMemoryStore implements ConversationStore using an in-memory map.
// Data is lost when the process terminates.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*memoryConversation
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]*memoryConversation),
	}
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close(ctx context.Context) error {
	return nil
}

// CreateConversation creates a conversation with an empty message sequence.
func (s *InMemoryStore) CreateConversation(ctx context.Context, userEmail, title string) (string, error) {
	if title == "" {
		title = DefaultTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	now := time.Now().UTC()
	s.conversations[id] = &memoryConversation{
		summary: Summary{
			ID:        id,
			UserEmail: userEmail,
			Title:     title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		messages: []Message{},
	}
	return id, nil
}

// AppendMessage appends one message and refreshes the update timestamp.
func (s *InMemoryStore) AppendMessage(ctx context.Context, conversationID string, msg Message) error {
	return s.AppendMessages(ctx, conversationID, []Message{msg})
}

// AppendMessages appends messages in order and refreshes the update timestamp.
func (s *InMemoryStore) AppendMessages(ctx context.Context, conversationID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("append to conversation %s: %w", conversationID, ErrNotFound)
	}

	now := time.Now().UTC()
	conv.messages = append(conv.messages, stamp(msgs, now)...)
	conv.summary.UpdatedAt = now
	return nil
}

// ListConversations returns the user's conversation summaries, most recently
// updated first.
func (s *InMemoryStore) ListConversations(ctx context.Context, userEmail string) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := []Summary{}
	for _, conv := range s.conversations {
		if conv.summary.UserEmail == userEmail {
			summaries = append(summaries, conv.summary)
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Messages returns the conversation's messages in stored order.
func (s *InMemoryStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}

	// Return a copy to avoid external mutations
	copied := make([]Message, len(conv.messages))
	copy(copied, conv.messages)
	return copied, nil
}

// GetConversation returns the summary for a single conversation.
func (s *InMemoryStore) GetConversation(ctx context.Context, conversationID string) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return Summary{}, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return conv.summary, nil
}

// RenameConversation overwrites the title field only.
func (s *InMemoryStore) RenameConversation(ctx context.Context, conversationID, newTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return fmt.Errorf("rename conversation %s: %w", conversationID, ErrNotFound)
	}
	conv.summary.Title = newTitle
	return nil
}

// Verify InMemoryStore implements ConversationStore
var _ ConversationStore = (*InMemoryStore)(nil)
