package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/richinex/penelope/llm"
	"github.com/richinex/penelope/storage"
)

// ErrNotOwned reports that a resumed conversation belongs to another user.
// Only returned when the manager was built with WithOwnershipCheck.
var ErrNotOwned = errors.New("conversation does not belong to user")

// Manager is a factory and directory over chat sessions. It holds the shared
// store handle and provider; sessions it creates borrow both.
type Manager struct {
	store          storage.ConversationStore
	provider       llm.Provider
	params         Params
	checkOwnership bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithOwnershipCheck makes Resume verify that the conversation belongs to
// the resuming user. Off by default: conversation ids are unguessable and
// the service has no authentication layer to anchor a stronger check to.
func WithOwnershipCheck() Option {
	return func(m *Manager) {
		m.checkOwnership = true
	}
}

// NewManager creates a session manager over the given store and provider.
func NewManager(store storage.ConversationStore, provider llm.Provider, params Params, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		provider: provider,
		params:   params,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartNew creates a durable empty conversation for the user and returns a
// session whose transcript holds only the seed system message. The seed is
// not persisted; the stored conversation has zero messages until the first
// completed turn.
func (m *Manager) StartNew(ctx context.Context, userEmail string) (*Session, error) {
	id, err := m.store.CreateConversation(ctx, userEmail, storage.DefaultTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return &Session{
		store:          m.store,
		provider:       m.provider,
		params:         m.params,
		userEmail:      userEmail,
		conversationID: id,
		transcript:     seedTranscript(nil),
	}, nil
}

// Resume loads an existing conversation's messages into a new session's
// transcript. When ownership checking is enabled, a conversation owned by a
// different email fails with ErrNotOwned.
func (m *Manager) Resume(ctx context.Context, userEmail, conversationID string) (*Session, error) {
	if m.checkOwnership {
		summary, err := m.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if summary.UserEmail != userEmail {
			return nil, fmt.Errorf("resume conversation %s: %w", conversationID, ErrNotOwned)
		}
	}

	messages, err := m.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	return &Session{
		store:          m.store,
		provider:       m.provider,
		params:         m.params,
		userEmail:      userEmail,
		conversationID: conversationID,
		transcript:     seedTranscript(storage.Transcript(messages)),
	}, nil
}

// ListConversations returns the user's conversation summaries, most recently
// updated first.
func (m *Manager) ListConversations(ctx context.Context, userEmail string) ([]storage.Summary, error) {
	return m.store.ListConversations(ctx, userEmail)
}
