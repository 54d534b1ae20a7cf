// Package chat composes the conversation store and a completion provider
// into user-facing chat sessions.
//
// Information Hiding:
// - Transcript bookkeeping between store and provider hidden from callers
// - Write-ahead ordering of persistence vs. in-memory state encapsulated

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/richinex/penelope/llm"
	"github.com/richinex/penelope/storage"
)

// DefaultSystemPrompt seeds fresh transcripts. It lives only in the
// transcript; the persisted conversation holds user/assistant turns.
const DefaultSystemPrompt = "You're a helpful assistant."

// untitledFallback is shown when a session's conversation no longer resolves.
const untitledFallback = "Untitled Conversation"

// Params holds the generation parameters applied to each turn. They are
// passed through to the provider unmodified.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Session is one user's view of a single conversation. It keeps the
// transcript sent to the completion provider in lockstep with the store
// using write-ahead ordering: a message is persisted first and enters the
// transcript only once the write succeeded, so the in-memory transcript is
// never ahead of the persisted record.
type Session struct {
	store          storage.ConversationStore
	provider       llm.Provider
	params         Params
	userEmail      string
	conversationID string
	transcript     []llm.ChatMessage
}

// ConversationID returns the id of the backing conversation.
func (s *Session) ConversationID() string {
	return s.conversationID
}

// UserEmail returns the email the session was started for.
func (s *Session) UserEmail() string {
	return s.userEmail
}

// Transcript returns a copy of the in-memory transcript.
func (s *Session) Transcript() []llm.ChatMessage {
	copied := make([]llm.ChatMessage, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}

// SendTurn persists the user message, requests a completion over the full
// transcript and persists the reply. Any store or provider failure surfaces
// directly; nothing is retried. A provider failure leaves the user message
// already persisted with no assistant reply following it.
func (s *Session) SendTurn(ctx context.Context, userText string) (string, error) {
	if err := s.append(ctx, llm.UserMessage(userText)); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	reply, err := s.provider.Complete(ctx, s.transcript, llm.Request{
		Model:       s.params.Model,
		MaxTokens:   s.params.MaxTokens,
		Temperature: s.params.Temperature,
	})
	if err != nil {
		return "", err
	}

	if err := s.append(ctx, llm.AssistantMessage(reply)); err != nil {
		return "", fmt.Errorf("failed to save assistant message: %w", err)
	}
	return reply, nil
}

// append writes the message to the store first and mirrors it into the
// transcript only on success.
func (s *Session) append(ctx context.Context, msg llm.ChatMessage) error {
	err := s.store.AppendMessage(ctx, s.conversationID, storage.Message{
		Role:    msg.Role,
		Content: msg.Content,
	})
	if err != nil {
		return err
	}
	s.transcript = append(s.transcript, msg)
	return nil
}

// Title returns the conversation's current title, re-querying the store on
// every call. Sessions do not cache the title.
func (s *Session) Title(ctx context.Context) (string, error) {
	summary, err := s.store.GetConversation(ctx, s.conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return untitledFallback, nil
	}
	if err != nil {
		return "", err
	}
	return summary.Title, nil
}

// Rename changes the conversation title. Delegates to the store; the session
// holds no title state of its own.
func (s *Session) Rename(ctx context.Context, newTitle string) error {
	return s.store.RenameConversation(ctx, s.conversationID, newTitle)
}

// seedTranscript prepends the default system message when the loaded history
// does not begin with one. System messages are never persisted, so resumed
// conversations come back without theirs.
func seedTranscript(history []llm.ChatMessage) []llm.ChatMessage {
	if len(history) > 0 && history[0].Role == llm.RoleSystem {
		return history
	}
	seeded := make([]llm.ChatMessage, 0, len(history)+1)
	seeded = append(seeded, llm.SystemMessage(DefaultSystemPrompt))
	return append(seeded, history...)
}
