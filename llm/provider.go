// Package llm provides chat-completion provider abstractions.
//
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Request holds per-call generation parameters. The remote model is stateless
// per call: the transcript passed to Complete must carry the full conversation
// history up to and including the newest user message. MaxTokens and
// Temperature are passed through to the remote endpoint unmodified.
type Request struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// Provider defines the abstract interface for chat-completion providers.
// Complete blocks until the remote service responds. Transport and service
// errors are not caught here: they propagate to the caller as hard failures,
// with no retry and no timeout beyond the transport default.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Complete sends the transcript and returns the generated reply text.
	Complete(ctx context.Context, transcript []ChatMessage, req Request) (string, error)
}
