// AI21 Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses AI21's OpenAI-compatible API with a different base URL
// - Supports the Jamba model family (jamba-instruct, jamba-mini)

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const ai21BaseURL = "https://api.ai21.com/studio/v1"

// AI21Provider implements the Provider interface for AI21 Jamba models.
type AI21Provider struct {
	client *openai.Client
}

// NewAI21Provider creates a new AI21 provider.
func NewAI21Provider(apiKey string) *AI21Provider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = ai21BaseURL

	return &AI21Provider{
		client: openai.NewClientWithConfig(config),
	}
}

// Name returns the provider name.
func (p *AI21Provider) Name() string {
	return "ai21"
}

// Complete sends a chat completion request and returns the reply text.
func (p *AI21Provider) Complete(ctx context.Context, transcript []ChatMessage, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertToOpenAIMessages(transcript),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Verify AI21Provider implements Provider
var _ Provider = (*AI21Provider)(nil)
