// Provider factory - maps provider names to implementations.
//
//	provider, err := llm.ProviderAI21.FromEnv()          // key from AI21_API_KEY
//	provider, err := llm.ProviderOpenAI.New("sk-...")    // explicit key

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported chat-completion providers.
type ProviderType int

const (
	// ProviderAI21 is the AI21 provider (Jamba models).
	ProviderAI21 ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderAI21:
		return "ai21"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderAI21:
		return "AI21_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider, used by the
// interactive chat path.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderAI21:
		return "jamba-instruct"
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

// MiniModel returns the smaller model variant for this provider, used by the
// HTTP chat path.
func (p ProviderType) MiniModel() string {
	switch p {
	case ProviderAI21:
		return "jamba-mini"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-20241022"
	case ProviderGemini:
		return "gemini-2.5-flash-lite"
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "ai21", "jamba":
		return ProviderAI21, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// New creates a provider with an explicit API key.
func (p ProviderType) New(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s provider requires an API key", p)
	}

	switch p {
	case ProviderAI21:
		return NewAI21Provider(apiKey), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %d", p)
	}
}

// FromEnv creates a provider, reading its API key from the environment.
func (p ProviderType) FromEnv() (Provider, error) {
	key := os.Getenv(p.EnvVar())
	if key == "" {
		return nil, fmt.Errorf("%s environment variable not set", p.EnvVar())
	}
	return p.New(key)
}
