package llm

import (
	"os"
	"testing"
)

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input string
		want  ProviderType
	}{
		{"ai21", ProviderAI21},
		{"jamba", ProviderAI21},
		{"AI21", ProviderAI21},
		{"openai", ProviderOpenAI},
		{"gpt", ProviderOpenAI},
		{"anthropic", ProviderAnthropic},
		{"claude", ProviderAnthropic},
		{"gemini", ProviderGemini},
		{"google", ProviderGemini},
	}

	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if err != nil {
			t.Errorf("ParseProviderType(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseProviderTypeUnknown(t *testing.T) {
	if _, err := ParseProviderType("jamba-xl-ultra"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderTypeString(t *testing.T) {
	for _, p := range []ProviderType{ProviderAI21, ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		if p.String() == "unknown" {
			t.Errorf("provider %d has no string representation", p)
		}
		if p.EnvVar() == "" {
			t.Errorf("provider %s has no API key env var", p)
		}
		if p.DefaultModel() == "" {
			t.Errorf("provider %s has no default model", p)
		}
		if p.MiniModel() == "" {
			t.Errorf("provider %s has no mini model", p)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := ProviderAI21.New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestFromEnvMissingKey(t *testing.T) {
	original := os.Getenv("AI21_API_KEY")
	os.Unsetenv("AI21_API_KEY")
	defer os.Setenv("AI21_API_KEY", original)

	if _, err := ProviderAI21.FromEnv(); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestFromEnvCreatesProvider(t *testing.T) {
	original := os.Getenv("AI21_API_KEY")
	os.Setenv("AI21_API_KEY", "test-key")
	defer os.Setenv("AI21_API_KEY", original)

	provider, err := ProviderAI21.FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "ai21" {
		t.Errorf("expected provider name 'ai21', got %q", provider.Name())
	}
}

func TestMessageConstructors(t *testing.T) {
	if msg := SystemMessage("a"); msg.Role != RoleSystem || msg.Content != "a" {
		t.Errorf("unexpected system message: %+v", msg)
	}
	if msg := UserMessage("b"); msg.Role != RoleUser || msg.Content != "b" {
		t.Errorf("unexpected user message: %+v", msg)
	}
	if msg := AssistantMessage("c"); msg.Role != RoleAssistant || msg.Content != "c" {
		t.Errorf("unexpected assistant message: %+v", msg)
	}
}
