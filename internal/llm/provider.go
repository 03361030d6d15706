// Package llm sends the comparison prompt to a hosted language model.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ProviderType names an LLM backend.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderClaude ProviderType = "claude"
	ProviderGemini ProviderType = "gemini"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one provider-agnostic chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completion is a provider's reply.
type Completion struct {
	Text     string       `json:"text"`
	Provider ProviderType `json:"provider"`
	Model    string       `json:"model"`
}

// Provider performs a single chat completion.
type Provider interface {
	Name() ProviderType
	Model() string
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

var (
	// ErrMissingAPIKey is returned when no key is configured for the selected provider.
	ErrMissingAPIKey = errors.New("LLM API key not configured")

	// ErrEmptyResponse is returned when the model replies without text.
	ErrEmptyResponse = errors.New("no response generated by the model")
)

// splitSystem lifts system messages out of the conversation, joined in order.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
