package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider completes chats through the Anthropic Messages API.
type ClaudeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

var _ Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude provider. The SDK's automatic retries
// are disabled so each analysis is exactly one request.
func NewClaudeProvider(apiKey, model string, maxTokens int, opts ...option.RequestOption) *ClaudeProvider {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	return &ClaudeProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *ClaudeProvider) Name() ProviderType { return ProviderClaude }
func (p *ClaudeProvider) Model() string      { return p.model }

// Complete sends messages as one Messages API request.
func (p *ClaudeProvider) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	systemText, rest := splitSystem(messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages:  convertMessagesToClaude(rest),
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("claude %s: %w", p.model, ErrEmptyResponse)
	}

	model := string(resp.Model)
	if model == "" {
		model = p.model
	}
	return &Completion{Text: text.String(), Provider: ProviderClaude, Model: model}, nil
}

func convertMessagesToClaude(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	return out
}
