package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
)

// ProviderFactory builds providers on demand. Keys are resolved on every
// call so keys saved from the settings page apply without a restart.
type ProviderFactory struct {
	cfg    config.LLMConfig
	kv     interfaces.KeyValueStorage
	logger *common.Logger
}

// NewProviderFactory creates a provider factory.
func NewProviderFactory(cfg config.LLMConfig, kv interfaces.KeyValueStorage, logger *common.Logger) *ProviderFactory {
	return &ProviderFactory{cfg: cfg, kv: kv, logger: logger}
}

// DetectProvider determines the provider from a model string.
// "claude-…", "anthropic/…" → Claude; "gemini-…", "google/…" → Gemini;
// "gpt-…", "o1…", "openai/…" → OpenAI; empty or unknown → configured default.
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	m := strings.ToLower(model)

	switch {
	case strings.HasPrefix(m, "claude/"), strings.HasPrefix(m, "anthropic/"), strings.HasPrefix(m, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(m, "gemini/"), strings.HasPrefix(m, "google/"), strings.HasPrefix(m, "gemini-"):
		return ProviderGemini
	case strings.HasPrefix(m, "openai/"), strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		return ProviderOpenAI
	}

	switch ProviderType(strings.ToLower(f.cfg.DefaultProvider)) {
	case ProviderClaude:
		return ProviderClaude
	case ProviderGemini:
		return ProviderGemini
	default:
		return ProviderOpenAI
	}
}

// NormalizeModel removes a provider prefix from a model name.
func NormalizeModel(model string) string {
	for _, prefix := range []string{"openai/", "claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// DefaultModel returns the configured model for a provider.
func (f *ProviderFactory) DefaultModel(p ProviderType) string {
	switch p {
	case ProviderClaude:
		return f.cfg.Claude.Model
	case ProviderGemini:
		return f.cfg.Gemini.Model
	default:
		return f.cfg.OpenAI.Model
	}
}

// Provider returns a provider for model, or for the configured default when model is empty.
func (f *ProviderFactory) Provider(ctx context.Context, model string) (Provider, error) {
	kind := f.DetectProvider(model)
	model = NormalizeModel(model)
	if model == "" {
		model = f.DefaultModel(kind)
	}

	if f.logger != nil {
		f.logger.Debug().
			Str("provider", string(kind)).
			Str("model", model).
			Msg("Creating LLM provider")
	}

	switch kind {
	case ProviderClaude:
		key, err := f.resolveKey(ctx, common.KeyAnthropic, f.cfg.Claude.APIKey)
		if err != nil {
			return nil, err
		}
		return NewClaudeProvider(key, model, f.cfg.Claude.MaxTokens), nil

	case ProviderGemini:
		key, err := f.resolveKey(ctx, common.KeyGemini, f.cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiProvider(ctx, key, model, "")

	default:
		key, err := f.resolveKey(ctx, common.KeyOpenAI, f.cfg.OpenAI.APIKey)
		if err != nil {
			return nil, err
		}
		return NewOpenAIProvider(key, model, f.cfg.OpenAI.BaseURL), nil
	}
}

func (f *ProviderFactory) resolveKey(ctx context.Context, name, fallback string) (string, error) {
	key, err := common.ResolveAPIKey(ctx, f.kv, name, fallback)
	if errors.Is(err, common.ErrAPIKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrMissingAPIKey, name)
	}
	return key, err
}
