package common

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bobmcallan/stock-compare/internal/interfaces"
)

// API key names as stored in the KV store.
const (
	KeyOpenAI    = "openai_api_key"
	KeyAnthropic = "anthropic_api_key"
	KeyGemini    = "gemini_api_key"
	KeyEODHD     = "eodhd_api_key"
)

// KnownAPIKeys lists the key names that may be managed from the settings page.
var KnownAPIKeys = []string{KeyOpenAI, KeyAnthropic, KeyGemini, KeyEODHD}

// ErrAPIKeyNotFound is returned when no source holds a value for an API key.
var ErrAPIKeyNotFound = errors.New("api key not found")

var keyToEnvMapping = map[string][]string{
	KeyOpenAI:    {"OPENAI_API_KEY", "OPEN_AI_KEY", "COMPARE_OPENAI_API_KEY"},
	KeyAnthropic: {"ANTHROPIC_API_KEY", "COMPARE_CLAUDE_API_KEY"},
	KeyGemini:    {"GEMINI_API_KEY", "COMPARE_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	KeyEODHD:     {"EODHD_API_KEY", "COMPARE_EODHD_API_KEY"},
}

// IsKnownAPIKey reports whether name is one of KnownAPIKeys.
func IsKnownAPIKey(name string) bool {
	_, ok := keyToEnvMapping[name]
	return ok
}

// APIKeyLabels are the display names used on the settings page.
var APIKeyLabels = map[string]string{
	KeyOpenAI:    "OpenAI",
	KeyAnthropic: "Anthropic",
	KeyGemini:    "Gemini",
	KeyEODHD:     "EODHD",
}

// Where a resolved API key came from.
const (
	SourceEnv    = "env"
	SourceStored = "stored"
	SourceConfig = "config"
	SourceNone   = "none"
)

// LookupAPIKeyEnv returns the first non-empty environment variable mapped to name.
func LookupAPIKeyEnv(name string) (string, bool) {
	for _, envVarName := range keyToEnvMapping[name] {
		if envValue := os.Getenv(envVarName); envValue != "" {
			return envValue, true
		}
	}
	return "", false
}

// APIKeySource reports which source ResolveAPIKey would use for name, and the value.
func APIKeySource(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, fallback string) (string, string) {
	if v, ok := LookupAPIKeyEnv(name); ok {
		return SourceEnv, v
	}
	if kvStorage != nil {
		if v, err := kvStorage.Get(ctx, name); err == nil && v != "" {
			return SourceStored, v
		}
	}
	if fallback != "" {
		return SourceConfig, fallback
	}
	return SourceNone, ""
}

// ResolveAPIKey resolves an API key from environment, KV store, or fallback.
// Priority: environment > KV store (set from the settings page) > config value.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, fallback string) (string, error) {
	if envValue, ok := LookupAPIKeyEnv(name); ok {
		return envValue, nil
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("%w: '%s' not set in environment, KV store, or config", ErrAPIKeyNotFound, name)
}

// maxMaskShown caps how many characters MaskAPIKey reveals at each end.
const maxMaskShown = 4

// MaskAPIKey returns a display-safe preview of a key, e.g. "sk-p...9xYz".
// At most an eighth of the key shows at each end, so short keys reveal
// less and keys of 8 bytes or fewer are hidden entirely.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	n := min(len(key)/8, maxMaskShown)
	if len(key) <= 8 || n < 1 {
		return "****"
	}
	return key[:n] + "..." + key[len(key)-n:]
}
