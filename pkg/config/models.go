package config

import (
	"fmt"
	"strings"
)

// ModelInfo describes a known completion model.
type ModelInfo struct {
	Provider        string
	MaxOutputTokens int
}

// KnownModels maps model names to their provider and output limits.
//
//nolint:gochecknoglobals // Static registry
var KnownModels = map[string]ModelInfo{
	ModelGPT4oMini:    {Provider: ProviderOpenAI, MaxOutputTokens: 16384},
	ModelGPT4o:        {Provider: ProviderOpenAI, MaxOutputTokens: 16384},
	ModelClaudeSonnet: {Provider: ProviderAnthropic, MaxOutputTokens: 64000},
	ModelClaudeHaiku:  {Provider: ProviderAnthropic, MaxOutputTokens: 8192},
}

// GetModelProvider resolves a model name to its provider. Unknown models fall
// back on name prefixes so newly released models keep working.
func GetModelProvider(model string) (string, error) {
	if info, ok := KnownModels[model]; ok {
		return info.Provider, nil
	}
	switch {
	case strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic, nil
	}
	return "", fmt.Errorf("cannot determine provider for model %q", model)
}

// Environment variable names for provider API keys.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
)

// GetAPIKey returns the API key for a provider, checking the decrypted
// secrets file first and falling back to environment variables.
func GetAPIKey(provider string) (string, error) {
	var envName string
	switch provider {
	case ProviderOpenAI:
		envName = EnvOpenAIKey
	case ProviderAnthropic:
		envName = EnvAnthropicKey
	case ProviderGemini:
		envName = EnvGeminiKey
	case ProviderOllama:
		return "", nil // local runtime, no key
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	key, err := GetSecret(envName)
	if err != nil {
		return "", fmt.Errorf("no API key for provider %s: %w", provider, err)
	}
	return key, nil
}
