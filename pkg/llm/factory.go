package llm

import (
	"fmt"
	"time"

	"pmbot/pkg/config"
	"pmbot/pkg/metrics"
)

const defaultRequestTimeout = 60 * time.Second

// Factory creates completion clients with the metrics and timeout middleware
// applied.
type Factory struct {
	cfg      config.LLMConfig
	recorder metrics.Recorder
	timeout  time.Duration
}

// NewFactory creates a client factory for the configured model.
func NewFactory(cfg config.LLMConfig, recorder metrics.Recorder) *Factory {
	return &Factory{cfg: cfg, recorder: recorder, timeout: defaultRequestTimeout}
}

// CreateClient builds a client for the configured model, resolving the
// provider and its API key, tagged with the calling component for metrics.
func (f *Factory) CreateClient(component string) (Client, error) {
	provider, err := config.GetModelProvider(f.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", f.cfg.Model, err)
	}

	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	var raw Client
	switch provider {
	case config.ProviderOpenAI:
		raw = NewOpenAIClient(apiKey, f.cfg.Model)
	case config.ProviderAnthropic:
		raw = NewAnthropicClient(apiKey, f.cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", provider)
	}

	return Chain(raw,
		MetricsMiddleware(f.recorder, component),
		TimeoutMiddleware(f.timeout),
	), nil
}
