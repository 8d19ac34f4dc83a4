package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/aivis/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (engine disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromEngine converts a configured engine entry to llm.Config.
// The API key is read from the environment variable the entry names.
func ConfigFromEngine(engine model.EngineConfig, httpCfg model.HTTPConfig) Config {
	cfg := Config{
		Provider:   engine.Provider,
		Model:      engine.Model,
		BaseURL:    engine.BaseURL,
		Timeout:    engine.Timeout,
		MaxTokens:  engine.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
	}
	if engine.APIKeyEnv != "" {
		cfg.APIKey = os.Getenv(engine.APIKeyEnv)
	}
	return cfg
}

// NewEngineProviders builds one provider per tracked engine from the probe config
func NewEngineProviders(cfg *model.Config) (map[model.Engine]Provider, error) {
	providers := make(map[model.Engine]Provider, len(model.Engines))
	for _, engine := range model.Engines {
		key := strings.ToLower(engine.String())
		engineCfg, ok := cfg.Probe.Engines[key]
		if !ok {
			return nil, fmt.Errorf("engine %s: not configured (probe.engines.%s)", engine, key)
		}
		p, err := NewProvider(ConfigFromEngine(engineCfg, cfg.HTTP))
		if err != nil {
			return nil, fmt.Errorf("engine %s: %w", engine, err)
		}
		if p == nil {
			return nil, fmt.Errorf("engine %s: provider is empty", engine)
		}
		providers[engine] = p
	}
	return providers, nil
}
