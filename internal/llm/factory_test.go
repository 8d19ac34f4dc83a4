package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/aivis/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false, false},
		{"anthropic alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false, false},
		{"ollama", Config{Provider: "ollama", Model: "m"}, "ollama", false, false},
		{"disabled", Config{}, "", true, false},
		{"unknown", Config{Provider: "bard"}, "", true, true},
		{"missing key", Config{Provider: "openai"}, "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantNil {
				if p != nil {
					t.Errorf("expected nil provider, got %s", p.Name())
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.wantName)
			}
		})
	}
}

func TestConfigFromEngine_ReadsKeyFromEnv(t *testing.T) {
	t.Setenv("AIVIS_TEST_KEY", "secret")

	cfg := ConfigFromEngine(model.EngineConfig{
		Provider:  "openai",
		Model:     "sonar",
		BaseURL:   "https://api.perplexity.ai",
		APIKeyEnv: "AIVIS_TEST_KEY",
		Timeout:   20,
		MaxTokens: 300,
	}, model.HTTPConfig{HTTPSProxy: "http://proxy:3128"})

	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", cfg.APIKey)
	}
	if cfg.Model != "sonar" || cfg.Timeout != 20 || cfg.MaxTokens != 300 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("HTTPSProxy = %q", cfg.HTTPSProxy)
	}
}

func TestNewEngineProviders_MissingEngine(t *testing.T) {
	cfg := model.DefaultConfig()
	delete(cfg.Probe.Engines, "gemini")

	_, err := NewEngineProviders(cfg)
	if err == nil || !strings.Contains(err.Error(), "Gemini") {
		t.Fatalf("expected Gemini error, got %v", err)
	}
}

func TestNewEngineProviders_AllConfigured(t *testing.T) {
	cfg := model.DefaultConfig()
	for key, engine := range cfg.Probe.Engines {
		engine.APIKeyEnv = "AIVIS_TEST_ENGINE_KEY"
		cfg.Probe.Engines[key] = engine
	}
	t.Setenv("AIVIS_TEST_ENGINE_KEY", "k")

	providers, err := NewEngineProviders(cfg)
	if err != nil {
		t.Fatalf("NewEngineProviders: %v", err)
	}
	if len(providers) != len(model.Engines) {
		t.Errorf("got %d providers, want %d", len(providers), len(model.Engines))
	}
	if providers[model.EngineClaude].Name() != "anthropic" {
		t.Errorf("Claude provider = %s, want anthropic", providers[model.EngineClaude].Name())
	}
}

func TestBuildQuestion(t *testing.T) {
	q := BuildQuestion("crm software")
	if !strings.Contains(q, "crm software") {
		t.Errorf("question %q does not mention the keyword", q)
	}
}
