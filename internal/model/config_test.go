package model

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Generator.OnDemandMaxCitations != 8 || cfg.Generator.SeedMaxCitations != 4 {
		t.Errorf("expected citation bounds 8/4, got %d/%d",
			cfg.Generator.OnDemandMaxCitations, cfg.Generator.SeedMaxCitations)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"postgres without url", func(c *Config) { c.Store.Driver = StoreDriverPostgres }, "postgres_url"},
		{"probability above one", func(c *Config) { c.Generator.PresenceProbability = 1.5 }, "presence_probability"},
		{"negative citations", func(c *Config) { c.Generator.SeedMaxCitations = -1 }, "citation bounds"},
		{"unknown probe mode", func(c *Config) { c.Probe.Mode = "psychic" }, "probe.mode"},
		{"live without engine", func(c *Config) {
			c.Probe.Mode = ProbeModeLive
			delete(c.Probe.Engines, "claude")
		}, "probe.engines.claude"},
		{"unknown engine key", func(c *Config) {
			c.Probe.Engines["bard"] = EngineConfig{Provider: "openai"}
		}, "probe.engines.bard: unknown engine"},
		{"negative engine rate", func(c *Config) {
			e := c.Probe.Engines["gemini"]
			e.RequestsPerSecond = -1
			c.Probe.Engines["gemini"] = e
		}, "probe.engines.gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
