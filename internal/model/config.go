package model

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete aivis configuration
type Config struct {
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Seed      SeedConfig      `mapstructure:"seed" yaml:"seed"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Driver         string `mapstructure:"driver" yaml:"driver"` // memory, sqlite, postgres
	SQLitePath     string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresURL    string `mapstructure:"postgres_url" yaml:"postgres_url"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start" yaml:"migrate_on_start"`
}

// CacheConfig configures the report cache
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"` // Empty keeps the cache in memory only
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
}

// GeneratorConfig holds the synthetic observation parameters.
// The two citation bounds differ on purpose: on-demand runs and historical seeding
// have always used different ranges.
type GeneratorConfig struct {
	PresenceProbability  float64 `mapstructure:"presence_probability" yaml:"presence_probability"`
	OnDemandMaxCitations int     `mapstructure:"on_demand_max_citations" yaml:"on_demand_max_citations"`
	SeedMaxCitations     int     `mapstructure:"seed_max_citations" yaml:"seed_max_citations"`
	RandomSeed           uint64  `mapstructure:"random_seed" yaml:"random_seed"` // 0 seeds from the clock
}

// ProbeConfig selects between simulated and live engine probing
type ProbeConfig struct {
	Mode              string                  `mapstructure:"mode" yaml:"mode"` // simulated, live
	Workers           int                     `mapstructure:"workers" yaml:"workers"`
	RequestsPerSecond float64                 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int                     `mapstructure:"burst" yaml:"burst"`
	Engines           map[string]EngineConfig `mapstructure:"engines" yaml:"engines"`
}

// EngineConfig binds one engine to an LLM provider for live probing
type EngineConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"` // openai, anthropic, ollama
	Model     string `mapstructure:"model" yaml:"model"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKeyEnv string `mapstructure:"api_key_env" yaml:"api_key_env,omitempty"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// RequestsPerSecond overrides probe.requests_per_second for this engine
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second,omitempty"`
	Burst             int     `mapstructure:"burst" yaml:"burst,omitempty"`
}

// ServerConfig configures the HTTP API and the scheduler
type ServerConfig struct {
	Address         string `mapstructure:"address" yaml:"address"`
	Schedule        string `mapstructure:"schedule" yaml:"schedule"` // cron expression or @daily/@hourly
	ScheduleEnabled bool   `mapstructure:"schedule_enabled" yaml:"schedule_enabled"`
}

// SeedConfig sets the historical seeding defaults
type SeedConfig struct {
	Keywords int `mapstructure:"keywords" yaml:"keywords"`
	Days     int `mapstructure:"days" yaml:"days"`
}

// HTTPConfig configures outbound HTTP for the site audit
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy    string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

const (
	ProbeModeSimulated = "simulated"
	ProbeModeLive      = "live"

	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:         StoreDriverSQLite,
			SQLitePath:     "aivis.db",
			MigrateOnStart: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Generator: GeneratorConfig{
			PresenceProbability:  0.6,
			OnDemandMaxCitations: 8,
			SeedMaxCitations:     4,
		},
		Probe: ProbeConfig{
			Mode:              ProbeModeSimulated,
			Workers:           4,
			RequestsPerSecond: 2,
			Burst:             2,
			Engines: map[string]EngineConfig{
				"chatgpt":    {Provider: "openai", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", Timeout: 30, MaxTokens: 600},
				"gemini":     {Provider: "openai", Model: "gemini-2.0-flash", BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai", APIKeyEnv: "GEMINI_API_KEY", Timeout: 30, MaxTokens: 600},
				"claude":     {Provider: "anthropic", Model: "claude-3-5-haiku-20241022", APIKeyEnv: "ANTHROPIC_API_KEY", Timeout: 30, MaxTokens: 600},
				"perplexity": {Provider: "openai", Model: "sonar", BaseURL: "https://api.perplexity.ai", APIKeyEnv: "PERPLEXITY_API_KEY", Timeout: 30, MaxTokens: 600},
			},
		},
		Server: ServerConfig{
			Address:  ":8080",
			Schedule: "@daily",
		},
		Seed: SeedConfig{
			Keywords: 12,
			Days:     14,
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "aivis/0.1 (+https://github.com/ppiankov/aivis)",
			MaxBodyBytes: 2_000_000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMemory, StoreDriverSQLite, StoreDriverPostgres:
	default:
		return fmt.Errorf("store.driver: unknown driver %q (memory, sqlite, postgres)", c.Store.Driver)
	}
	if c.Store.Driver == StoreDriverPostgres && strings.TrimSpace(c.Store.PostgresURL) == "" {
		return fmt.Errorf("store.postgres_url required for the postgres driver")
	}
	if c.Store.Driver == StoreDriverSQLite && strings.TrimSpace(c.Store.SQLitePath) == "" {
		return fmt.Errorf("store.sqlite_path required for the sqlite driver")
	}

	g := c.Generator
	if g.PresenceProbability < 0 || g.PresenceProbability > 1 {
		return fmt.Errorf("generator.presence_probability must be in [0,1], got %v", g.PresenceProbability)
	}
	if g.OnDemandMaxCitations < 0 || g.SeedMaxCitations < 0 {
		return fmt.Errorf("generator citation bounds must be >= 0")
	}

	for key, engineCfg := range c.Probe.Engines {
		if _, err := ParseEngine(key); err != nil {
			return fmt.Errorf("probe.engines.%s: %w", key, err)
		}
		if engineCfg.RequestsPerSecond < 0 || engineCfg.Burst < 0 {
			return fmt.Errorf("probe.engines.%s: requests_per_second and burst must be >= 0", key)
		}
	}

	switch c.Probe.Mode {
	case ProbeModeSimulated:
	case ProbeModeLive:
		for _, e := range Engines {
			if _, ok := c.Probe.Engines[strings.ToLower(string(e))]; !ok {
				return fmt.Errorf("probe.engines.%s required in live mode", strings.ToLower(string(e)))
			}
		}
	default:
		return fmt.Errorf("probe.mode: unknown mode %q (simulated, live)", c.Probe.Mode)
	}

	if c.Seed.Keywords < 0 || c.Seed.Days < 0 {
		return fmt.Errorf("seed.keywords and seed.days must be >= 0")
	}
	return nil
}
