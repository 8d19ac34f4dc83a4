package llm

import (
	"context"
	"fmt"
)

// Provider is an answer engine that can be asked a question in natural language.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Ask sends a single question and returns the engine's free-text answer
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// AskRequest is one question put to an answer engine
type AskRequest struct {
	// Question is the user-facing prompt, usually built from a keyword
	Question string

	// System overrides DefaultSystemPrompt when set
	System string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// AskResponse is the engine's answer
type AskResponse struct {
	Answer     string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	APIKey string

	// BaseURL for custom endpoints (OpenAI-compatible gateways, Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 600,
	}
}

// DefaultSystemPrompt asks the engine to answer like it would for an end user,
// so brand mentions and links show up the way a searcher would see them.
const DefaultSystemPrompt = "You are a helpful search assistant. Answer the user's question directly, " +
	"recommend specific products or services where relevant and include source links."

// BuildQuestion turns a tracked keyword into the question posed to every engine
func BuildQuestion(keyword string) string {
	return fmt.Sprintf("What are the best options for %s? Name specific companies or websites and cite your sources.", keyword)
}

func systemPrompt(req AskRequest) string {
	if req.System != "" {
		return req.System
	}
	return DefaultSystemPrompt
}

func pickModel(req AskRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

func pickMaxTokens(req AskRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 600
}
