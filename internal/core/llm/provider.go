package llm

import (
	"context"
	"strings"
)

// Provider is the interface for LLM backends
type Provider interface {
	// GenerateText generates text from a prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "gemini", "anthropic", "openai")
	Name() string
}

// Config selects and configures a provider
type Config struct {
	Provider    string  // gemini, openai, anthropic, ollama, lmstudio, deepseek, groq
	APIKey      string  // bearer key; optional for local providers
	Model       string  // provider default when empty
	BaseURL     string  // override for OpenAI-compatible endpoints
	MaxTokens   int     // response cap, titles are short
	Temperature float32 // 0 uses the provider default
}

const (
	DefaultProvider  = "gemini"
	DefaultMaxTokens = 64
)

type providerDefaults struct {
	model   string
	baseURL string
	local   bool // no API key required
}

var defaults = map[string]providerDefaults{
	"gemini": {
		model:   "gemini-2.0-flash",
		baseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
	},
	"openai": {
		model: "gpt-4o-mini",
	},
	"anthropic": {
		model: "claude-3-5-haiku-latest",
	},
	"deepseek": {
		model:   "deepseek-chat",
		baseURL: "https://api.deepseek.com/v1",
	},
	"groq": {
		model:   "llama-3.1-8b-instant",
		baseURL: "https://api.groq.com/openai/v1",
	},
	"ollama": {
		model:   "llama3.1",
		baseURL: "http://localhost:11434/v1",
		local:   true,
	},
	"lmstudio": {
		model:   "local-model",
		baseURL: "http://localhost:1234/v1",
		local:   true,
	},
}

// Providers lists the supported provider names
func Providers() []string {
	return []string{"gemini", "openai", "anthropic", "deepseek", "groq", "ollama", "lmstudio"}
}

// NewProvider builds the provider named by cfg.Provider.
// A missing or placeholder key yields a *ConfigError.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = DefaultProvider
	}

	d, ok := defaults[name]
	if !ok {
		return nil, &ConfigError{
			Provider: name,
			Reason:   "unknown provider (supported: " + strings.Join(Providers(), ", ") + ")",
		}
	}

	if cfg.Model == "" {
		cfg.Model = d.model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = d.baseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	if IsPlaceholderKey(cfg.APIKey) {
		if !d.local {
			return nil, &ConfigError{Provider: name, Reason: "API key is not configured"}
		}
		// Local servers accept any key
		cfg.APIKey = name
	}

	if name == "anthropic" {
		return NewAnthropicProvider(cfg), nil
	}
	return NewOpenAIProvider(name, cfg), nil
}

var placeholderKeys = map[string]bool{
	"":                    true,
	"your_api_key":        true,
	"your_gemini_api_key": true,
	"your-api-key":        true,
	"changeme":            true,
}

// IsPlaceholderKey reports whether key is empty or an obvious template value
func IsPlaceholderKey(key string) bool {
	return placeholderKeys[strings.ToLower(strings.TrimSpace(key))]
}
