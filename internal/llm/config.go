package llm

import (
	"fmt"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects and configures one provider.
type Config struct {
	Provider string

	Anthropic  Credentials
	OpenAI     Credentials
	OpenRouter Credentials
	Gemini     Credentials

	Retry RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// Credentials configures one provider. Model may be an alias from
// modelAliases or a provider model id.
type Credentials struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig selects Anthropic; a key still has to be supplied.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  Credentials{Model: "claude-haiku"},
		OpenAI:     Credentials{Model: "gpt-4o-mini"},
		OpenRouter: Credentials{Model: "google/gemini-2.0-flash-001", BaseURL: defaultOpenRouterBaseURL},
		Gemini:     Credentials{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 45 * time.Second,
	}
}

// Selected returns the credentials of the configured provider.
func (c Config) Selected() Credentials {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic
	case ProviderOpenAI:
		return c.OpenAI
	case ProviderOpenRouter:
		return c.OpenRouter
	case ProviderGemini:
		return c.Gemini
	}
	return Credentials{}
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		if c.Selected().APIKey == "" {
			return fmt.Errorf("llm: %s provider needs an API key", c.Provider)
		}
	default:
		return fmt.Errorf("llm: unknown provider %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm: retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// modelAliases maps short names to provider model ids per provider.
var modelAliases = map[string]map[string]string{
	ProviderAnthropic: {
		"claude-haiku":  "claude-haiku-4-5-20251001",
		"claude-sonnet": "claude-sonnet-4-20250514",
	},
	ProviderGemini: {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.5-pro",
	},
}

// resolveModel expands an alias; unknown names are passed through.
func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}
