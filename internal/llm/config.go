package llm

import (
	"fmt"
	"time"
)

// Provider families.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects and configures one provider. An empty Provider disables
// LLM features. API keys are read from the environment only.
type Config struct {
	Provider string        `yaml:"provider" validate:"omitempty,oneof=anthropic openai openrouter gemini mock"`
	Model    string        `yaml:"model,omitempty"`
	BaseURL  string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout,omitempty" validate:"gte=0"`
	Retry    RetryConfig   `yaml:"retry,omitempty"`

	APIKey string `yaml:"-"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts,omitempty" validate:"gte=0,lte=10"`
	InitialWait time.Duration `yaml:"initial_wait,omitempty"`
	MaxWait     time.Duration `yaml:"max_wait,omitempty"`
	Multiplier  float64       `yaml:"multiplier,omitempty" validate:"gte=0"`
}

// defaultModels are used when Model is empty.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "google/gemini-2.0-flash-exp",
	ProviderGemini:     "gemini-flash",
}

// keyVars lists the environment variables consulted for each provider's
// API key, most specific first.
var keyVars = map[string][]string{
	ProviderAnthropic:  {"ATRISK_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
	ProviderOpenAI:     {"ATRISK_OPENAI_API_KEY", "OPENAI_API_KEY"},
	ProviderOpenRouter: {"ATRISK_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"},
	ProviderGemini:     {"ATRISK_GEMINI_API_KEY", "GEMINI_API_KEY"},
}

// DefaultConfig returns a disabled Config with retry defaults.
func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool { return c.Provider != "" }

// ApplyEnv overlays ATRISK_LLM_* variables and resolves the API key.
// When no provider is configured, the first provider whose standard key
// variable is set is selected (Gemini, OpenAI, Anthropic, OpenRouter).
func (c *Config) ApplyEnv(getenv func(string) string) {
	if p := getenv("ATRISK_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}
	if m := getenv("ATRISK_LLM_MODEL"); m != "" {
		c.Model = m
	}
	if u := getenv("ATRISK_LLM_BASE_URL"); u != "" {
		c.BaseURL = u
	}

	if c.Provider == "" {
		for _, p := range []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter} {
			if lookupKey(p, getenv) != "" {
				c.Provider = p
				break
			}
		}
	}
	if c.APIKey == "" {
		c.APIKey = lookupKey(c.Provider, getenv)
	}
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	if c.Provider == ProviderOpenRouter && c.BaseURL == "" {
		c.BaseURL = defaultOpenRouterBaseURL
	}
}

func lookupKey(provider string, getenv func(string) string) string {
	for _, v := range keyVars[provider] {
		if k := getenv(v); k != "" {
			return k
		}
	}
	return ""
}

// Validate checks that an enabled provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "", ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%s is required for the %s provider", keyVars[c.Provider][0], c.Provider)
		}
		return nil
	}
	return fmt.Errorf("unknown LLM provider: %q", c.Provider)
}
