package gateway

import (
	"fmt"
	"os"
	"time"

	"promptforge/internal/config"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	// ProviderLocal is an OpenAI-compatible server without authentication
	// (Ollama, llama.cpp, vLLM). This is the default backend.
	ProviderLocal Provider = "local"
)

// NewClientFromConfig creates a client from the loaded LLM configuration.
// LLM_BASE_URL and LLM_MODEL environment variables override the config,
// matching the container-vs-host base URL switch of the deployment scripts.
func NewClientFromConfig(cfg config.LLMConfig) (Client, error) {
	baseURL := cfg.BaseURL
	if env := os.Getenv("LLM_BASE_URL"); env != "" {
		baseURL = env
	}
	model := cfg.Model
	if env := os.Getenv("LLM_MODEL"); env != "" {
		model = env
	}

	timeout := 10 * time.Minute
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm.timeout %q: %w", cfg.Timeout, err)
		}
		timeout = d
	}

	provider := Provider(cfg.Provider)
	if provider == "" {
		provider = detectProvider(cfg)
	}

	switch provider {
	case ProviderAnthropic:
		acfg := DefaultAnthropicConfig(resolveKey(cfg.APIKey, "ANTHROPIC_API_KEY"))
		if baseURL != "" {
			acfg.BaseURL = baseURL
		}
		if model != "" {
			acfg.Model = model
		}
		acfg.Timeout = timeout
		return NewAnthropicClientWithConfig(acfg), nil

	case ProviderOpenAI:
		ocfg := DefaultOpenAIConfig(resolveKey(cfg.APIKey, "OPENAI_API_KEY"))
		ocfg.BaseURL = "https://api.openai.com/v1"
		if baseURL != "" {
			ocfg.BaseURL = baseURL
		}
		if model != "" {
			ocfg.Model = model
		}
		ocfg.Timeout = timeout
		return NewOpenAIClientWithConfig(ocfg), nil

	case ProviderLocal:
		ocfg := DefaultOpenAIConfig(cfg.APIKey)
		if baseURL != "" {
			ocfg.BaseURL = baseURL
		}
		if model != "" {
			ocfg.Model = model
		}
		ocfg.Timeout = timeout
		return NewOpenAIClientWithConfig(ocfg), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: openai, anthropic, local)", provider)
	}
}

// detectProvider picks a backend when the config names none.
// Priority: explicit API key in config, then ANTHROPIC_API_KEY,
// then OPENAI_API_KEY, then the local default.
func detectProvider(cfg config.LLMConfig) Provider {
	if cfg.APIKey != "" {
		return ProviderOpenAI
	}
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return ProviderAnthropic
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}

func resolveKey(configured, envVar string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(envVar)
}
