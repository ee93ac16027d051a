package gateway

import (
	"testing"

	"promptforge/internal/config"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "")
}

func TestNewClientFromConfigLocalDefault(t *testing.T) {
	clearProviderEnv(t)

	c, err := NewClientFromConfig(config.LLMConfig{})
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	oc, ok := c.(*OpenAIClient)
	if !ok {
		t.Fatalf("client type = %T, want *OpenAIClient", c)
	}
	if oc.baseURL != "http://localhost:11434/v1" {
		t.Errorf("baseURL = %q", oc.baseURL)
	}
}

func TestNewClientFromConfigAnthropicByEnv(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	c, err := NewClientFromConfig(config.LLMConfig{})
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	ac, ok := c.(*AnthropicClient)
	if !ok {
		t.Fatalf("client type = %T, want *AnthropicClient", c)
	}
	if ac.apiKey != "sk-ant-test" {
		t.Errorf("apiKey = %q", ac.apiKey)
	}
}

func TestNewClientFromConfigExplicitProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	// An explicit provider beats key-based detection.
	c, err := NewClientFromConfig(config.LLMConfig{Provider: "local", Model: "llama3"})
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("client type = %T, want *OpenAIClient", c)
	}
	if c.Model() != "llama3" {
		t.Errorf("model = %q", c.Model())
	}
}

func TestNewClientFromConfigEnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_BASE_URL", "http://model-box:8000/v1")
	t.Setenv("LLM_MODEL", "qwen3:30b")

	c, err := NewClientFromConfig(config.LLMConfig{Provider: "local", BaseURL: "http://ignored:1/v1", Model: "ignored"})
	if err != nil {
		t.Fatalf("NewClientFromConfig: %v", err)
	}
	oc := c.(*OpenAIClient)
	if oc.baseURL != "http://model-box:8000/v1" {
		t.Errorf("baseURL = %q, want env override", oc.baseURL)
	}
	if oc.model != "qwen3:30b" {
		t.Errorf("model = %q, want env override", oc.model)
	}
}

func TestNewClientFromConfigBadTimeout(t *testing.T) {
	clearProviderEnv(t)
	if _, err := NewClientFromConfig(config.LLMConfig{Provider: "local", Timeout: "soon"}); err == nil {
		t.Fatal("expected error for bad timeout")
	}
}

func TestNewClientFromConfigUnknownProvider(t *testing.T) {
	clearProviderEnv(t)
	if _, err := NewClientFromConfig(config.LLMConfig{Provider: "bedrock"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
