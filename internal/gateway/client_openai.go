package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"promptforge/internal/logging"
)

// OpenAIClient implements Client for any OpenAI-compatible endpoint:
// api.openai.com, or a local server such as Ollama at
// http://localhost:11434/v1. Local servers accept an empty API key.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

// OpenAIConfig holds configuration for the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults for a local model server.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "http://localhost:11434/v1",
		Model:   "gpt-4o-mini",
		Timeout: 10 * time.Minute, // local models with long prompts are slow
	}
}

// NewOpenAIClient creates a client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Invoke sends a prompt pair and returns the completion content.
func (c *OpenAIClient) Invoke(ctx context.Context, userPrompt, systemPrompt string, opts Options) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.GatewayDebug("[OpenAI] Invoke: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	// Rate limiting: keep at least 100ms between requests.
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	reqBody := chatRequest{
		Model:           c.model,
		Messages:        messages,
		MaxTokens:       opts.MaxTokens,
		Temperature:     opts.Temperature,
		ReasoningEffort: opts.ReasoningEffort,
		ResponseFormat:  opts.ResponseFormat.wire(),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.GatewayError("[OpenAI] Invoke: transport failure after %v: %v", time.Since(startTime), err)
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Some local servers reject response_format; retry once without it
		// rather than failing the whole run over a formatting hint.
		if reqBody.ResponseFormat != nil && resp.StatusCode == http.StatusBadRequest &&
			(strings.Contains(string(body), "response_format") || strings.Contains(string(body), "json_schema")) {
			logging.GatewayWarn("[OpenAI] Invoke: server rejected response_format, retrying without it")
			retryOpts := opts
			retryOpts.ResponseFormat = nil
			return c.Invoke(ctx, userPrompt, systemPrompt, retryOpts)
		}
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		logging.GatewayError("[OpenAI] Invoke: no completion returned")
		return "", fmt.Errorf("no completion returned")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	logging.Gateway("[OpenAI] Invoke: completed in %v tokens_in=%d tokens_out=%d response_len=%d",
		time.Since(startTime), chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens, len(content))
	return content, nil
}

// SetModel changes the model used for completions.
func (c *OpenAIClient) SetModel(model string) {
	c.model = model
}

// Model returns the current model.
func (c *OpenAIClient) Model() string {
	return c.model
}
