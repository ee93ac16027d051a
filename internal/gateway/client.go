// Package gateway provides LLM provider clients for the refinement pipeline.
// The pipeline only depends on the Client contract: one blocking call in,
// one content string out. Providers are expected to return JSON-encoded
// content when a response format is requested; parsing that JSON is the
// caller's concern, not the gateway's.
package gateway

import (
	"context"
	"errors"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Invoke sends a user prompt with a system prompt and per-call options,
	// blocking until the provider returns. There is no automatic retry: any
	// failure surfaces immediately so the pipeline can abort the run.
	Invoke(ctx context.Context, userPrompt, systemPrompt string, opts Options) (string, error)

	// Model returns the model currently used for completions.
	Model() string

	// SetModel changes the model used for completions.
	SetModel(model string)
}

// ErrTransport marks connection-level failures (refused, DNS, timeout) as
// distinct from API errors, so the CLI can print a remediation hint about
// the local model server instead of a raw stack of wrapped errors.
var ErrTransport = errors.New("gateway: transport failure")

// Options carries per-call overrides. The zero value asks for a plain text
// completion with the client's defaults.
type Options struct {
	// Temperature overrides the sampling temperature when > 0.
	Temperature float64

	// MaxTokens caps the completion length when > 0.
	MaxTokens int

	// ReasoningEffort is passed through to providers that accept it
	// ("low", "medium", "high"). Ignored elsewhere.
	ReasoningEffort string

	// ResponseFormat requests structured JSON output.
	ResponseFormat *ResponseFormat
}

// ResponseFormat mirrors the OpenAI response_format object.
type ResponseFormat struct {
	// Type is "json_object" or "json_schema".
	Type string

	// Name and Schema are used when Type is "json_schema". Schema holds a
	// JSON Schema document; it is marshalled verbatim into the request.
	Name   string
	Schema map[string]interface{}
}

// JSONObject returns a response format requesting any JSON object.
func JSONObject() *ResponseFormat {
	return &ResponseFormat{Type: "json_object"}
}

// StrictSchema returns a strict json_schema response format.
func StrictSchema(name string, schema map[string]interface{}) *ResponseFormat {
	return &ResponseFormat{Type: "json_schema", Name: name, Schema: schema}
}
