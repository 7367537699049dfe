package schemas

import (
	"context"
)

// -- LLM Schemas & Interface --

// GenerationOptions provides detailed parameters to control the text generation
// process of the LLM, such as creativity (temperature) and output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	MaxTokens       int     `json:"max_tokens"`        // Upper bound on generated tokens; zero means the client default.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, asks the model to output valid JSON.
}

// GenerationRequest encapsulates a complete request to the LLM: the persona
// (system prompt), the task (user prompt) and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient defines a standard interface for interacting with a text
// completion provider, abstracting the specifics of the underlying SDK.
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client.
	Close() error
}
