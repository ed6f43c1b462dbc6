// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService answers questions over an assembled context.
// This is an optional service - when nil, analysis is disabled and callers
// receive the assembled context only.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Analyse answers the question using only the supplied context.
	Analyse(ctx context.Context, req AnalysisRequest) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// AnalysisRequest is the input to an LLM analysis call.
type AnalysisRequest struct {
	// Context is the formatted document context.
	Context string

	// Question is the user's question.
	Question string

	// MaxTokens is the maximum number of tokens to generate. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
