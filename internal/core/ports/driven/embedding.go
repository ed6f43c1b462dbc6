// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService turns chunk text into vectors. It is optional: without
// one, chunks are indexed with no vector and ranking uses token overlap only.
//
// Batching, truncation and pacing live in the embedding coordinator, so
// implementations make one provider call per EmbedBatch and do not retry.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns exactly one vector per input, in input order.
	// A provider-side 429 is reported as domain.ErrRateLimited.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 when the model's size is not
	// known in advance.
	Dimensions() int

	ModelName() string

	// Ping makes the cheapest request the provider supports.
	Ping(ctx context.Context) error

	Close() error
}
