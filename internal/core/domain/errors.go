package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown backend, provider or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrEmptyInput indicates text was blank after whitespace normalisation.
	// Fatal to that document's ingestion and never retried.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingProvider indicates an embedding batch failed.
	// Recovered locally: the batch's items are left without vectors.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrRateLimited indicates a provider rejected a call for exceeding its quota.
	// Providers wrap it so callers can back off.
	ErrRateLimited = errors.New("rate limited")

	// ErrIndexWrite indicates a single chunk could not be written to the index.
	// Recovered locally: the chunk is counted as failed.
	ErrIndexWrite = errors.New("index write failed")

	// Retrieval Errors.

	// ErrNoDocuments indicates a partner or session has no chunks at all.
	// Distinct from finding nothing relevant, which is not an error.
	ErrNoDocuments = errors.New("no documents")

	// ErrCancelled indicates the operation was cancelled or timed out.
	ErrCancelled = errors.New("cancelled")

	// Service Availability Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Analysis is disabled; context assembly still works.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Chunks are indexed without vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the chunk index could not be opened.
	ErrIndexUnavailable = errors.New("chunk index unavailable")
)
