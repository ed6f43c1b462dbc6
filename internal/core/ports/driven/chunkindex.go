package driven

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// ChunkIndex stores chunks and answers key-filtered queries.
// Implementations: in-memory, SQLite, Qdrant, PostgreSQL + pgvector.
type ChunkIndex interface {
	// Upsert stores a chunk keyed by its ID, replacing any previous version.
	Upsert(ctx context.Context, chunk domain.Chunk) error

	// Query returns chunks whose partner or session key equals filter.Key,
	// ordered by source document then ordinal. An empty key matches all chunks.
	Query(ctx context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error)

	// Stats returns aggregate counts across the index.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// DeleteSource removes every chunk of a source document and
	// returns how many were removed.
	DeleteSource(ctx context.Context, sourceDocID string) (int, error)

	// Close releases resources.
	Close() error
}
