// Package memory provides in-process implementations of the driven ports,
// used for tests and for throwaway sessions that need no persistence.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// Ensure ChunkIndex implements the interface.
var _ driven.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndex is an in-memory implementation of driven.ChunkIndex.
type ChunkIndex struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
	closed bool
}

// NewChunkIndex creates a new in-memory chunk index.
func NewChunkIndex() *ChunkIndex {
	return &ChunkIndex{
		chunks: make(map[string]domain.Chunk),
	}
}

// Upsert stores or replaces a chunk by ID.
func (s *ChunkIndex) Upsert(_ context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk ID is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrIndexUnavailable
	}
	chunk.Embedding = slices.Clone(chunk.Embedding)
	s.chunks[chunk.ID] = chunk
	return nil
}

// Query returns chunks matching the filter key, ordered by source and ordinal.
func (s *ChunkIndex) Query(ctx context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrIndexUnavailable
	}

	out := make([]domain.Chunk, 0)
	for _, c := range s.chunks {
		if filter.Key == "" || c.MatchesKey(filter.Key) {
			c.Embedding = slices.Clone(c.Embedding)
			out = append(out, c)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	domain.SortChunks(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Stats returns aggregate counts across the index.
func (s *ChunkIndex) Stats(_ context.Context) (*domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := domain.NewStatsBuilder()
	for _, c := range s.chunks {
		b.Add(c.SourceDocID, c.DocType, c.PartnerKey)
	}
	return b.Stats(), nil
}

// DeleteSource removes all chunks of a source document.
func (s *ChunkIndex) DeleteSource(_ context.Context, sourceDocID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, c := range s.chunks {
		if c.SourceDocID == sourceDocID {
			delete(s.chunks, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored chunks.
func (s *ChunkIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Close marks the index closed; later writes and queries fail.
func (s *ChunkIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
