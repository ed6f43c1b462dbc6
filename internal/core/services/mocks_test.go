package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Each EmbedBatch call is numbered from zero; calls listed in failOn fail.
type mockEmbeddingService struct {
	mu       sync.Mutex
	calls    int
	batches  [][]string
	failOn   map[int]error
	embedErr error
	dims     int

	// onCall runs before each batch call returns.
	onCall func(call int)
}

var _ driven.EmbeddingService = (*mockEmbeddingService)(nil)

func (m *mockEmbeddingService) vector(text string) []float32 {
	dims := m.dims
	if dims == 0 {
		dims = 3
	}
	v := make([]float32, dims)
	v[0] = float32(len(text))
	v[dims-1] = 1
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.batches = append(m.batches, append([]string(nil), texts...))
	err := m.failOn[call]
	m.mu.Unlock()

	if m.onCall != nil {
		m.onCall(call)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims == 0 {
		return 3
	}
	return m.dims
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

func (m *mockEmbeddingService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockChunkIndex implements driven.ChunkIndex for testing.
type mockChunkIndex struct {
	mu        sync.Mutex
	chunks    map[string]domain.Chunk
	queries   atomic.Int32
	delay     time.Duration
	queryErr  error
	upsertErr func(c domain.Chunk) error
	statsErr  error
	lastLimit int
}

var _ driven.ChunkIndex = (*mockChunkIndex)(nil)

func newMockChunkIndex(chunks ...domain.Chunk) *mockChunkIndex {
	m := &mockChunkIndex{chunks: make(map[string]domain.Chunk)}
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return m
}

func (m *mockChunkIndex) Upsert(_ context.Context, c domain.Chunk) error {
	if m.upsertErr != nil {
		if err := m.upsertErr(c); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[c.ID] = c
	return nil
}

func (m *mockChunkIndex) Query(ctx context.Context, f domain.ChunkFilter) ([]domain.Chunk, error) {
	m.queries.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.queryErr != nil {
		return nil, m.queryErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = f.Limit

	var out []domain.Chunk
	for _, c := range m.chunks {
		if f.Key == "" || c.MatchesKey(f.Key) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceDocID != out[j].SourceDocID {
			return out[i].SourceDocID < out[j].SourceDocID
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockChunkIndex) Stats(_ context.Context) (*domain.IndexStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := domain.NewIndexStats()
	docs := make(map[string]struct{})
	for _, c := range m.chunks {
		stats.TotalChunks++
		stats.ByDocType[c.DocType]++
		if c.PartnerKey != "" {
			stats.ByPartner[c.PartnerKey]++
		}
		docs[c.SourceDocID] = struct{}{}
	}
	stats.UniqueDocuments = len(docs)
	return stats, nil
}

func (m *mockChunkIndex) DeleteSource(_ context.Context, sourceDocID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, c := range m.chunks {
		if c.SourceDocID == sourceDocID {
			delete(m.chunks, id)
			n++
		}
	}
	return n, nil
}

func (m *mockChunkIndex) Close() error {
	return nil
}

func (m *mockChunkIndex) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	answer  string
	err     error
	lastReq driven.AnalysisRequest
}

var _ driven.LLMService = (*mockLLMService)(nil)

func (m *mockLLMService) Analyse(_ context.Context, req driven.AnalysisRequest) (string, error) {
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// recordingMetrics implements driven.Metrics and counts events.
type recordingMetrics struct {
	mu           sync.Mutex
	batchOK      int
	batchFailed  int
	hits, misses int
	writesOK     int
	writesFailed int
	assembled    int
}

var _ driven.Metrics = (*recordingMetrics)(nil)

func (r *recordingMetrics) EmbeddingBatch(_ int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.batchOK++
	} else {
		r.batchFailed++
	}
}

func (r *recordingMetrics) CacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recordingMetrics) IndexWrite(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.writesOK++
	} else {
		r.writesFailed++
	}
}

func (r *recordingMetrics) ContextAssembled(_ bool, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assembled++
}

var errProvider = errors.New("provider exploded")

// testChunk builds a chunk with the fields tests care about.
func testChunk(key string, t domain.DocType, source string, ordinal int, content string) domain.Chunk {
	return domain.Chunk{
		ID:          fmt.Sprintf("%s#%d", source, ordinal),
		Content:     content,
		SourceDocID: source,
		DocType:     t,
		PartnerKey:  key,
		Ordinal:     ordinal,
	}
}
