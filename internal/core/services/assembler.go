package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// AssembleOption tunes a single Assemble call.
type AssembleOption func(*assembleOptions)

type assembleOptions struct {
	queryVector []float32
}

// WithQueryVector enables cosine similarity as a tie-break between chunks
// with equal token scores. Chunks without embeddings score 0.
func WithQueryVector(v []float32) AssembleOption {
	return func(o *assembleOptions) {
		o.queryVector = v
	}
}

// ContextAssembler selects and formats the chunks handed to an LLM.
type ContextAssembler struct {
	metrics driven.Metrics
}

// NewContextAssembler creates an assembler. metrics may be nil.
func NewContextAssembler(metrics driven.Metrics) *ContextAssembler {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &ContextAssembler{metrics: metrics}
}

// Assemble builds a bounded context for query from docs.
//
// When docs holds both contracts and payout reports the budget is split
// between them and each side is ranked independently, zero scores included.
// Otherwise all chunks are pooled, ranked and filtered to positive scores;
// if nothing scores, the first chunks in pool order are used instead.
func (a *ContextAssembler) Assemble(
	ctx context.Context,
	docs *domain.PartnerDocumentSet,
	query string,
	budget domain.RetrievalBudget,
	opts ...AssembleOption,
) (*domain.AssembledContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}
	if docs.Total() == 0 {
		return nil, domain.ErrNoDocuments
	}

	var o assembleOptions
	for _, opt := range opts {
		opt(&o)
	}
	budget = budget.Normalised()
	queryTokens := Tokenize(query)

	var (
		selected []domain.Chunk
		balanced bool
		err      error
	)
	if docs.Has(domain.DocTypeContract) && docs.Has(domain.DocTypePayoutReport) {
		balanced = true
		selected, err = selectBalanced(ctx, docs, queryTokens, budget, o.queryVector)
	} else {
		selected, err = selectPooled(ctx, docs, queryTokens, budget, o.queryVector)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Assembled %d chunks for %q (balanced=%t)", len(selected), docs.Key, balanced)
	a.metrics.ContextAssembled(balanced, len(selected))

	return &domain.AssembledContext{
		Key:      docs.Key,
		Chunks:   selected,
		Text:     FormatContext(selected),
		Balanced: balanced,
	}, nil
}

func selectBalanced(
	ctx context.Context,
	docs *domain.PartnerDocumentSet,
	queryTokens map[string]struct{},
	budget domain.RetrievalBudget,
	queryVector []float32,
) ([]domain.Chunk, error) {
	contractLimit := max(budget.PerTypeMinimum, budget.MaxChunks/2)
	payoutLimit := max(budget.PerTypeMinimum, budget.MaxChunks-contractLimit)

	contracts, err := rank(ctx, docs.ByType[domain.DocTypeContract], queryTokens, queryVector)
	if err != nil {
		return nil, err
	}
	payouts, err := rank(ctx, docs.ByType[domain.DocTypePayoutReport], queryTokens, queryVector)
	if err != nil {
		return nil, err
	}

	selected := make([]domain.Chunk, 0, contractLimit+payoutLimit)
	selected = appendTop(selected, contracts, contractLimit)
	selected = appendTop(selected, payouts, payoutLimit)
	return selected, nil
}

func selectPooled(
	ctx context.Context,
	docs *domain.PartnerDocumentSet,
	queryTokens map[string]struct{},
	budget domain.RetrievalBudget,
	queryVector []float32,
) ([]domain.Chunk, error) {
	var pool []domain.Chunk
	for _, t := range domain.AllDocTypes() {
		pool = append(pool, docs.ByType[t]...)
	}

	ranked, err := rank(ctx, pool, queryTokens, queryVector)
	if err != nil {
		return nil, err
	}

	positive := ranked[:0:0]
	for _, sc := range ranked {
		if sc.Score > 0 {
			positive = append(positive, sc)
		}
	}
	if len(positive) > 0 {
		return appendTop(nil, positive, budget.MaxChunks), nil
	}

	n := min(budget.MaxChunks, len(pool))
	return append([]domain.Chunk(nil), pool[:n]...), nil
}

// rank scores chunks and sorts them by descending score. Ties fall back to
// cosine similarity when a query vector is given, then to ordinal, then to
// input order.
func rank(
	ctx context.Context,
	chunks []domain.Chunk,
	queryTokens map[string]struct{},
	queryVector []float32,
) ([]domain.ScoredChunk, error) {
	scored := make([]domain.ScoredChunk, len(chunks))
	for i, c := range chunks {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
			}
		}
		scored[i] = domain.ScoredChunk{Chunk: c, Score: overlap(queryTokens, c.Content)}
		if len(queryVector) > 0 {
			scored[i].Similarity = CosineScore(queryVector, c.Embedding)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return a.Chunk.Ordinal < b.Chunk.Ordinal
	})
	return scored, nil
}

func appendTop(dst []domain.Chunk, ranked []domain.ScoredChunk, limit int) []domain.Chunk {
	for i := 0; i < len(ranked) && i < limit; i++ {
		dst = append(dst, ranked[i].Chunk)
	}
	return dst
}

// FormatContext renders chunks as numbered document blocks separated by
// blank lines.
func FormatContext(chunks []domain.Chunk) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		blocks[i] = fmt.Sprintf("DOCUMENT %d (%s):\nSource: %s\nContent: %s\n---",
			i+1, c.DocType.Label(), c.SourceDocID, c.Content)
	}
	return strings.Join(blocks, "\n\n")
}
