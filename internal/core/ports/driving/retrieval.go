package driving

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// RetrievalService assembles context and answers questions about partners.
type RetrievalService interface {
	// Context assembles a bounded, type-balanced context for a partner or session.
	// Returns domain.ErrNoDocuments if the key has no chunks.
	Context(ctx context.Context, req domain.ContextRequest) (*domain.AssembledContext, error)

	// Analyse assembles context and asks the LLM. An empty question uses the
	// default discrepancy question. Returns domain.ErrLLMUnavailable when no
	// LLM is configured.
	Analyse(ctx context.Context, req domain.ContextRequest) (*domain.Analysis, error)

	// QueryAll asks a question across every partner in the index.
	QueryAll(ctx context.Context, question string, maxDocs int) (*domain.Analysis, error)

	// Summary describes the documents indexed for a partner or session.
	Summary(ctx context.Context, key string) (*domain.PartnerSummary, error)

	// Stats returns aggregate counts across the index.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
