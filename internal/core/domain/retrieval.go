package domain

// DefaultMaxChunks is the default retrieval budget.
const DefaultMaxChunks = 10

// DefaultQueryAllMaxDocs is the default pool size for cross-partner queries.
const DefaultQueryAllMaxDocs = 15

// RetrievalBudget bounds how many chunks may enter an assembled context.
type RetrievalBudget struct {
	// MaxChunks is the maximum number of chunks selected.
	MaxChunks int

	// PerTypeMinimum is the minimum number of chunks each document type
	// receives on the balanced path.
	PerTypeMinimum int
}

// DefaultRetrievalBudget returns the budget used when none is given.
func DefaultRetrievalBudget() RetrievalBudget {
	return RetrievalBudget{
		MaxChunks:      DefaultMaxChunks,
		PerTypeMinimum: 1,
	}
}

// Normalised returns a copy with non-positive fields replaced by defaults.
func (b RetrievalBudget) Normalised() RetrievalBudget {
	if b.MaxChunks <= 0 {
		b.MaxChunks = DefaultMaxChunks
	}
	if b.PerTypeMinimum <= 0 {
		b.PerTypeMinimum = 1
	}
	return b
}

// ScoredChunk pairs a chunk with its relevance to one query.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the token-overlap relevance. Always >= 0.
	Score int

	// Similarity is the optional cosine similarity in [-1, 1].
	Similarity float64
}

// AssembledContext is the bounded, formatted context handed to an LLM.
type AssembledContext struct {
	// Key is the partner or session the context was built for.
	Key string `json:"key,omitempty"`

	// Chunks are the selected chunks in final order.
	Chunks []Chunk `json:"chunks"`

	// Text is the formatted context.
	Text string `json:"text"`

	// Balanced reports whether the type-balanced path was taken.
	Balanced bool `json:"balanced"`
}

// ContextRequest asks for an assembled context.
type ContextRequest struct {
	// Key is the partner or session key.
	Key string

	// Query is the natural-language question.
	Query string

	// Budget bounds the selection. Zero values take defaults.
	Budget RetrievalBudget

	// UseEmbeddings enables cosine similarity as a tie-break signal.
	UseEmbeddings bool
}

// Analysis is the outcome of asking the LLM about a partner's documents.
type Analysis struct {
	Key      string           `json:"key,omitempty"`
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Context  AssembledContext `json:"context"`
	Model    string           `json:"model,omitempty"`
}

// IndexStats describes what the chunk index holds.
type IndexStats struct {
	TotalChunks     int             `json:"total_chunks"`
	UniqueDocuments int             `json:"unique_documents"`
	ByDocType       map[DocType]int `json:"document_types"`
	ByPartner       map[string]int  `json:"partners"`
}

// NewIndexStats returns stats with initialised maps.
func NewIndexStats() *IndexStats {
	return &IndexStats{
		ByDocType: make(map[DocType]int),
		ByPartner: make(map[string]int),
	}
}

// StatsBuilder accumulates IndexStats one chunk at a time.
type StatsBuilder struct {
	stats   *IndexStats
	sources map[string]struct{}
}

// NewStatsBuilder returns an empty builder.
func NewStatsBuilder() *StatsBuilder {
	return &StatsBuilder{stats: NewIndexStats(), sources: make(map[string]struct{})}
}

// Add counts one chunk. Chunks without a partner key are not counted per partner.
func (b *StatsBuilder) Add(sourceDocID string, docType DocType, partnerKey string) {
	b.stats.TotalChunks++
	b.stats.ByDocType[ParseDocType(string(docType))]++
	if partnerKey != "" {
		b.stats.ByPartner[partnerKey]++
	}
	b.sources[sourceDocID] = struct{}{}
}

// Stats returns the accumulated counts.
func (b *StatsBuilder) Stats() *IndexStats {
	b.stats.UniqueDocuments = len(b.sources)
	return b.stats
}
