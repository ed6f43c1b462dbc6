package domain

import (
	"sort"
	"strings"
	"time"
)

// DocType categorises a chunk for balanced retrieval.
type DocType string

// Known document types.
const (
	// DocTypeContract is a partnership agreement or similar contract.
	DocTypeContract DocType = "contract"

	// DocTypePayoutReport is a payout statement issued to a partner.
	DocTypePayoutReport DocType = "payout_report"

	// DocTypeOther is anything that is not one of the above.
	DocTypeOther DocType = "other"
)

// AllDocTypes returns the document types in assembly order.
func AllDocTypes() []DocType {
	return []DocType{DocTypeContract, DocTypePayoutReport, DocTypeOther}
}

// ParseDocType maps a stored type string to a DocType.
// Unrecognised values map to DocTypeOther.
func ParseDocType(s string) DocType {
	switch DocType(strings.ToLower(strings.TrimSpace(s))) {
	case DocTypeContract:
		return DocTypeContract
	case DocTypePayoutReport:
		return DocTypePayoutReport
	default:
		return DocTypeOther
	}
}

// InferDocType guesses the document type from a file name.
func InferDocType(fileName string) DocType {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "contract"):
		return DocTypeContract
	case strings.Contains(name, "payout"):
		return DocTypePayoutReport
	default:
		return DocTypeOther
	}
}

// String returns the string representation.
func (t DocType) String() string {
	return string(t)
}

// Label returns the upper-cased form used in assembled context headers.
func (t DocType) Label() string {
	return strings.ToUpper(string(t))
}

// Chunk is the atomic unit of indexing and retrieval.
// Chunks are created by segmentation, enriched once with an embedding
// and treated as immutable afterwards.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// Content is the trimmed text of this chunk. Never empty.
	Content string `json:"content"`

	// SourceDocID identifies the document the chunk was cut from.
	SourceDocID string `json:"source_doc_id"`

	// DocType drives balanced retrieval.
	DocType DocType `json:"doc_type"`

	// PartnerKey groups chunks belonging to one partner.
	PartnerKey string `json:"partner_key,omitempty"`

	// SessionKey groups chunks uploaded in one ad-hoc session.
	SessionKey string `json:"session_key,omitempty"`

	// StartOffset and EndOffset delimit the raw range [start, end)
	// the chunk was cut from.
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`

	// Ordinal is the position within the source document.
	Ordinal int `json:"ordinal"`

	// Embedding is the vector representation, nil when not embedded.
	Embedding []float32 `json:"embedding,omitempty"`

	// EmbeddingModel names the model that produced Embedding.
	EmbeddingModel string `json:"embedding_model,omitempty"`

	// FileName is the base name of the file the source came from, if any.
	FileName string `json:"file_name,omitempty"`

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time `json:"created_at"`
}

// HasEmbedding reports whether the chunk carries a vector.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// MatchesKey reports whether key equals the chunk's partner or session key.
func (c *Chunk) MatchesKey(key string) bool {
	return key != "" && (c.PartnerKey == key || c.SessionKey == key)
}

// ChunkFilter selects chunks from a ChunkIndex.
type ChunkFilter struct {
	// Key matches PartnerKey or SessionKey. Empty matches every chunk.
	Key string

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// SortChunks orders chunks by source document, then ordinal.
func SortChunks(chunks []Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].SourceDocID != chunks[j].SourceDocID {
			return chunks[i].SourceDocID < chunks[j].SourceDocID
		}
		return chunks[i].Ordinal < chunks[j].Ordinal
	})
}
