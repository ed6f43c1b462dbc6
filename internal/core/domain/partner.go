package domain

import "time"

// PartnerDocumentSet holds one partner's (or session's) chunks grouped by type.
type PartnerDocumentSet struct {
	// Key is the partner or session key the set was loaded for.
	Key string

	// ByType maps each document type to its chunks in index order.
	ByType map[DocType][]Chunk

	// LoadedAt is when the set was fetched from the index.
	LoadedAt time.Time
}

// NewPartnerDocumentSet creates an empty set with all known types present.
func NewPartnerDocumentSet(key string) *PartnerDocumentSet {
	set := &PartnerDocumentSet{
		Key:    key,
		ByType: make(map[DocType][]Chunk, 3),
	}
	for _, t := range AllDocTypes() {
		set.ByType[t] = []Chunk{}
	}
	return set
}

// Add appends a chunk to the group matching its type.
// Unknown types are filed under DocTypeOther.
func (s *PartnerDocumentSet) Add(c Chunk) {
	t := ParseDocType(string(c.DocType))
	c.DocType = t
	s.ByType[t] = append(s.ByType[t], c)
}

// Total returns the number of chunks across all types.
func (s *PartnerDocumentSet) Total() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, chunks := range s.ByType {
		n += len(chunks)
	}
	return n
}

// Has reports whether the set contains at least one chunk of type t.
func (s *PartnerDocumentSet) Has(t DocType) bool {
	return s != nil && len(s.ByType[t]) > 0
}

// DocTypeSummary describes one document type within a partner summary.
type DocTypeSummary struct {
	Count              int      `json:"count"`
	Files              []string `json:"files"`
	TotalContentLength int      `json:"total_content_length"`
}

// PartnerSummary describes what is indexed for a partner or session.
type PartnerSummary struct {
	Key           string                     `json:"key"`
	TotalChunks   int                        `json:"total_chunks"`
	DocumentTypes map[DocType]DocTypeSummary `json:"document_types"`
	GeneratedAt   time.Time                  `json:"generated_at"`
}
