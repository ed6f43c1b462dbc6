package domain

import (
	"fmt"
	"strings"
)

// IngestRequest describes text to segment, embed and index.
type IngestRequest struct {
	// SourceDocID identifies the document. Defaults to the file name and
	// is scoped to Owner before indexing.
	SourceDocID string

	// FileName is the base name of the originating file, if any.
	FileName string

	// Text is the extracted plain text.
	Text string

	// DocType overrides inference from FileName when set.
	DocType DocType

	// PartnerKey and SessionKey group the resulting chunks.
	PartnerKey string
	SessionKey string
}

// Owner returns the key that scopes the request's source IDs: the partner
// key, or the session key when no partner is set.
func (r IngestRequest) Owner() string {
	if r.PartnerKey != "" {
		return r.PartnerKey
	}
	return r.SessionKey
}

// ScopedSourceID prefixes name with owner so that equal file names from
// different partners never share chunk IDs. A name that already carries
// the prefix is returned unchanged.
func ScopedSourceID(owner, name string) string {
	if owner == "" || strings.HasPrefix(name, owner+"/") {
		return name
	}
	return owner + "/" + name
}

// IngestResult reports the outcome of ingesting one document.
// Failures never abort the run; they are counted.
type IngestResult struct {
	Source      string `json:"source"`
	SessionKey  string `json:"session_key,omitempty"`
	TotalChunks int    `json:"total_chunks"`
	Indexed     int    `json:"indexed_chunks"`
	Failed      int    `json:"failed_chunks"`

	// Embedded is the number of chunks that received a vector.
	Embedded int `json:"embedded_chunks"`

	// EmbeddingFailures is the number of chunks left without a vector.
	EmbeddingFailures int `json:"embedding_failures"`

	// Cancelled is set when the context ended before all work was done.
	Cancelled bool `json:"cancelled,omitempty"`

	// Err is set when the document could not be ingested at all.
	Err error `json:"-"`
}

// OK reports whether the document was processed without a fatal error.
func (r *IngestResult) OK() bool {
	return r.Err == nil
}

// DirectoryIngestResult aggregates per-file results.
type DirectoryIngestResult struct {
	Directory      string          `json:"directory"`
	Files          []*IngestResult `json:"files"`
	TotalFiles     int             `json:"total_files"`
	Successful     int             `json:"successful_files"`
	FailedFiles    int             `json:"failed_files"`
	TotalChunks    int             `json:"total_chunks"`
	IndexedChunks  int             `json:"total_indexed_chunks"`
	FailedChunks   int             `json:"total_failed_chunks"`
	CancelledEarly bool            `json:"cancelled,omitempty"`
}

// Add folds a file result into the aggregate.
func (d *DirectoryIngestResult) Add(r *IngestResult) {
	d.Files = append(d.Files, r)
	if !r.OK() {
		d.FailedFiles++
		return
	}
	d.Successful++
	d.TotalChunks += r.TotalChunks
	d.IndexedChunks += r.Indexed
	d.FailedChunks += r.Failed
}

// BatchFailure records one failed embedding batch.
type BatchFailure struct {
	// Index is the zero-based batch number.
	Index int

	// Items are the input positions that belonged to the batch.
	Items []int

	// Err is the provider error, wrapped with ErrEmbeddingProvider.
	Err error
}

func (f BatchFailure) Error() string {
	return fmt.Sprintf("batch %d (%d items): %v", f.Index, len(f.Items), f.Err)
}

// EmbeddingResult holds one vector slot per input, nil marking a failed
// or skipped item.
type EmbeddingResult struct {
	Vectors   [][]float32
	Failures  []BatchFailure
	Calls     int
	Cancelled bool
}

// Succeeded returns the number of inputs that received a vector.
func (r *EmbeddingResult) Succeeded() int {
	n := 0
	for _, v := range r.Vectors {
		if v != nil {
			n++
		}
	}
	return n
}

// Failed returns the number of inputs left without a vector.
func (r *EmbeddingResult) Failed() int {
	return len(r.Vectors) - r.Succeeded()
}
