// Package chunker splits extracted text into overlapping, boundary-aware chunks.
package chunker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// Ensure Segmenter implements the interface.
var _ driven.Segmenter = (*Segmenter)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

const (
	// sentenceWindow is how far back from a preferred cut the segmenter
	// looks for sentence-ending punctuation.
	sentenceWindow = 200

	// wordWindow is how far back it looks for whitespace.
	wordWindow = 50
)

// chunkNamespace seeds deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c9a8e-3d4b-5e2f-9a71-0c8d2b4e6f10")

// Segmenter splits text into chunks that prefer sentence, then word
// boundaries near the target size.
type Segmenter struct {
	chunkSize int
	overlap   int
	now       func() time.Time
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Segmenter) {
		if overlap > 0 {
			s.overlap = overlap
		}
	}
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Segmenter) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't reach chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
		if s.overlap == 0 {
			s.overlap = 1
		}
	}

	return s
}

// Name returns the processor name.
func (s *Segmenter) Name() string {
	return "chunker"
}

// ChunkSize returns the configured target chunk size.
func (s *Segmenter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Segmenter) Overlap() int {
	return s.overlap
}

// Segment splits text using the configured size and overlap.
func (s *Segmenter) Segment(text string) ([]domain.Chunk, error) {
	return Segment(text, s.chunkSize, s.overlap)
}

// Process normalises and segments the request text, then stamps each chunk
// with the request's source metadata and a deterministic ID.
func (s *Segmenter) Process(req domain.IngestRequest) ([]domain.Chunk, error) {
	chunks, err := s.Segment(Normalize(req.Text))
	if err != nil {
		return nil, err
	}

	docType := req.DocType
	if docType == "" {
		docType = domain.InferDocType(req.FileName)
	}

	created := s.now().UTC()
	for i := range chunks {
		c := &chunks[i]
		c.ID = ChunkID(req.SourceDocID, c.Ordinal)
		c.SourceDocID = req.SourceDocID
		c.DocType = docType
		c.PartnerKey = req.PartnerKey
		c.SessionKey = req.SessionKey
		c.FileName = req.FileName
		c.CreatedAt = created
	}
	return chunks, nil
}

// ChunkID derives a stable UUID for the ordinal-th chunk of a source
// document, so re-ingesting the same file overwrites rather than duplicates.
func ChunkID(sourceDocID string, ordinal int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(sourceDocID+"_"+strconv.Itoa(ordinal))).String()
}

// Normalize collapses whitespace runs to a single space and drops
// characters outside printable ASCII.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")

	var b strings.Builder
	b.Grow(len(collapsed))
	for _, r := range collapsed {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Segment splits text into chunks of at most chunkSize characters.
//
// Each cut prefers the last sentence end (. ! or ? followed by whitespace)
// within 200 characters of the target, then the last whitespace within 50,
// and otherwise cuts hard. The next chunk starts chunkSize-overlap after
// the previous start, or at the previous end if that is further along.
// Chunk content is trimmed and whitespace-only chunks are dropped.
// Offsets are byte positions in text.
func Segment(text string, chunkSize, overlap int) ([]domain.Chunk, error) {
	if chunkSize <= 0 || overlap <= 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", domain.ErrInvalidInput, chunkSize, overlap)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	// Search windows never exceed the overlap, which keeps consecutive
	// ranges contiguous.
	sentWin := min(sentenceWindow, overlap)
	wordWin := min(wordWindow, overlap)

	n := len(text)
	chunks := make([]domain.Chunk, 0, n/(chunkSize-overlap)+1)

	start := 0
	for start < n {
		end := start + chunkSize
		if end >= n {
			end = n
		} else {
			end = cutPoint(text, start, end, sentWin, wordWin)
		}

		if content := strings.TrimSpace(text[start:end]); content != "" {
			chunks = append(chunks, domain.Chunk{
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
				Ordinal:     len(chunks),
			})
		}

		if end >= n {
			break
		}
		start = max(start+chunkSize-overlap, end)
	}

	return chunks, nil
}

// cutPoint picks the end of the chunk that starts at start with preferred
// end end (end < len(text)).
func cutPoint(text string, start, end, sentWin, wordWin int) int {
	floor := max(start, end-sentWin)
	for i := end - 1; i >= floor; i-- {
		if isSentenceEnd(text[i]) && i+1 < len(text) && isSpace(text[i+1]) {
			return i + 1
		}
	}

	floor = max(start, end-wordWin)
	for i := end - 1; i > floor; i-- {
		if isSpace(text[i]) {
			return i
		}
	}

	// Hard cut; avoid splitting a multi-byte rune.
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
