package driven

import (
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// Segmenter turns extracted text into chunks ready for embedding.
type Segmenter interface {
	// Name returns the segmenter name for logging.
	Name() string

	// Process normalises and splits req.Text and stamps each chunk with
	// the request's source metadata and a deterministic ID.
	// Returns domain.ErrEmptyInput when the text is blank.
	Process(req domain.IngestRequest) ([]domain.Chunk, error)
}
