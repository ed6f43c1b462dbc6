package driving

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// IngestService segments, embeds and indexes documents.
type IngestService interface {
	// IngestText ingests already-extracted text.
	// Returns domain.ErrEmptyInput if the text is blank.
	IngestText(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestFile loads a text file and ingests it. Fields left empty in req
	// are derived from the file name.
	IngestFile(ctx context.Context, path string, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestDirectory ingests every supported file in dir whose extension is
	// in exts (defaults to .txt and .md). Per-file failures are aggregated.
	IngestDirectory(ctx context.Context, dir string, exts []string, req domain.IngestRequest) (*domain.DirectoryIngestResult, error)

	// DeleteSource removes a source document's chunks.
	DeleteSource(ctx context.Context, sourceDocID string) (int, error)
}
