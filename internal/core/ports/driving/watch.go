package driving

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// WatchService keeps the index in step with a watched folder.
type WatchService interface {
	// Run ingests changed files and drops deleted ones until ctx ends.
	// Every file is ingested with the grouping keys of req. When initial
	// is true the folder's existing files are ingested first.
	Run(ctx context.Context, req domain.IngestRequest, initial bool) (*domain.WatchStats, error)
}
