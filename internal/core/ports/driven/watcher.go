package driven

import (
	"context"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

// FileWatcher reports settled changes to files under a folder.
type FileWatcher interface {
	// Watch starts watching. The channel is closed when ctx ends or the
	// watcher is closed.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Root returns the watched folder.
	Root() string

	// Close stops the watcher.
	Close() error
}
