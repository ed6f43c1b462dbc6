package driven

import "context"

// TextLoader reads a file from disk and returns its readable text,
// dispatching to a Normaliser by file extension.
type TextLoader interface {
	// Supports reports whether the loader can read the path.
	Supports(path string) bool

	// Extensions returns every extension the loader accepts.
	Extensions() []string

	// Load returns the file's text content.
	Load(ctx context.Context, path string) (string, error)
}
