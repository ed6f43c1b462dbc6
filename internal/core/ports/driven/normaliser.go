package driven

import "context"

// Normaliser extracts plain text from one file format.
// Each normaliser handles a set of file extensions (e.g., .md, .docx).
type Normaliser interface {
	// Name identifies the format for logging.
	Name() string

	// Extensions returns the lower-case file extensions handled, with the dot.
	Extensions() []string

	// Priority returns the selection priority (higher = preferred) when
	// two normalisers claim the same extension.
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise returns the readable text of content.
	// Returns domain.ErrInvalidInput when content is not in the expected format.
	Normalise(ctx context.Context, content []byte) (string, error)
}
