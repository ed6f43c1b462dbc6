package postprocessors

import (
	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/postprocessors/chunker"
)

// DefaultSegmenter is the segmenter used when none is configured.
const DefaultSegmenter = "chunker"

// RegisterDefaults registers all built-in segmenters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultSegmenter, buildChunker)
}

// NewDefaultSegmenter builds the default segmenter from chunking settings.
func NewDefaultSegmenter(s domain.ChunkingSettings) (driven.Segmenter, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(DefaultSegmenter, ChunkingConfig(s))
}

// ChunkingConfig converts chunking settings to builder config.
func ChunkingConfig(s domain.ChunkingSettings) map[string]any {
	return map[string]any{
		"chunk_size": s.Size,
		"overlap":    s.Overlap,
	}
}

// buildChunker creates a chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.Segmenter, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap := getIntFromConfig(cfg, "overlap"); overlap > 0 {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
