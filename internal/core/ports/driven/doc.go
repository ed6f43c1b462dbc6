// Package driven lists what the partner document pipeline needs from the
// outside world.
//
// A working setup needs a ChunkIndex (memory, sqlite, qdrant or pgvector),
// a Segmenter, a TextLoader backed by the normaliser registry and a
// ConfigStore. EmbeddingService, LLMService and Metrics may be absent:
// chunks are then stored without vectors, only context assembly is
// offered, and nothing is counted.
//
// This package imports domain and nothing from adapters.
package driven
