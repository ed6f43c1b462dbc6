package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the ChunkIndex implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendMemory   IndexBackend = "memory"
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendQdrant   IndexBackend = "qdrant"
	IndexBackendPGVector IndexBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendMemory, IndexBackendSQLite, IndexBackendQdrant, IndexBackendPGVector:
		return true
	default:
		return false
	}
}

// IsRemote returns true if the backend is reached over the network.
func (b IndexBackend) IsRemote() bool {
	return b == IndexBackendQdrant || b == IndexBackendPGVector
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b IndexBackend) Description() string {
	switch b {
	case IndexBackendMemory:
		return "In-memory (lost on exit)"
	case IndexBackendSQLite:
		return "SQLite (local file)"
	case IndexBackendQdrant:
		return "Qdrant (vector database)"
	case IndexBackendPGVector:
		return "PostgreSQL + pgvector"
	default:
		return unknownDescription
	}
}

// ChunkingSettings holds segmentation configuration.
type ChunkingSettings struct {
	// Size is the target chunk size in characters.
	Size int

	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// MaxTokens is the per-item token limit. Items are truncated to
	// MaxTokens*CharsPerToken characters.
	MaxTokens int

	// BatchSize is the number of items per provider call.
	BatchSize int

	// RateLimitDelay is the minimum spacing between provider calls.
	RateLimitDelay time.Duration
}

// CharsPerToken approximates characters per token for truncation.
const CharsPerToken = 4

// MaxChars returns the per-item character limit.
func (e EmbeddingSettings) MaxChars() int {
	return e.MaxTokens * CharsPerToken
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds chunk index configuration.
type IndexSettings struct {
	// Backend selects the store.
	Backend IndexBackend

	// Path is the data directory for file-backed stores.
	Path string

	// URL is the connection string or endpoint for remote stores.
	URL string

	// APIKey authenticates against remote stores that need it.
	APIKey string

	// Collection is the collection or table name.
	Collection string

	// Dimensions is the vector size used when creating collections.
	Dimensions int

	// QueryLimit caps how many chunks a cross-partner query scores.
	// Zero scores the whole index. Partner loads are never capped.
	QueryLimit int
}

// RetrievalSettings holds context assembly configuration.
type RetrievalSettings struct {
	// MaxChunks is the default retrieval budget.
	MaxChunks int

	// CacheTTL expires cached partner sets. Zero keeps them until invalidated.
	CacheTTL time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Retrieval RetrievalSettings
}

// Default setting values.
const (
	DefaultChunkSize       = 1000
	DefaultChunkOverlap    = 200
	DefaultMaxTokens       = 8191
	DefaultBatchSize       = 100
	DefaultRateLimitDelay  = time.Second
	DefaultCollection      = "financial_documents"
	DefaultIndexDimensions = 1536
)

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured until the user sets them.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Embedding: EmbeddingSettings{
			MaxTokens:      DefaultMaxTokens,
			BatchSize:      DefaultBatchSize,
			RateLimitDelay: DefaultRateLimitDelay,
		},
		LLM: LLMSettings{},
		Index: IndexSettings{
			Backend:    IndexBackendSQLite,
			Collection: DefaultCollection,
			Dimensions: DefaultIndexDimensions,
		},
		Retrieval: RetrievalSettings{
			MaxChunks: DefaultMaxChunks,
		},
	}
}

// AllIndexBackends returns all available index backends.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{
		IndexBackendMemory,
		IndexBackendSQLite,
		IndexBackendQdrant,
		IndexBackendPGVector,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-ada-002",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
