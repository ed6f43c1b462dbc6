package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedMaxTokens  = "embedding.max_tokens"
	keyEmbedBatchSize  = "embedding.batch_size"
	keyEmbedDelay      = "embedding.rate_limit_delay"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyIndexBackend    = "index.backend"
	keyIndexPath       = "index.path"
	keyIndexURL        = "index.url"
	keyIndexAPIKey     = "index.api_key"
	keyIndexCollection = "index.collection"
	keyIndexDimensions = "index.dimensions"
	keyIndexQueryLimit = "index.query_limit"
	keyRetrievalMax    = "retrieval.max_chunks"
	keyRetrievalTTL    = "retrieval.cache_ttl"
	defaultOllamaURL   = "http://localhost:11434"
	envPrefix          = "PARTNERDOCS_"
	envOpenAIAPIKey    = "OPENAI_API_KEY"
	envAnthropicAPIKey = "ANTHROPIC_API_KEY"
	envQdrantAPIKey    = "QDRANT_API_KEY"
	envPostgresURL     = "DATABASE_URL"
	envOpenAIBaseURL   = "OPENAI_BASE_URL"
	envOllamaHost      = "OLLAMA_HOST"
	envEmbeddingModel  = "EMBEDDING_MODEL"
	envChatModel       = "CHAT_MODEL"
	envLegacyChunkSize = "CHUNK_SIZE"
	envLegacyOverlap   = "CHUNK_OVERLAP"
)

// EnvKey returns the environment variable that overrides a config key,
// e.g. "embedding.api_key" becomes PARTNERDOCS_EMBEDDING_API_KEY.
func EnvKey(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SettingsService manages application settings. Values are read from the
// config store and overridden by environment variables.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	delay, err := s.getDuration(keyEmbedDelay, defaults.Embedding.RateLimitDelay)
	if err != nil {
		return nil, err
	}
	ttl, err := s.getDuration(keyRetrievalTTL, defaults.Retrieval.CacheTTL)
	if err != nil {
		return nil, err
	}

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size, envLegacyChunkSize),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap, envLegacyOverlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:       s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:          s.getString(keyEmbedModel, defaults.Embedding.Model, envEmbeddingModel),
			BaseURL:        s.getString(keyEmbedBaseURL, ""),
			APIKey:         s.getString(keyEmbedAPIKey, ""),
			MaxTokens:      s.getInt(keyEmbedMaxTokens, defaults.Embedding.MaxTokens),
			BatchSize:      s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			RateLimitDelay: delay,
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model, envChatModel),
			BaseURL:  s.getString(keyLLMBaseURL, ""),
			APIKey:   s.getString(keyLLMAPIKey, ""),
		},
		Index: domain.IndexSettings{
			Backend:    s.getBackend(defaults.Index.Backend),
			Path:       s.getString(keyIndexPath, defaults.Index.Path),
			URL:        s.getString(keyIndexURL, defaults.Index.URL),
			APIKey:     s.getString(keyIndexAPIKey, "", envQdrantAPIKey),
			Collection: s.getString(keyIndexCollection, defaults.Index.Collection),
			Dimensions: s.getInt(keyIndexDimensions, defaults.Index.Dimensions),
			QueryLimit: s.getInt(keyIndexQueryLimit, defaults.Index.QueryLimit),
		},
		Retrieval: domain.RetrievalSettings{
			MaxChunks: s.getInt(keyRetrievalMax, defaults.Retrieval.MaxChunks),
			CacheTTL:  ttl,
		},
	}

	s.applyProviderEnv(settings)
	return settings, nil
}

// applyProviderEnv fills credentials and endpoints from the variables the
// provider SDKs read themselves, when nothing more specific is set.
func (s *SettingsService) applyProviderEnv(settings *domain.AppSettings) {
	fill := func(dst *string, envKey string) {
		if *dst != "" {
			return
		}
		if v, ok := s.lookupEnv(envKey); ok {
			*dst = v
		}
	}

	switch settings.Embedding.Provider {
	case domain.AIProviderOpenAI:
		fill(&settings.Embedding.APIKey, envOpenAIAPIKey)
		fill(&settings.Embedding.BaseURL, envOpenAIBaseURL)
	case domain.AIProviderOllama:
		fill(&settings.Embedding.BaseURL, envOllamaHost)
	}

	switch settings.LLM.Provider {
	case domain.AIProviderOpenAI:
		fill(&settings.LLM.APIKey, envOpenAIAPIKey)
		fill(&settings.LLM.BaseURL, envOpenAIBaseURL)
	case domain.AIProviderAnthropic:
		fill(&settings.LLM.APIKey, envAnthropicAPIKey)
	case domain.AIProviderOllama:
		fill(&settings.LLM.BaseURL, envOllamaHost)
	}

	if settings.Index.Backend == domain.IndexBackendPGVector {
		fill(&settings.Index.URL, envPostgresURL)
	}
}

// Save persists application settings. API keys are only written when set
// and not supplied by the environment.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedMaxTokens, settings.Embedding.MaxTokens},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedDelay, settings.Embedding.RateLimitDelay.String()},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyIndexBackend, settings.Index.Backend.String()},
		{keyIndexPath, settings.Index.Path},
		{keyIndexURL, settings.Index.URL},
		{keyIndexCollection, settings.Index.Collection},
		{keyIndexDimensions, settings.Index.Dimensions},
		{keyIndexQueryLimit, settings.Index.QueryLimit},
		{keyRetrievalMax, settings.Retrieval.MaxChunks},
		{keyRetrievalTTL, settings.Retrieval.CacheTTL.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key, value string
		env        []string
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey, []string{envOpenAIAPIKey}},
		{keyLLMAPIKey, settings.LLM.APIKey, []string{envOpenAIAPIKey, envAnthropicAPIKey}},
		{keyIndexAPIKey, settings.Index.APIKey, []string{envQdrantAPIKey}},
	}
	for _, sec := range secrets {
		if sec.value == "" || s.fromEnv(sec.key, sec.value, sec.env...) {
			continue
		}
		if err := s.configStore.Set(sec.key, sec.value); err != nil {
			return fmt.Errorf("save %s: %w", sec.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = s.existingKey(provider, settings.Embedding.Provider, settings.Embedding.APIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	// Collections are created with the model's vector size.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Index.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = s.existingKey(provider, settings.LLM.Provider, settings.LLM.APIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetIndexBackend selects the chunk index backend. url is required for
// remote backends and ignored by the in-memory one.
func (s *SettingsService) SetIndexBackend(backend domain.IndexBackend, url string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: index backend %q", domain.ErrInvalidInput, backend)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Index.Backend = backend
	if url != "" {
		settings.Index.URL = url
	}
	if backend.IsRemote() && settings.Index.URL == "" {
		return fmt.Errorf("%w: %s requires a URL", domain.ErrInvalidInput, backend)
	}

	return s.Save(settings)
}

// Validate checks that current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	c := settings.Chunking
	if c.Size <= 0 || c.Overlap <= 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap %d must be between 0 and chunk size %d",
			domain.ErrInvalidInput, c.Overlap, c.Size)
	}
	if settings.Embedding.BatchSize <= 0 || settings.Embedding.MaxTokens <= 0 {
		return fmt.Errorf("%w: embedding batch size and max tokens must be positive", domain.ErrInvalidInput)
	}
	if settings.Embedding.Provider != "" && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s is not fully configured",
			domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.LLM.Provider != "" && !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %s is not fully configured", domain.ErrInvalidInput, settings.LLM.Provider)
	}
	if settings.Index.Backend.IsRemote() && settings.Index.URL == "" {
		return fmt.Errorf("%w: index backend %s requires a URL", domain.ErrInvalidInput, settings.Index.Backend)
	}
	if settings.Retrieval.MaxChunks <= 0 {
		return fmt.Errorf("%w: retrieval max chunks must be positive", domain.ErrInvalidInput)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with environment overrides and defaults.

// raw returns the environment override for key, falling back to the
// legacy variable names.
func (s *SettingsService) raw(key string, legacy ...string) (string, bool) {
	for _, env := range append([]string{EnvKey(key)}, legacy...) {
		if v, ok := s.lookupEnv(env); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// fromEnv reports whether value was supplied by one of key's variables.
func (s *SettingsService) fromEnv(key, value string, extra ...string) bool {
	for _, env := range append([]string{EnvKey(key)}, extra...) {
		if v, ok := s.lookupEnv(env); ok && v == value {
			return true
		}
	}
	return false
}

func (s *SettingsService) getString(key, defaultVal string, legacy ...string) string {
	if v, ok := s.raw(key, legacy...); ok {
		return v
	}
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int, legacy ...string) int {
	if v, ok := s.raw(key, legacy...); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if val := s.configStore.GetInt(key); val > 0 {
		return val
	}
	return defaultVal
}

// getDuration accepts Go duration strings ("1s", "500ms") or a whole
// number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	str, ok := s.raw(key)
	if !ok {
		str = s.configStore.GetString(key)
	}
	if str == "" {
		if n := s.configStore.GetInt(key); n > 0 {
			return time.Duration(n) * time.Second, nil
		}
		return defaultVal, nil
	}
	if n, err := strconv.Atoi(str); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	return d, nil
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(strings.ToLower(s.getString(key, "")))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.IndexBackend) domain.IndexBackend {
	backend := domain.IndexBackend(strings.ToLower(s.getString(keyIndexBackend, "")))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

// existingKey returns the key already configured for provider, either
// stored for the current provider or exported in the SDK's variable.
func (s *SettingsService) existingKey(provider, current domain.AIProvider, currentKey string) string {
	if provider == current && currentKey != "" {
		return currentKey
	}
	env := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    envOpenAIAPIKey,
		domain.AIProviderAnthropic: envAnthropicAPIKey,
	}[provider]
	if env == "" {
		return ""
	}
	v, _ := s.lookupEnv(env)
	return v
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a custom endpoint for local providers and clears it for
// cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return defaultOllamaURL
	}
	return current
}
