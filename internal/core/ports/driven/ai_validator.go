package driven

import "github.com/custodia-labs/partnerdocs/internal/core/domain"

// AIConfigValidator checks a provider configuration before the settings
// wizard reports it as usable. An unset provider is valid.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
