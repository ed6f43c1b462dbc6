package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// pinger is what both provider kinds expose for connectivity checks.
type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ConfigValidator builds a throwaway client for a provider configuration
// and pings it. The client is closed before returning.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithPingTimeout bounds each validation ping.
func WithPingTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator. The default timeout matches the
// startup ping.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: pingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding returns nil for an unset provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}
	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	return v.ping(svc, domain.ErrEmbeddingUnavailable, config.Provider)
}

// ValidateLLM returns nil for an unset provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil || !config.IsConfigured() {
		return nil
	}
	svc, err := CreateLLMService(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil
	}
	return v.ping(svc, domain.ErrLLMUnavailable, config.Provider)
}

func (v *ConfigValidator) ping(svc pinger, kind error, provider domain.AIProvider) error {
	defer svc.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", kind, provider, err)
	}
	return nil
}
