package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
	"github.com/custodia-labs/partnerdocs/internal/ratelimit"
)

// EmbeddingConfig controls batching and truncation.
type EmbeddingConfig struct {
	// BatchSize is the number of texts per provider call.
	BatchSize int

	// MaxCharsPerItem caps the length of each text sent to the provider.
	MaxCharsPerItem int

	// InterBatchDelay is used only when no shared limiter is supplied.
	InterBatchDelay time.Duration
}

// EmbeddingCoordinator embeds texts in rate-limited batches.
// A failing batch never aborts the run; its items are left without vectors.
type EmbeddingCoordinator struct {
	provider driven.EmbeddingService
	cfg      EmbeddingConfig
	limiter  *ratelimit.Limiter
	metrics  driven.Metrics
}

// NewEmbeddingCoordinator creates a coordinator for provider.
// Coordinators that call the same provider should share limiter; when limiter
// is nil a private one spacing calls by cfg.InterBatchDelay is created.
func NewEmbeddingCoordinator(
	provider driven.EmbeddingService,
	cfg EmbeddingConfig,
	limiter *ratelimit.Limiter,
	metrics driven.Metrics,
) *EmbeddingCoordinator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.MaxCharsPerItem <= 0 {
		cfg.MaxCharsPerItem = domain.DefaultMaxTokens * domain.CharsPerToken
	}
	if limiter == nil {
		limiter = ratelimit.New(cfg.InterBatchDelay)
	}
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}

	return &EmbeddingCoordinator{
		provider: provider,
		cfg:      cfg,
		limiter:  limiter,
		metrics:  metrics,
	}
}

// ModelName returns the provider's model name.
func (c *EmbeddingCoordinator) ModelName() string {
	return c.provider.ModelName()
}

// EmbedBatch returns one vector slot per input text, in input order.
// Blank texts are skipped and keep a nil slot. When ctx ends, vectors from
// completed batches are returned with Cancelled set.
func (c *EmbeddingCoordinator) EmbedBatch(ctx context.Context, texts []string) *domain.EmbeddingResult {
	result := &domain.EmbeddingResult{Vectors: make([][]float32, len(texts))}

	positions := make([]int, 0, len(texts))
	inputs := make([]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		positions = append(positions, i)
		inputs = append(inputs, Truncate(t, c.cfg.MaxCharsPerItem))
	}

	log := logger.Get()
	for batch, start := 0, 0; start < len(inputs); batch, start = batch+1, start+c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(inputs))

		if err := c.limiter.Wait(ctx); err != nil {
			result.Cancelled = true
			log.Debug().Int("batch", batch).Err(err).Msg("embedding cancelled")
			break
		}

		result.Calls++
		vectors, err := c.provider.EmbedBatch(ctx, inputs[start:end])
		if err == nil && len(vectors) != end-start {
			err = fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), end-start)
		}

		if err != nil {
			c.metrics.EmbeddingBatch(end-start, false)
			if ctx.Err() != nil {
				result.Cancelled = true
				log.Debug().Int("batch", batch).Int("items", end-start).Msg("embedding cancelled")
				break
			}
			if errors.Is(err, domain.ErrRateLimited) {
				resume := c.limiter.RecordRateLimitError(0)
				log.Warn().Int("batch", batch).Time("resume_at", resume).Msg("provider rate limited, backing off")
			}
			result.Failures = append(result.Failures, domain.BatchFailure{
				Index: batch,
				Items: append([]int(nil), positions[start:end]...),
				Err:   fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err),
			})
			log.Warn().Int("batch", batch).Int("items", end-start).Err(err).Msg("embedding batch failed")
			continue
		}

		for i, v := range vectors {
			result.Vectors[positions[start+i]] = v
		}
		c.metrics.EmbeddingBatch(end-start, true)
		log.Debug().Int("batch", batch).Int("items", end-start).Msg("embedding batch ok")
	}

	return result
}

// EmbedChunks embeds chunk contents and attaches the vectors in place.
func (c *EmbeddingCoordinator) EmbedChunks(ctx context.Context, chunks []domain.Chunk) *domain.EmbeddingResult {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	result := c.EmbedBatch(ctx, texts)
	model := c.provider.ModelName()
	for i, v := range result.Vectors {
		if v != nil {
			chunks[i].Embedding = v
			chunks[i].EmbeddingModel = model
		}
	}
	return result
}

// EmbedQuery embeds a single query string, truncated like batch items.
func (c *EmbeddingCoordinator) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyInput
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}
	v, err := c.provider.Embed(ctx, Truncate(query, c.cfg.MaxCharsPerItem))
	c.metrics.EmbeddingBatch(1, err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}
	return v, nil
}

// Truncate shortens text to at most maxChars bytes. When the cut splits a
// word it backs up to the last whitespace, provided that lies within the
// final 20% of the cut.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	end := maxChars
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]

	if isWordByte(text[end]) && end > 0 && isWordByte(text[end-1]) {
		if i := strings.LastIndexAny(cut, " \t\n\r\v\f"); i >= 0 && i*5 >= end*4 {
			cut = cut[:i]
		}
	}
	return cut
}

func isWordByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return false
	}
	return true
}
