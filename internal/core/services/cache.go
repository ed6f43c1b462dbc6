package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
)

// cacheEntry is one loaded partner set.
type cacheEntry struct {
	set      *domain.PartnerDocumentSet
	loadedAt time.Time
}

// PartnerDocumentCache loads a partner's chunks from the index once and
// serves them from memory afterwards. Concurrent misses for the same key
// share a single index query. Returned sets are shared and must not be
// modified by callers.
type PartnerDocumentCache struct {
	index   driven.ChunkIndex
	metrics driven.Metrics

	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	gen     uint64

	group singleflight.Group
}

// CacheOption configures a PartnerDocumentCache.
type CacheOption func(*PartnerDocumentCache)

// WithTTL expires entries after ttl. Zero keeps entries until invalidated.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *PartnerDocumentCache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheMetrics records hits and misses.
func WithCacheMetrics(m driven.Metrics) CacheOption {
	return func(c *PartnerDocumentCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// withCacheClock overrides the clock in tests.
func withCacheClock(now func() time.Time) CacheOption {
	return func(c *PartnerDocumentCache) {
		c.now = now
	}
}

// NewPartnerDocumentCache creates a cache over index.
func NewPartnerDocumentCache(index driven.ChunkIndex, opts ...CacheOption) *PartnerDocumentCache {
	c := &PartnerDocumentCache{
		index:   index,
		metrics: driven.NopMetrics{},
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns every chunk for key grouped by document type. A key with no
// indexed chunks yields an empty set, not an error. Index errors are
// returned and not cached.
func (c *PartnerDocumentCache) Load(ctx context.Context, key string) (*domain.PartnerDocumentSet, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: partner key is required", domain.ErrInvalidInput)
	}

	if set, ok := c.lookup(key); ok {
		c.metrics.CacheLookup(true)
		return set, nil
	}
	c.metrics.CacheLookup(false)

	ch := c.group.DoChan(key, func() (any, error) {
		// The query is shared, so it must outlive any single caller.
		return c.fill(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.PartnerDocumentSet), nil
	}
}

func (c *PartnerDocumentCache) lookup(key string) (*domain.PartnerDocumentSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl {
		return nil, false
	}
	return e.set, true
}

func (c *PartnerDocumentCache) fill(ctx context.Context, key string) (*domain.PartnerDocumentSet, error) {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	logger.Debug("Loading partner documents for %q", key)
	// No limit: a truncated set could drop a whole document type.
	chunks, err := c.index.Query(ctx, domain.ChunkFilter{Key: key})
	if err != nil {
		return nil, fmt.Errorf("load partner %q: %w", key, err)
	}

	now := c.now()
	set := domain.NewPartnerDocumentSet(key)
	set.LoadedAt = now
	for _, chunk := range chunks {
		set.Add(chunk)
	}
	logger.Debug("Loaded %d chunks for %q", set.Total(), key)

	c.mu.Lock()
	// Skip storing if an invalidation raced with the query.
	if c.gen == gen {
		c.entries[key] = cacheEntry{set: set, loadedAt: now}
	}
	c.mu.Unlock()

	return set, nil
}

// Invalidate drops the cached set for key.
func (c *PartnerDocumentCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen++
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll drops every cached set.
func (c *PartnerDocumentCache) InvalidateAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = make(map[string]cacheEntry)
	c.gen++
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
	}
}

// Len returns the number of cached keys.
func (c *PartnerDocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
