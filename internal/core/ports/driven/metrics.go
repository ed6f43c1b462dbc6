package driven

// Metrics records operational counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// EmbeddingBatch records one provider call and whether it succeeded.
	EmbeddingBatch(items int, ok bool)

	// CacheLookup records a partner cache hit or miss.
	CacheLookup(hit bool)

	// IndexWrite records one chunk upsert and whether it succeeded.
	IndexWrite(ok bool)

	// ContextAssembled records one assembled context and the path taken.
	ContextAssembled(balanced bool, chunks int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

// EmbeddingBatch implements Metrics.
func (NopMetrics) EmbeddingBatch(int, bool) {}

// CacheLookup implements Metrics.
func (NopMetrics) CacheLookup(bool) {}

// IndexWrite implements Metrics.
func (NopMetrics) IndexWrite(bool) {}

// ContextAssembled implements Metrics.
func (NopMetrics) ContextAssembled(bool, int) {}
