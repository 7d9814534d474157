package cache

// Metrics receives cache activity counters. Implementations must be safe for
// concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// CacheHit counts a lookup answered from the cache.
	CacheHit(namespace string)
	// CacheMiss counts a lookup that triggered a backing read.
	CacheMiss(namespace string)
	// CacheCoalesced counts a lookup that joined an in-flight read.
	CacheCoalesced(namespace string)
	// CacheFetchError counts a failed backing read.
	CacheFetchError(namespace string)
	// CacheBatchFetch records the deduplicated size of a batched read.
	CacheBatchFetch(namespace string, size int)
}

func (c *Coalescer[T]) recordHit() {
	if c.metrics != nil {
		c.metrics.CacheHit(c.namespace)
	}
}

func (c *Coalescer[T]) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMiss(c.namespace)
	}
}

func (c *Coalescer[T]) recordCoalesced() {
	if c.metrics != nil {
		c.metrics.CacheCoalesced(c.namespace)
	}
}

func (c *Coalescer[T]) recordFetchError() {
	if c.metrics != nil {
		c.metrics.CacheFetchError(c.namespace)
	}
}

func (c *Coalescer[T]) recordBatch(size int) {
	if c.metrics != nil {
		c.metrics.CacheBatchFetch(c.namespace, size)
	}
}
