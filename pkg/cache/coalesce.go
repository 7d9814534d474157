// Package cache implements a coalescing, multi-key entity cache.
//
// Entities are cached redundantly under several key kinds (uid, name, id)
// with a TTL, and concurrent lookups for the same uncached key are collapsed
// into one backing read: the critical invariant is at-most-one concurrent
// backing read per cache key. Coalescing is implemented with pending markers
// stored in the same TTL cache as results, under their own namespace and a
// short independent TTL as a safety valve against a crashed holder wedging a
// key forever.
//
// There is no global lock: a mutex guards only marker registration, and
// backing reads for different keys proceed independently. In-flight backing
// reads run to completion even if the original caller goes away, so the cache
// is populated for the next caller.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// KeyKind identifies one of the redundant key namespaces an entity is cached
// under.
type KeyKind string

const (
	// KindUID keys by public UUID.
	KindUID KeyKind = "uid"
	// KindName keys by unique name.
	KindName KeyKind = "name"
	// KindID keys by internal numeric id.
	KindID KeyKind = "id"
)

// Key is a single cache specifier: a kind plus its value.
type Key struct {
	Kind  KeyKind
	Value string
}

// IDKey builds a numeric-id key.
func IDKey(id uint64) Key {
	return Key{Kind: KindID, Value: fmt.Sprintf("%d", id)}
}

// UIDKey builds a UUID key.
func UIDKey(uid string) Key {
	return Key{Kind: KindUID, Value: uid}
}

// NameKey builds a name key.
func NameKey(name string) Key {
	return Key{Kind: KindName, Value: name}
}

// Backing performs the reads behind the cache.
type Backing[T any] interface {
	// FetchOne reads a single entity; (nil, nil) means not found.
	FetchOne(ctx context.Context, key Key) (*T, error)
	// FetchBatch reads every entity matching any of the keys in one round
	// trip. Keys with no matching entity are simply absent from the result.
	FetchBatch(ctx context.Context, keys []Key) ([]*T, error)
}

// Config configures a Coalescer.
type Config[T any] struct {
	// Cache is the shared TTL cache holding both results and pending
	// markers. Multiple coalescers (e.g. the full and icon-light app
	// namespaces) may share one cache instance.
	Cache *ttlcache.Cache[string, any]

	// Backing performs cache-miss reads.
	Backing Backing[T]

	// KeysOf returns every key a fetched entity should be cached under.
	KeysOf func(*T) []Key

	// Namespace prefixes result keys, e.g. "apps" -> "apps:uid:<v>".
	Namespace string

	// PendingNamespace prefixes pending markers, e.g. "pending_app".
	PendingNamespace string

	// ResultTTL bounds result entries. Default 5 minutes.
	ResultTTL time.Duration

	// PendingTTL bounds pending markers; it is deliberately short so a
	// marker whose holder died cannot lock the key out permanently.
	// Default 5 seconds.
	PendingTTL time.Duration

	// Metrics is optional.
	Metrics Metrics
}

// Coalescer is a single-flight, multi-key, TTL-backed entity cache.
type Coalescer[T any] struct {
	cache      *ttlcache.Cache[string, any]
	backing    Backing[T]
	keysOf     func(*T) []Key
	namespace  string
	pendingNS  string
	resultTTL  time.Duration
	pendingTTL time.Duration
	metrics    Metrics

	// mu serializes pending-marker registration only; backing reads and
	// waits happen outside it.
	mu sync.Mutex
}

// pending is the marker for an in-flight backing read. Waiters block on done
// and then read val/err exactly once.
type pending[T any] struct {
	done chan struct{}
	val  *T
	err  error
}

func newPending[T any]() *pending[T] {
	return &pending[T]{done: make(chan struct{})}
}

// NewCoalescer creates a Coalescer from the config.
func NewCoalescer[T any](cfg Config[T]) *Coalescer[T] {
	if cfg.ResultTTL == 0 {
		cfg.ResultTTL = 5 * time.Minute
	}
	if cfg.PendingTTL == 0 {
		cfg.PendingTTL = 5 * time.Second
	}
	return &Coalescer[T]{
		cache:      cfg.Cache,
		backing:    cfg.Backing,
		keysOf:     cfg.KeysOf,
		namespace:  cfg.Namespace,
		pendingNS:  cfg.PendingNamespace,
		resultTTL:  cfg.ResultTTL,
		pendingTTL: cfg.PendingTTL,
		metrics:    cfg.Metrics,
	}
}

func (c *Coalescer[T]) resultKey(k Key) string {
	return c.namespace + ":" + string(k.Kind) + ":" + k.Value
}

func (c *Coalescer[T]) pendingKey(k Key) string {
	return c.pendingNS + ":" + string(k.Kind) + ":" + k.Value
}

// cached returns the cached entity for a key, if present.
func (c *Coalescer[T]) cached(k Key) (*T, bool) {
	item := c.cache.Get(c.resultKey(k))
	if item == nil {
		return nil, false
	}
	val, ok := item.Value().(*T)
	if !ok {
		return nil, false
	}
	return val, true
}

// populate stores an entity under every key it answers to.
func (c *Coalescer[T]) populate(val *T) {
	for _, k := range c.keysOf(val) {
		c.cache.Set(c.resultKey(k), val, c.resultTTL)
	}
}

// shallowCopy lets callers mutate or strip fields on returned entities
// without corrupting the cache.
func shallowCopy[T any](val *T) *T {
	if val == nil {
		return nil
	}
	cp := *val
	return &cp
}

// Put inserts an entity under every key it answers to without consulting the
// backing store. Used by whole-table refreshes.
func (c *Coalescer[T]) Put(val *T) {
	if val != nil {
		c.populate(val)
	}
}

// GetOne resolves a single specifier.
//
// A cache hit returns a shallow copy. On a miss, if another goroutine already
// has a backing read in flight for the same key, the call awaits that read
// instead of issuing its own; otherwise it registers a pending marker,
// performs the read, populates the cache under every key kind, and resolves
// the marker for any concurrent waiters. The marker is cleared even when the
// read fails, so a failed read cannot wedge the key.
//
// Returns (nil, nil) when the entity does not exist.
func (c *Coalescer[T]) GetOne(ctx context.Context, key Key) (*T, error) {
	if val, ok := c.cached(key); ok {
		c.recordHit()
		return shallowCopy(val), nil
	}

	c.mu.Lock()
	// Re-check under the lock: the read may have completed while we waited.
	if val, ok := c.cached(key); ok {
		c.mu.Unlock()
		c.recordHit()
		return shallowCopy(val), nil
	}

	pk := c.pendingKey(key)
	if item := c.cache.Get(pk); item != nil {
		if p, ok := item.Value().(*pending[T]); ok {
			c.mu.Unlock()
			c.recordCoalesced()
			return c.await(ctx, p)
		}
	}

	p := newPending[T]()
	c.cache.Set(pk, p, c.pendingTTL)
	c.mu.Unlock()

	c.recordMiss()

	val, err := c.backing.FetchOne(ctx, key)

	// Resolve waiters and clear the marker regardless of outcome.
	p.val, p.err = val, err
	if err == nil && val != nil {
		c.populate(val)
	}
	close(p.done)
	c.cache.Delete(pk)

	if err != nil {
		c.recordFetchError()
		return nil, err
	}
	return shallowCopy(val), nil
}

// await blocks until an in-flight read resolves.
func (c *Coalescer[T]) await(ctx context.Context, p *pending[T]) (*T, error) {
	select {
	case <-p.done:
		if p.err != nil {
			return nil, p.err
		}
		return shallowCopy(p.val), nil
	case <-ctx.Done():
		// The backing read keeps running; only this waiter gives up.
		return nil, ctx.Err()
	}
}

// GetMany resolves a batch of specifiers, returning results in input order.
// Missing entities yield nil at their position.
//
// Specifiers are partitioned into cache hits, keys with a read already in
// flight (awaited), and truly-missing keys, which are de-duplicated and
// fetched with one batched backing read across all key kinds. Every pending
// marker registered by this batch is resolved when the read completes -- to
// the fetched entity, to nil when no row matched, or to the batch's error --
// and cleared in all cases.
func (c *Coalescer[T]) GetMany(ctx context.Context, keys []Key) ([]*T, error) {
	results := make([]*T, len(keys))

	type slotWait struct {
		slot int
		p    *pending[T]
	}
	type slotFetch struct {
		slot int
		key  Key
	}

	var (
		waits   []slotWait
		fetches []slotFetch
		// registered maps result-key -> marker for de-duplicated misses.
		registered = make(map[string]*pending[T])
		missing    []Key
	)

	c.mu.Lock()
	for i, key := range keys {
		if val, ok := c.cached(key); ok {
			c.recordHit()
			results[i] = shallowCopy(val)
			continue
		}

		rk := c.resultKey(key)
		if p, ok := registered[rk]; ok {
			// Duplicate specifier within this batch.
			waits = append(waits, slotWait{slot: i, p: p})
			continue
		}

		pk := c.pendingKey(key)
		if item := c.cache.Get(pk); item != nil {
			if p, ok := item.Value().(*pending[T]); ok {
				c.recordCoalesced()
				waits = append(waits, slotWait{slot: i, p: p})
				continue
			}
		}

		p := newPending[T]()
		c.cache.Set(pk, p, c.pendingTTL)
		registered[rk] = p
		missing = append(missing, key)
		fetches = append(fetches, slotFetch{slot: i, key: key})
		c.recordMiss()
	}
	c.mu.Unlock()

	var fetched []*T
	var fetchErr error
	if len(missing) > 0 {
		c.recordBatch(len(missing))
		fetched, fetchErr = c.backing.FetchBatch(ctx, missing)

		// Index fetched rows under every key kind so each registered marker
		// can find its row.
		byKey := make(map[string]*T)
		if fetchErr == nil {
			for _, row := range fetched {
				c.populate(row)
				for _, k := range c.keysOf(row) {
					byKey[c.resultKey(k)] = row
				}
			}
		}

		// Resolve and clear every marker this batch registered. A marker
		// with no matching row resolves to nil so waiters never hang; a
		// failed read rejects them all with the same error.
		for _, f := range fetches {
			rk := c.resultKey(f.key)
			p := registered[rk]
			if fetchErr != nil {
				p.err = fetchErr
			} else {
				p.val = byKey[rk]
			}
			close(p.done)
			c.cache.Delete(c.pendingKey(f.key))
			if fetchErr == nil {
				results[f.slot] = shallowCopy(p.val)
			}
		}

		if fetchErr != nil {
			c.recordFetchError()
			return nil, fetchErr
		}
	}

	// Reassemble awaited results into caller order.
	for _, w := range waits {
		val, err := c.await(ctx, w.p)
		if err != nil {
			return nil, err
		}
		results[w.slot] = val
	}

	return results, nil
}
