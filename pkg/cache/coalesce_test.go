package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// widget is the test entity: addressable by uid, name, and id.
type widget struct {
	ID   uint64
	UID  string
	Name string
	Note string
}

func widgetKeys(w *widget) []Key {
	return []Key{IDKey(w.ID), UIDKey(w.UID), NameKey(w.Name)}
}

// fakeBacking serves widgets from a map and counts backing reads. The
// optional gate blocks FetchOne until released, for coalescing tests.
type fakeBacking struct {
	mu       sync.Mutex
	byName   map[string]*widget
	fetches  atomic.Int64
	batches  atomic.Int64
	failWith error
	gate     chan struct{}
}

func (f *fakeBacking) lookup(key Key) *widget {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.byName {
		for _, k := range widgetKeys(w) {
			if k == key {
				return w
			}
		}
	}
	return nil
}

func (f *fakeBacking) FetchOne(_ context.Context, key Key) (*widget, error) {
	f.fetches.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.lookup(key), nil
}

func (f *fakeBacking) FetchBatch(_ context.Context, keys []Key) ([]*widget, error) {
	f.batches.Add(1)
	if f.failWith != nil {
		return nil, f.failWith
	}
	seen := map[uint64]bool{}
	var out []*widget
	for _, key := range keys {
		if w := f.lookup(key); w != nil && !seen[w.ID] {
			seen[w.ID] = true
			out = append(out, w)
		}
	}
	return out, nil
}

func newTestCoalescer(t *testing.T, backing *fakeBacking) *Coalescer[widget] {
	t.Helper()
	client := ttlcache.New[string, any]()
	return NewCoalescer(Config[widget]{
		Cache:            client,
		Backing:          backing,
		KeysOf:           widgetKeys,
		Namespace:        "widgets",
		PendingNamespace: "pending_widget",
	})
}

func testWidgets() *fakeBacking {
	return &fakeBacking{byName: map[string]*widget{
		"alpha": {ID: 1, UID: "uid-1", Name: "alpha"},
		"beta":  {ID: 2, UID: "uid-2", Name: "beta"},
		"gamma": {ID: 3, UID: "uid-3", Name: "gamma"},
	}}
}

func TestGetOne(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit under every key kind", func(t *testing.T) {
		backing := testWidgets()
		c := newTestCoalescer(t, backing)

		w, err := c.GetOne(ctx, NameKey("alpha"))
		if err != nil || w == nil || w.ID != 1 {
			t.Fatalf("expected alpha, got %+v err=%v", w, err)
		}
		if got := backing.fetches.Load(); got != 1 {
			t.Fatalf("expected 1 backing read, got %d", got)
		}

		// One fetch populated all three key kinds.
		for _, key := range []Key{IDKey(1), UIDKey("uid-1"), NameKey("alpha")} {
			if _, err := c.GetOne(ctx, key); err != nil {
				t.Fatalf("lookup by %s failed: %v", key.Kind, err)
			}
		}
		if got := backing.fetches.Load(); got != 1 {
			t.Errorf("expected no further backing reads, got %d", got)
		}
	})

	t.Run("not found is nil nil", func(t *testing.T) {
		c := newTestCoalescer(t, testWidgets())
		w, err := c.GetOne(ctx, NameKey("ghost"))
		if err != nil || w != nil {
			t.Errorf("expected (nil, nil), got %+v err=%v", w, err)
		}
	})

	t.Run("returned copy does not corrupt the cache", func(t *testing.T) {
		c := newTestCoalescer(t, testWidgets())
		first, err := c.GetOne(ctx, NameKey("alpha"))
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		first.Note = "mutated"

		second, err := c.GetOne(ctx, NameKey("alpha"))
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if second.Note != "" {
			t.Error("cached entity was mutated through a returned copy")
		}
	})

	t.Run("concurrent misses coalesce into one read", func(t *testing.T) {
		backing := testWidgets()
		backing.gate = make(chan struct{})
		c := newTestCoalescer(t, backing)

		const workers = 16
		var wg sync.WaitGroup
		errs := make([]error, workers)
		vals := make([]*widget, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				vals[i], errs[i] = c.GetOne(ctx, NameKey("alpha"))
			}(i)
		}

		// Let the single in-flight read proceed once everyone is queued.
		time.Sleep(20 * time.Millisecond)
		close(backing.gate)
		wg.Wait()

		for i := 0; i < workers; i++ {
			if errs[i] != nil || vals[i] == nil || vals[i].ID != 1 {
				t.Fatalf("worker %d: got %+v err=%v", i, vals[i], errs[i])
			}
		}
		if got := backing.fetches.Load(); got != 1 {
			t.Errorf("expected exactly 1 backing read, got %d", got)
		}
	})

	t.Run("failed read rejects waiters and clears the marker", func(t *testing.T) {
		backing := testWidgets()
		backing.failWith = errors.New("db down")
		c := newTestCoalescer(t, backing)

		if _, err := c.GetOne(ctx, NameKey("alpha")); err == nil {
			t.Fatal("expected error")
		}

		// The marker was cleared, so recovery retries the backing store.
		backing.failWith = nil
		w, err := c.GetOne(ctx, NameKey("alpha"))
		if err != nil || w == nil {
			t.Errorf("expected retry to succeed, got %+v err=%v", w, err)
		}
		if got := backing.fetches.Load(); got != 2 {
			t.Errorf("expected 2 backing reads, got %d", got)
		}
	})

	t.Run("canceled waiter gives up without killing the read", func(t *testing.T) {
		backing := testWidgets()
		backing.gate = make(chan struct{})
		c := newTestCoalescer(t, backing)

		go c.GetOne(ctx, NameKey("beta")) //nolint:errcheck

		time.Sleep(10 * time.Millisecond)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := c.GetOne(canceled, NameKey("beta")); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		close(backing.gate)
		time.Sleep(10 * time.Millisecond)

		// The original read completed and populated the cache.
		w, err := c.GetOne(ctx, NameKey("beta"))
		if err != nil || w == nil {
			t.Errorf("expected cached beta, got %+v err=%v", w, err)
		}
		if got := backing.fetches.Load(); got != 1 {
			t.Errorf("expected 1 backing read, got %d", got)
		}
	})
}

func TestGetMany(t *testing.T) {
	ctx := context.Background()

	t.Run("order preserved with nil for missing", func(t *testing.T) {
		backing := testWidgets()
		c := newTestCoalescer(t, backing)

		results, err := c.GetMany(ctx, []Key{
			NameKey("beta"),
			NameKey("ghost"),
			UIDKey("uid-1"),
			IDKey(3),
		})
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}
		if len(results) != 4 {
			t.Fatalf("expected 4 slots, got %d", len(results))
		}
		if results[0] == nil || results[0].Name != "beta" {
			t.Errorf("slot 0: %+v", results[0])
		}
		if results[1] != nil {
			t.Errorf("slot 1: expected nil for missing, got %+v", results[1])
		}
		if results[2] == nil || results[2].Name != "alpha" {
			t.Errorf("slot 2: %+v", results[2])
		}
		if results[3] == nil || results[3].Name != "gamma" {
			t.Errorf("slot 3: %+v", results[3])
		}
		if got := backing.batches.Load(); got != 1 {
			t.Errorf("expected 1 batched read, got %d", got)
		}
	})

	t.Run("duplicate specifiers fetch once", func(t *testing.T) {
		backing := testWidgets()
		c := newTestCoalescer(t, backing)

		results, err := c.GetMany(ctx, []Key{
			NameKey("alpha"),
			NameKey("alpha"),
			NameKey("alpha"),
		})
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}
		for i, w := range results {
			if w == nil || w.ID != 1 {
				t.Errorf("slot %d: %+v", i, w)
			}
		}
	})

	t.Run("hits skip the backing store", func(t *testing.T) {
		backing := testWidgets()
		c := newTestCoalescer(t, backing)

		if _, err := c.GetOne(ctx, NameKey("alpha")); err != nil {
			t.Fatalf("warm-up failed: %v", err)
		}
		results, err := c.GetMany(ctx, []Key{IDKey(1), UIDKey("uid-1")})
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}
		if results[0] == nil || results[1] == nil {
			t.Fatalf("expected hits, got %+v", results)
		}
		if got := backing.batches.Load(); got != 0 {
			t.Errorf("expected no batched reads, got %d", got)
		}
	})

	t.Run("batch error rejects all and clears markers", func(t *testing.T) {
		backing := testWidgets()
		backing.failWith = errors.New("db down")
		c := newTestCoalescer(t, backing)

		if _, err := c.GetMany(ctx, []Key{NameKey("alpha"), NameKey("beta")}); err == nil {
			t.Fatal("expected error")
		}

		backing.failWith = nil
		results, err := c.GetMany(ctx, []Key{NameKey("alpha"), NameKey("beta")})
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if results[0] == nil || results[1] == nil {
			t.Errorf("expected retry to resolve both, got %+v", results)
		}
	})

	t.Run("large batch across key kinds", func(t *testing.T) {
		many := map[string]*widget{}
		for i := 1; i <= 30; i++ {
			name := fmt.Sprintf("w%02d", i)
			many[name] = &widget{ID: uint64(i), UID: "uid-" + name, Name: name}
		}
		backing := &fakeBacking{byName: many}
		c := newTestCoalescer(t, backing)

		var keys []Key
		for i := 1; i <= 30; i++ {
			switch i % 3 {
			case 0:
				keys = append(keys, IDKey(uint64(i)))
			case 1:
				keys = append(keys, NameKey(fmt.Sprintf("w%02d", i)))
			default:
				keys = append(keys, UIDKey("uid-"+fmt.Sprintf("w%02d", i)))
			}
		}
		results, err := c.GetMany(ctx, keys)
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}
		for i, w := range results {
			if w == nil || w.ID != uint64(i+1) {
				t.Errorf("slot %d: %+v", i, w)
			}
		}
		if got := backing.batches.Load(); got != 1 {
			t.Errorf("expected 1 batched read, got %d", got)
		}
	})
}

func TestPut(t *testing.T) {
	ctx := context.Background()
	backing := testWidgets()
	c := newTestCoalescer(t, backing)

	c.Put(&widget{ID: 9, UID: "uid-9", Name: "delta"})

	w, err := c.GetOne(ctx, IDKey(9))
	if err != nil || w == nil || w.Name != "delta" {
		t.Fatalf("expected delta, got %+v err=%v", w, err)
	}
	if got := backing.fetches.Load(); got != 0 {
		t.Errorf("expected no backing reads, got %d", got)
	}
}

func TestKeyConstructors(t *testing.T) {
	if k := IDKey(42); k.Kind != KindID || k.Value != strconv.Itoa(42) {
		t.Errorf("unexpected id key: %+v", k)
	}
	if k := UIDKey("u"); k.Kind != KindUID || k.Value != "u" {
		t.Errorf("unexpected uid key: %+v", k)
	}
	if k := NameKey("n"); k.Kind != KindName || k.Value != "n" {
		t.Errorf("unexpected name key: %+v", k)
	}
}
