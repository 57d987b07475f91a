// Package dedupe maps dataset fingerprints to the analysis that first
// processed them, so identical uploads are answered once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Index records which analysis owns a dataset fingerprint.
type Index interface {
	// Lookup returns the analysis id recorded for fingerprint.
	Lookup(ctx context.Context, fingerprint string) (string, bool)

	// Remember atomically records id for fingerprint unless one is already
	// recorded. It returns the owning id and whether it was already present.
	Remember(ctx context.Context, fingerprint, id string) (string, bool)

	// Forget drops fingerprint so the same data can be analysed again, for
	// example after the first attempt failed or was rejected by the queue.
	Forget(ctx context.Context, fingerprint string)

	Size() int64
}

// node is one entry of the recency list; head is the newest.
type node struct {
	fingerprint string
	id          string
	prev, next  *node
}

func (n *node) reset() {
	n.fingerprint = ""
	n.id = ""
	n.prev = nil
	n.next = nil
}

// inMemoryIndex keeps entries in a map plus a doubly linked list ordered by
// insertion. When bounded, the oldest entry is evicted first.
type inMemoryIndex struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node
	tail     *node
	maxSize  int // 0 or negative = unbounded
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryIndex creates an in-memory fingerprint index.
func NewInMemoryIndex(opts ...Option) Index {
	d := &inMemoryIndex{
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.entries = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryIndex) Lookup(_ context.Context, fingerprint string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.entries[fingerprint]
	if !ok {
		return "", false
	}
	return n.id, true
}

func (d *inMemoryIndex) Remember(_ context.Context, fingerprint, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[fingerprint]; ok {
		return n.id, true
	}

	if d.maxSize > 0 && len(d.entries) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.fingerprint = fingerprint
	n.id = id
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.entries[fingerprint] = n
	d.size.Add(1)
	return id, false
}

func (d *inMemoryIndex) Forget(_ context.Context, fingerprint string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, ok := d.entries[fingerprint]; ok {
		d.unlink(n)
	}
}

// evictOldest removes the tail. Must be called with d.mu held.
func (d *inMemoryIndex) evictOldest() {
	if d.tail == nil {
		return
	}
	d.unlink(d.tail)
}

// unlink removes n from the list and map. Must be called with d.mu held.
func (d *inMemoryIndex) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.entries, n.fingerprint)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the current number of entries.
func (d *inMemoryIndex) Size() int64 {
	return d.size.Load()
}
