package resource

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrClosed    = errors.New("resource registry closed")
	ErrExhausted = errors.New("handle space exhausted")
	ErrLimit     = errors.New("live handle limit reached")
)

// Entry is one live slot in a backend. The value is set once at creation.
// The per-entry lock serializes exclusive work on a single handle; the
// backend lock is never held while an entry lock is taken.
type Entry struct {
	value  any
	mu     sync.RWMutex
	handle Handle
	family Family
	dead   atomic.Bool
}

// Handle returns the entry's handle.
func (e *Entry) Handle() Handle { return e.handle }

// Family returns the entry's type tag.
func (e *Entry) Family() Family { return e.family }

// LocalBackend is an in-memory handle backend.
// Handles come from a monotonic counter and are never reused, so a stale
// handle can only ever resolve to "unknown".
type LocalBackend struct {
	entries map[Handle]*Entry
	next    uint64
	limit   int
	mu      sync.RWMutex
	closed  bool
}

// NewLocalBackend creates a new in-memory backend. A limit of zero or less
// means no cap on live entries.
func NewLocalBackend(limit int) *LocalBackend {
	return &LocalBackend{
		entries: make(map[Handle]*Entry, 64),
		limit:   limit,
	}
}

// Create stores a value and returns a fresh handle.
func (b *LocalBackend) Create(fam Family, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if b.next == ^uint64(0) {
		return 0, ErrExhausted
	}
	if b.limit > 0 && len(b.entries) >= b.limit {
		return 0, ErrLimit
	}

	b.next++
	h := Handle(b.next)
	b.entries[h] = &Entry{
		handle: h,
		family: fam,
		value:  value,
	}
	return h, nil
}

// Lookup returns the live entry for a handle.
func (b *LocalBackend) Lookup(h Handle) (*Entry, bool) {
	if h == 0 {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[h]
	return e, ok
}

// Remove unlinks an entry and marks it dead. In-flight leases keep their
// pointer; new lookups fail.
func (b *LocalBackend) Remove(h Handle) (*Entry, bool) {
	if h == 0 {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[h]
	if !ok {
		return nil, false
	}
	delete(b.entries, h)
	e.dead.Store(true)
	return e, true
}

// Drain unlinks every entry, marks them dead and refuses further creates.
// The counter is kept, so handles minted before Drain stay unknown forever.
func (b *LocalBackend) Drain() []*Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	out := make([]*Entry, 0, len(b.entries))
	for h, e := range b.entries {
		e.dead.Store(true)
		out = append(out, e)
		delete(b.entries, h)
	}
	return out
}

// Last returns the highest handle minted so far.
func (b *LocalBackend) Last() Handle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Handle(b.next)
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Each iterates over a snapshot of live entries in no particular order.
func (b *LocalBackend) Each(fn func(*Entry) bool) {
	b.mu.RLock()
	snapshot := make([]*Entry, 0, len(b.entries))
	for _, e := range b.entries {
		snapshot = append(snapshot, e)
	}
	b.mu.RUnlock()

	for _, e := range snapshot {
		if !fn(e) {
			break
		}
	}
}
