package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wippyai/citadel-abi/errors"
)

// Registry maps handles to live objects with a family tag per entry.
// The registry-wide lock is held only to link or unlink entries; work on
// an object happens under its own entry lock via a Lease.
type Registry struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	maxHandles int
	first      Handle
}

// WithMaxHandles caps the number of simultaneously live handles.
func WithMaxHandles(n int) Option {
	return func(o *registryOptions) {
		o.maxHandles = n
	}
}

// WithFirstHandle makes h the first handle the registry mints. A registry
// that replaces an earlier one starts past that registry's LastHandle, so
// no stale handle value can name an object of the new registry.
func WithFirstHandle(h Handle) Option {
	return func(o *registryOptions) {
		o.first = h
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	backend := NewLocalBackend(o.maxHandles)
	if o.first > 1 {
		backend.next = uint64(o.first) - 1
	}
	return &Registry{
		backend: backend,
	}
}

// LastHandle returns the most recently minted handle, or 0 if none was.
// It keeps counting after Close.
func (r *Registry) LastHandle() Handle {
	return r.backend.Last()
}

// Create runs ctor outside any lock and registers its result.
// A constructor failure is reported as an allocation error carrying the cause.
func (r *Registry) Create(fam Family, ctor func() (any, error)) (Handle, error) {
	if fam == FamilyInvalid {
		return 0, errors.InvalidArgument(errors.PhaseCreate, "invalid handle family")
	}
	v, err := ctor()
	if err != nil {
		return 0, errors.Allocation(fam.String(), err)
	}
	return r.Insert(fam, v)
}

// Insert registers an already constructed value.
// If the registry refuses the value, the value is dropped.
func (r *Registry) Insert(fam Family, value any) (Handle, error) {
	if fam == FamilyInvalid {
		return 0, errors.InvalidArgument(errors.PhaseCreate, "invalid handle family")
	}
	h, err := r.backend.Create(fam, value)
	if err != nil {
		if d, ok := value.(Dropper); ok {
			d.Drop()
		}
		return 0, errors.Allocation(fam.String(), err)
	}

	r.notify(Event{
		Type:   EventCreated,
		Handle: h,
		Family: fam,
		Value:  value,
	})
	return h, nil
}

func (r *Registry) resolve(phase errors.Phase, h Handle, fam Family) (*Entry, error) {
	e, ok := r.backend.Lookup(h)
	if !ok {
		return nil, errors.InvalidHandle(phase, uint64(h))
	}
	if e.family != fam {
		return nil, errors.TypeMismatch(phase, uint64(h), fam.String(), e.family.String())
	}
	return e, nil
}

// Acquire resolves h, checks its family and locks the entry for the given
// access. The caller must Release the lease. Holding a lease while calling
// Destroy on the same handle deadlocks.
func (r *Registry) Acquire(h Handle, fam Family, access Access) (*Lease, error) {
	e, err := r.resolve(errors.PhaseResolve, h, fam)
	if err != nil {
		return nil, err
	}

	if access == Exclusive {
		e.mu.Lock()
	} else {
		e.mu.RLock()
	}
	return r.leased(e, access)
}

// AcquireContext is Acquire bounded by ctx. If other leases keep the entry
// locked until ctx ends, it fails with a timeout and takes nothing.
func (r *Registry) AcquireContext(ctx context.Context, h Handle, fam Family, access Access) (*Lease, error) {
	e, err := r.resolve(errors.PhaseResolve, h, fam)
	if err != nil {
		return nil, err
	}

	if e.tryLock(access) {
		return r.leased(e, access)
	}
	poll := minLockPoll
	t := time.NewTimer(poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, errors.New(errors.PhaseResolve, errors.KindTimeout).
				Family(fam.String()).
				Handle(uint64(h)).
				Detail("handle still in use when the deadline passed").
				Cause(ctx.Err()).
				Build()
		case <-t.C:
		}
		if e.tryLock(access) {
			return r.leased(e, access)
		}
		if e.dead.Load() {
			return nil, errors.InvalidHandle(errors.PhaseResolve, uint64(h))
		}
		poll = min(poll*2, maxLockPoll)
		t.Reset(poll)
	}
}

// Polling bounds for AcquireContext.
const (
	minLockPoll = 50 * time.Microsecond
	maxLockPoll = 5 * time.Millisecond
)

func (e *Entry) tryLock(access Access) bool {
	if access == Exclusive {
		return e.mu.TryLock()
	}
	return e.mu.TryRLock()
}

// leased finishes an acquisition whose entry lock is already held.
func (r *Registry) leased(e *Entry, access Access) (*Lease, error) {
	if e.dead.Load() {
		if access == Exclusive {
			e.mu.Unlock()
		} else {
			e.mu.RUnlock()
		}
		return nil, errors.InvalidHandle(errors.PhaseResolve, uint64(e.handle))
	}

	r.notify(Event{
		Type:   EventAcquired,
		Handle: e.handle,
		Family: e.family,
		Access: access,
	})
	return &Lease{reg: r, entry: e, access: access}, nil
}

// With acquires h, runs fn with the object and releases on every path.
func (r *Registry) With(h Handle, fam Family, access Access, fn func(any) error) error {
	l, err := r.Acquire(h, fam, access)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(l.Value())
}

// WithContext is With bounded by ctx while waiting for the lease.
func (r *Registry) WithContext(ctx context.Context, h Handle, fam Family, access Access, fn func(any) error) error {
	l, err := r.AcquireContext(ctx, h, fam, access)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(l.Value())
}

// Destroy ends the life of h. A wrong family leaves the handle live.
// Destroy waits for in-flight leases, then drops the object exactly once.
func (r *Registry) Destroy(h Handle, fam Family) error {
	if _, err := r.resolve(errors.PhaseDestroy, h, fam); err != nil {
		return err
	}
	e, ok := r.backend.Remove(h)
	if !ok {
		// lost a race with another Destroy
		return errors.InvalidHandle(errors.PhaseDestroy, uint64(h))
	}
	r.finalize(e)
	return nil
}

func (r *Registry) finalize(e *Entry) {
	// wait out in-flight leases
	e.mu.Lock()
	value := e.value
	e.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	r.notify(Event{
		Type:   EventDropped,
		Handle: e.handle,
		Family: e.family,
		Value:  value,
	})
}

// Family reports the family of a live handle.
func (r *Registry) Family(h Handle) (Family, bool) {
	e, ok := r.backend.Lookup(h)
	if !ok {
		return FamilyInvalid, false
	}
	return e.family, true
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return r.backend.Len()
}

// Each iterates over live handles. The value must not be mutated without
// acquiring a lease.
func (r *Registry) Each(fn func(Handle, Family, any) bool) {
	r.backend.Each(func(e *Entry) bool {
		if e.dead.Load() {
			return true
		}
		return fn(e.handle, e.family, e.value)
	})
}

// Count returns the number of live handles of one family.
func (r *Registry) Count(fam Family) int {
	n := 0
	r.backend.Each(func(e *Entry) bool {
		if e.family == fam && !e.dead.Load() {
			n++
		}
		return true
	})
	return n
}

// Close drops every live handle and refuses further creates.
// Calling Close again is a no-op.
func (r *Registry) Close() error {
	for _, e := range r.backend.Drain() {
		r.finalize(e)
	}
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnResourceEvent(e)
	}
}

// Lease is a held reference to a live entry.
type Lease struct {
	reg      *Registry
	entry    *Entry
	access   Access
	released atomic.Bool
}

// Value returns the leased object.
func (l *Lease) Value() any {
	return l.entry.value
}

// Handle returns the leased handle.
func (l *Lease) Handle() Handle {
	return l.entry.handle
}

// Release unlocks the entry. Releasing twice is a no-op.
func (l *Lease) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	if l.access == Exclusive {
		l.entry.mu.Unlock()
	} else {
		l.entry.mu.RUnlock()
	}
	l.reg.notify(Event{
		Type:   EventReleased,
		Handle: l.entry.handle,
		Family: l.entry.family,
		Access: l.access,
	})
}
