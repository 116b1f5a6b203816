package resource

import (
	"context"

	"github.com/wippyai/citadel-abi/errors"
)

// Typed is a type-safe view of one family in a Registry.
type Typed[T any] struct {
	reg *Registry
	fam Family
}

// NewTyped binds a view of fam over reg.
func NewTyped[T any](reg *Registry, fam Family) *Typed[T] {
	return &Typed[T]{reg: reg, fam: fam}
}

// Family returns the bound family.
func (t *Typed[T]) Family() Family {
	return t.fam
}

// Insert registers value under the bound family.
func (t *Typed[T]) Insert(value T) (Handle, error) {
	return t.reg.Insert(t.fam, value)
}

// Create runs ctor and registers its result under the bound family.
func (t *Typed[T]) Create(ctor func() (T, error)) (Handle, error) {
	return t.reg.Create(t.fam, func() (any, error) {
		v, err := ctor()
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// With runs fn with the typed object under a lease.
func (t *Typed[T]) With(h Handle, access Access, fn func(T) error) error {
	return t.reg.With(h, t.fam, access, func(v any) error {
		tv, ok := v.(T)
		if !ok {
			return errors.Internal(errors.PhaseResolve, "registry entry holds unexpected Go type", nil)
		}
		return fn(tv)
	})
}

// WithContext is With bounded by ctx while waiting for the lease.
func (t *Typed[T]) WithContext(ctx context.Context, h Handle, access Access, fn func(T) error) error {
	return t.reg.WithContext(ctx, h, t.fam, access, func(v any) error {
		tv, ok := v.(T)
		if !ok {
			return errors.Internal(errors.PhaseResolve, "registry entry holds unexpected Go type", nil)
		}
		return fn(tv)
	})
}

// Destroy ends the life of h.
func (t *Typed[T]) Destroy(h Handle) error {
	return t.reg.Destroy(h, t.fam)
}

// Len returns the number of live handles in the family.
func (t *Typed[T]) Len() int {
	return t.reg.Count(t.fam)
}

// Each iterates over live objects in the family.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.reg.Each(func(h Handle, fam Family, v any) bool {
		if fam != t.fam {
			return true
		}
		tv, ok := v.(T)
		if !ok {
			return true
		}
		return fn(h, tv)
	})
}
