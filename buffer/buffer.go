// Package buffer implements caller-owned byte buffers on top of the handle
// registry.
//
// Plain buffers and secret buffers live in separate handle families, so a
// secret can only be released through ReleaseSecret, which zeroes it first.
package buffer

import (
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

// Buffer is an immutable byte sequence owned by the registry.
type Buffer struct {
	data   []byte
	secret bool
}

// Drop implements resource.Dropper. Secret buffers are wiped.
func (b *Buffer) Drop() {
	if b.secret {
		Wipe(b.data)
	}
	b.data = nil
}

// Table hands out buffers as handles.
type Table struct {
	reg *resource.Registry
}

// NewTable returns a buffer table over reg.
func NewTable(reg *resource.Registry) *Table {
	return &Table{reg: reg}
}

// Put copies data into a new plain buffer.
func (t *Table) Put(data []byte) (resource.Handle, error) {
	return t.reg.Insert(resource.FamilyBuffer, &Buffer{data: clone(data)})
}

// PutString stores s as a plain buffer.
func (t *Table) PutString(s string) (resource.Handle, error) {
	return t.reg.Insert(resource.FamilyBuffer, &Buffer{data: []byte(s)})
}

// PutSecret copies data into a new secret buffer.
func (t *Table) PutSecret(data []byte) (resource.Handle, error) {
	return t.reg.Insert(resource.FamilySecret, &Buffer{data: clone(data), secret: true})
}

// Adopt stores data as a secret buffer without copying. The caller must not
// touch data afterwards.
func (t *Table) Adopt(data []byte) (resource.Handle, error) {
	return t.reg.Insert(resource.FamilySecret, &Buffer{data: data, secret: true})
}

func (t *Table) with(h resource.Handle, fn func(*Buffer)) error {
	fam, ok := t.reg.Family(h)
	if !ok {
		return errors.InvalidHandle(errors.PhaseResolve, uint64(h))
	}
	if fam != resource.FamilyBuffer && fam != resource.FamilySecret {
		return errors.TypeMismatch(errors.PhaseResolve, uint64(h), resource.FamilyBuffer.String(), fam.String())
	}
	return t.reg.With(h, fam, resource.Shared, func(v any) error {
		fn(v.(*Buffer))
		return nil
	})
}

// Len returns the length of a plain or secret buffer.
func (t *Table) Len(h resource.Handle) (int, error) {
	var n int
	err := t.with(h, func(b *Buffer) {
		n = len(b.data)
	})
	return n, err
}

// Read copies the buffer into dst and returns the number of bytes copied.
func (t *Table) Read(h resource.Handle, dst []byte) (int, error) {
	var n int
	err := t.with(h, func(b *Buffer) {
		n = copy(dst, b.data)
	})
	return n, err
}

// Bytes returns a copy of the buffer contents.
func (t *Table) Bytes(h resource.Handle) ([]byte, error) {
	var out []byte
	err := t.with(h, func(b *Buffer) {
		out = clone(b.data)
	})
	return out, err
}

// Release frees a plain buffer. Secrets must go through ReleaseSecret.
func (t *Table) Release(h resource.Handle) error {
	return t.reg.Destroy(h, resource.FamilyBuffer)
}

// ReleaseSecret zeroes and frees a secret buffer.
func (t *Table) ReleaseSecret(h resource.Handle) error {
	return t.reg.Destroy(h, resource.FamilySecret)
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	clear(b)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
