package abi

import (
	"encoding/json"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/inspect"
	"github.com/wippyai/citadel-abi/resource"
)

// BufferLen is buffer_len. It accepts plain and secret buffers.
func (c *Context) BufferLen(h resource.Handle) (uint64, error) {
	return run(c, "buffer_len", func() (uint64, error) {
		n, err := c.b.bufs.Len(h)
		return uint64(n), err
	})
}

// BufferRead is buffer_read. It copies up to len(dst) bytes and returns the
// number copied; a short dst is not an error.
func (c *Context) BufferRead(h resource.Handle, dst []byte) (int, error) {
	return run(c, "buffer_read", func() (int, error) {
		return c.b.bufs.Read(h, dst)
	})
}

// BufferBytes returns a copy of a buffer's contents. It is the Go-side
// convenience for buffer_len followed by buffer_read.
func (c *Context) BufferBytes(h resource.Handle) ([]byte, error) {
	return run(c, "buffer_read", func() ([]byte, error) {
		return c.b.bufs.Bytes(h)
	})
}

// BufferRelease is buffer_release. Secret buffers are refused with
// TypeMismatch and must go through SecretRelease.
func (c *Context) BufferRelease(h resource.Handle) error {
	return c.call("buffer_release", func() error {
		return c.b.bufs.Release(h)
	})
}

// SecretRelease is secret_release. The bytes are zeroed before the handle
// is freed.
func (c *Context) SecretRelease(h resource.Handle) error {
	return c.call("secret_release", func() error {
		return c.b.bufs.ReleaseSecret(h)
	})
}

// HandleFamily is handle_family: the family tag of any live handle.
func (c *Context) HandleFamily(h resource.Handle) (resource.Family, error) {
	return run(c, "handle_family", func() (resource.Family, error) {
		fam, ok := c.b.reg.Family(h)
		if !ok {
			return resource.FamilyInvalid, errors.InvalidHandle(errors.PhaseResolve, uint64(h))
		}
		return fam, nil
	})
}

// Bech32Info is bech32_info. The returned buffer holds the JSON inspection
// record; the call succeeds even when the string is not recognized, in
// which case the record's own status says why.
func (c *Context) Bech32Info(s string) (resource.Handle, error) {
	return run(c, "bech32_info", func() (resource.Handle, error) {
		raw, err := json.Marshal(inspect.Inspect(s))
		if err != nil {
			return 0, errors.Serialization(nil, "bech32 info: %v", err)
		}
		return c.b.bufs.Put(raw)
	})
}
