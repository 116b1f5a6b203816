package wasmhost

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/citadel-abi/resource"
)

// args decodes a host function's parameters in order. The first failed
// memory access sticks; later accessors return zero values.
type args struct {
	stack []uint64
	i     int
	mem   *Memory
	err   error
}

func (a *args) next() uint64 {
	v := a.stack[a.i]
	a.i++
	return v
}

func (a *args) handle() resource.Handle {
	return resource.Handle(a.next())
}

func (a *args) u32() uint32 {
	return api.DecodeU32(a.next())
}

func (a *args) u64() uint64 {
	return a.next()
}

func (a *args) i64() int64 {
	return int64(a.next())
}

// bytes reads a (ptr, len) pair.
func (a *args) bytes() []byte {
	ptr, n := a.u32(), a.u32()
	if a.err != nil {
		return nil
	}
	b, err := a.mem.Read(ptr, n)
	if err != nil {
		a.err = err
		return nil
	}
	return b
}

func (a *args) str() string {
	return string(a.bytes())
}

// out reads an out-pointer and checks that size bytes fit behind it, so
// that writing the result cannot fail once the operation has run.
func (a *args) out(size uint32) uint32 {
	ptr := a.u32()
	if a.err != nil {
		return 0
	}
	if err := a.mem.Check(ptr, size); err != nil {
		a.err = err
	}
	return ptr
}

// Err returns the first decoding failure.
func (a *args) Err() error {
	return a.err
}

func (a *args) putU64(out uint32, v uint64) error {
	if err := a.mem.WriteU64(out, v); err != nil {
		a.err = err
		return err
	}
	return nil
}

func (a *args) putU32(out uint32, v uint32) error {
	if err := a.mem.WriteU32(out, v); err != nil {
		a.err = err
		return err
	}
	return nil
}

func (a *args) putHandle(out uint32, h resource.Handle) error {
	return a.putU64(out, uint64(h))
}

func (a *args) putBool(out uint32, v bool) error {
	var u uint32
	if v {
		u = 1
	}
	return a.putU32(out, u)
}
