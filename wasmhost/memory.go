package wasmhost

import (
	"github.com/tetratelabs/wazero/api"

	citadel "github.com/wippyai/citadel-abi"
	"github.com/wippyai/citadel-abi/errors"
)

var _ citadel.Memory = (*Memory)(nil)

// Memory adapts a guest's wazero api.Memory to bounds-checked reads and
// writes. Every out-of-bounds access is an InvalidArgument.
type Memory struct {
	Mem api.Memory
}

// WrapMemory wraps mem. A nil mem yields a Memory whose every access fails.
func WrapMemory(mem api.Memory) *Memory {
	return &Memory{Mem: mem}
}

// Check reports whether [offset, offset+length) lies inside memory.
func (m *Memory) Check(offset, length uint32) error {
	if m.Mem == nil {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
			Path("memory").
			Detail("guest exports no memory").
			Build()
	}
	if uint64(offset)+uint64(length) > uint64(m.Mem.Size()) {
		return outOfBounds("access", offset, length)
	}
	return nil
}

// Read copies length bytes starting at offset. The copy never aliases
// guest memory.
func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	if err := m.Check(offset, length); err != nil {
		return nil, err
	}
	view, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, length)
	}
	return append([]byte(nil), view...), nil
}

// Write writes data at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if err := m.Check(offset, uint32(len(data))); err != nil {
		return err
	}
	if !m.Mem.Write(offset, data) {
		return outOfBounds("write", offset, uint32(len(data)))
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if err := m.Check(offset, 4); err != nil {
		return err
	}
	if !m.Mem.WriteUint32Le(offset, value) {
		return outOfBounds("write", offset, 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if err := m.Check(offset, 8); err != nil {
		return err
	}
	if !m.Mem.WriteUint64Le(offset, value) {
		return outOfBounds("write", offset, 8)
	}
	return nil
}

func outOfBounds(what string, offset, length uint32) *errors.Error {
	return errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
		Path("memory").
		Detail("memory %s out of bounds: offset=%d, length=%d", what, offset, length).
		Build()
}
