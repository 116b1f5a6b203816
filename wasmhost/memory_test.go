package wasmhost

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/wasmhost/internal/guest"
)

func guestMemory(t *testing.T) *Memory {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	mod, err := r.Instantiate(ctx, guest.NewBuilder(ModuleName).Build())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return WrapMemory(mod.Memory())
}

func TestMemory_ReadWrite(t *testing.T) {
	m := guestMemory(t)

	if err := m.Write(100, []byte("citadel")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := m.Read(100, 7)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "citadel" {
		t.Errorf("Read = %q", got)
	}

	// The copy must not alias guest memory.
	got[0] = 'X'
	again, _ := m.Read(100, 1)
	if again[0] != 'c' {
		t.Error("Read returned a view into guest memory")
	}

	if err := m.WriteU64(200, 0x0102030405060708); err != nil {
		t.Fatalf("WriteU64: %v", err)
	}
	if v, _ := m.Mem.ReadUint64Le(200); v != 0x0102030405060708 {
		t.Errorf("ReadUint64Le = %#x", v)
	}
	if err := m.WriteU32(300, 7); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
}

func TestMemory_OutOfBounds(t *testing.T) {
	m := guestMemory(t)
	size := m.Mem.Size()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"read past end", func() error { _, err := m.Read(size-2, 4); return err }},
		{"read overflowing offset", func() error { _, err := m.Read(0xffffffff, 2); return err }},
		{"write past end", func() error { return m.Write(size-1, []byte{1, 2}) }},
		{"u64 at end", func() error { return m.WriteU64(size-4, 1) }},
		{"u32 at end", func() error { return m.WriteU32(size, 1) }},
		{"check", func() error { return m.Check(size, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if errors.CodeOf(err) != errors.CodeInvalidArgument {
				t.Errorf("code = %v, want InvalidArgument (%v)", errors.CodeOf(err), err)
			}
		})
	}

	if err := m.Check(size, 0); err != nil {
		t.Errorf("zero-length access at end: %v", err)
	}
}

func TestMemory_Missing(t *testing.T) {
	m := WrapMemory(nil)
	if _, err := m.Read(0, 0); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Errorf("Read on missing memory: %v", err)
	}
}
