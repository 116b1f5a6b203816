package guest

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestULEB128(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
	}
	for _, tt := range tests {
		got := encodeULEB128(tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("encode(%d) = %x, want %x", tt.v, got, tt.want)
		}
		v, n := decodeULEB128(got)
		if v != tt.v || n != len(got) {
			t.Errorf("decode(%x) = %d/%d, want %d/%d", got, v, n, tt.v, len(got))
		}
	}
}

func TestBuild_MemoryOnly(t *testing.T) {
	wasm := NewBuilder("host").Pages(2).Build()
	if !bytes.HasPrefix(wasm, []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}) {
		t.Fatalf("missing header: %x", wasm[:8])
	}

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, wasm)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	mem := mod.ExportedMemory(MemoryExport)
	if mem == nil {
		t.Fatal("memory not exported")
	}
	if got := mem.Size(); got != 2*65536 {
		t.Errorf("memory size = %d, want %d", got, 2*65536)
	}
}

func TestBuild_TrampolinesReachHost(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var sawMemory bool
	_, err := r.NewHostModuleBuilder("host").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, mod api.Module, stack []uint64) {
			sawMemory = mod.Memory() != nil
			stack[0] = api.EncodeI32(api.DecodeI32(stack[0]) + int32(stack[1]))
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, []api.ValueType{api.ValueTypeI32}).
		Export("add").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(context.Context, api.Module, []uint64) {}),
			nil, nil).
		Export("noop").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}

	b := NewBuilder("host").
		Import("add", []api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, []api.ValueType{api.ValueTypeI32}).
		Import("noop", nil, nil)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}

	mod, err := r.Instantiate(ctx, b.Build())
	if err != nil {
		t.Fatalf("instantiate guest: %v", err)
	}

	res, err := mod.ExportedFunction("add").Call(ctx, api.EncodeI32(40), 2)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := api.DecodeI32(res[0]); got != 42 {
		t.Errorf("add = %d, want 42", got)
	}
	if !sawMemory {
		t.Error("host function did not see the guest memory")
	}

	if _, err := mod.ExportedFunction("noop").Call(ctx); err != nil {
		t.Fatalf("noop: %v", err)
	}
}
