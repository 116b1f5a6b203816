// Package guest builds minimal WebAssembly guest modules that import host
// functions and re-export them as trampolines next to a linear memory.
//
// The generated module lets Go tests drive a host module exactly as a
// compiled guest would: every call crosses the wasm boundary and every
// pointer argument refers to the guest's own memory.
package guest

import (
	"github.com/tetratelabs/wazero/api"
)

// MemoryExport is the export name of the guest's linear memory.
const MemoryExport = "memory"

// Builder assembles a guest module.
type Builder struct {
	hostModule string
	pages      uint32
	funcs      []fn
}

type fn struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

// NewBuilder creates a builder importing from hostModule with a one page
// memory.
func NewBuilder(hostModule string) *Builder {
	return &Builder{hostModule: hostModule, pages: 1}
}

// Import adds a host function. The guest exports a trampoline with the
// same name and signature.
func (b *Builder) Import(name string, params, results []api.ValueType) *Builder {
	b.funcs = append(b.funcs, fn{name: name, params: params, results: results})
	return b
}

// Pages sets the initial memory size in 64KiB pages.
func (b *Builder) Pages(n uint32) *Builder {
	b.pages = n
	return b
}

// Len returns the number of imported functions.
func (b *Builder) Len() int {
	return len(b.funcs)
}

// Build generates the module bytes.
func (b *Builder) Build() []byte {
	var wasm []byte
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x01, b.typeSection())
		wasm = appendSection(wasm, 0x02, b.importSection())
		wasm = appendSection(wasm, 0x03, b.funcSection())
	}
	wasm = appendSection(wasm, 0x05, b.memorySection())
	wasm = appendSection(wasm, 0x07, b.exportSection())
	if len(b.funcs) > 0 {
		wasm = appendSection(wasm, 0x0a, b.codeSection())
	}
	return wasm
}

func (b *Builder) typeSection() []byte {
	section := encodeULEB128(uint32(len(b.funcs)))
	for _, f := range b.funcs {
		section = append(section, 0x60)
		section = append(section, encodeULEB128(uint32(len(f.params)))...)
		for _, t := range f.params {
			section = append(section, valType(t))
		}
		section = append(section, encodeULEB128(uint32(len(f.results)))...)
		for _, t := range f.results {
			section = append(section, valType(t))
		}
	}
	return section
}

func (b *Builder) importSection() []byte {
	section := encodeULEB128(uint32(len(b.funcs)))
	for i, f := range b.funcs {
		section = appendName(section, b.hostModule)
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, encodeULEB128(uint32(i))...)
	}
	return section
}

func (b *Builder) funcSection() []byte {
	section := encodeULEB128(uint32(len(b.funcs)))
	for i := range b.funcs {
		section = append(section, encodeULEB128(uint32(i))...)
	}
	return section
}

func (b *Builder) memorySection() []byte {
	section := []byte{0x01, 0x00}
	return append(section, encodeULEB128(b.pages)...)
}

func (b *Builder) exportSection() []byte {
	section := encodeULEB128(uint32(len(b.funcs) + 1))
	section = appendName(section, MemoryExport)
	section = append(section, 0x02, 0x00)

	imported := uint32(len(b.funcs))
	for i, f := range b.funcs {
		section = appendName(section, f.name)
		section = append(section, 0x00)
		section = append(section, encodeULEB128(imported+uint32(i))...)
	}
	return section
}

func (b *Builder) codeSection() []byte {
	section := encodeULEB128(uint32(len(b.funcs)))
	for i, f := range b.funcs {
		body := trampoline(uint32(i), len(f.params))
		section = append(section, encodeULEB128(uint32(len(body)))...)
		section = append(section, body...)
	}
	return section
}

// trampoline forwards every parameter to the imported function at idx.
func trampoline(idx uint32, params int) []byte {
	body := []byte{0x00}
	for i := 0; i < params; i++ {
		body = append(body, 0x20)
		body = append(body, encodeULEB128(uint32(i))...)
	}
	body = append(body, 0x10)
	body = append(body, encodeULEB128(idx)...)
	return append(body, 0x0b)
}
