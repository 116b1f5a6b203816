// Package wasmhost exposes a Boundary to WebAssembly guests as the wazero
// host module "citadel".
//
// Every function except context_new takes the caller's context handle as
// its first i64 parameter and returns the status code as an i32. Handles
// and 64-bit values are i64; indices, schemes and networks are i32. Byte
// and string inputs are (ptr, len) pairs in guest memory. Results are
// written to guest out-pointers: handles and 64-bit values as 8 bytes
// little-endian, booleans and 32-bit values as 4 bytes. An out-of-bounds
// pointer is InvalidArgument and the operation does not run.
package wasmhost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/citadel-abi/abi"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/resource"
)

// ModuleName is the import module name guests link against.
const ModuleName = "citadel"

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Function describes one exported host function.
type Function struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType

	handler api.GoModuleFunc
}

// Host builds the host module for one Boundary.
type Host struct {
	b     *abi.Boundary
	log   *zap.Logger
	funcs []Function
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger for host-side failures that cannot reach a
// status record.
func WithLogger(l *zap.Logger) Option {
	return func(h *Host) {
		h.log = l
	}
}

// New creates a host exposing b.
func New(b *abi.Boundary, opts ...Option) *Host {
	h := &Host{b: b, log: abi.Logger()}
	for _, opt := range opts {
		opt(h)
	}
	h.define()
	return h
}

// Functions returns the host function catalogue in export order.
func (h *Host) Functions() []Function {
	out := make([]Function, len(h.funcs))
	copy(out, h.funcs)
	return out
}

// Lookup returns the function named name.
func (h *Host) Lookup(name string) (Function, bool) {
	for _, f := range h.funcs {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Instantiate registers the host module in r.
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(ModuleName)
	for _, f := range h.funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.handler, f.Params, f.Results).
			WithName(f.Name).
			Export(f.Name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate host module %q: %w", ModuleName, err)
	}
	h.log.Debug("host module instantiated",
		zap.String("module", ModuleName),
		zap.Int("functions", len(h.funcs)))
	return mod, nil
}

func status(code errors.Code) uint64 {
	return api.EncodeI32(int32(code))
}

// register adds a raw host function returning one i32 status.
func (h *Host) register(name string, params []api.ValueType, fn api.GoModuleFunc) {
	h.funcs = append(h.funcs, Function{
		Name:    name,
		Params:  params,
		Results: []api.ValueType{i32},
		handler: fn,
	})
}

// op adds a function whose first parameter is a context handle. fn must
// decode all of its arguments and check args.Err before running the
// operation. Decoding failures are recorded on the context under name.
func (h *Host) op(name string, params []api.ValueType, fn func(*abi.Context, *args) error) {
	full := append([]api.ValueType{i64}, params...)
	h.register(name, full, func(_ context.Context, mod api.Module, stack []uint64) {
		c, err := h.b.Context(resource.Handle(stack[0]))
		if err != nil {
			h.log.Debug("host call with unusable context",
				zap.String("op", name),
				zap.Uint64("context", stack[0]),
				zap.Error(err))
			stack[0] = status(errors.CodeOf(err))
			return
		}

		a := &args{stack: stack, i: 1, mem: WrapMemory(mod.Memory())}
		err = fn(c, a)
		if a.err != nil {
			stack[0] = status(c.Fail(name, a.err))
			return
		}
		stack[0] = status(errors.CodeOf(err))
	})
}

func handleToHandle(h *Host, name string, fn func(*abi.Context, resource.Handle) (resource.Handle, error)) {
	h.op(name, []api.ValueType{i64, i32}, func(c *abi.Context, a *args) error {
		in, out := a.handle(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		v, err := fn(c, in)
		if err != nil {
			return err
		}
		return a.putHandle(out, v)
	})
}

func handleToU64(h *Host, name string, fn func(*abi.Context, resource.Handle) (uint64, error)) {
	h.op(name, []api.ValueType{i64, i32}, func(c *abi.Context, a *args) error {
		in, out := a.handle(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		v, err := fn(c, in)
		if err != nil {
			return err
		}
		return a.putU64(out, v)
	})
}

func handleToBool(h *Host, name string, fn func(*abi.Context, resource.Handle) (bool, error)) {
	h.op(name, []api.ValueType{i64, i32}, func(c *abi.Context, a *args) error {
		in, out := a.handle(), a.out(4)
		if err := a.Err(); err != nil {
			return err
		}
		v, err := fn(c, in)
		if err != nil {
			return err
		}
		return a.putBool(out, v)
	})
}

func bytesToHandle(h *Host, name string, fn func(*abi.Context, []byte) (resource.Handle, error)) {
	h.op(name, []api.ValueType{i32, i32, i32}, func(c *abi.Context, a *args) error {
		in, out := a.bytes(), a.out(8)
		if err := a.Err(); err != nil {
			return err
		}
		v, err := fn(c, in)
		if err != nil {
			return err
		}
		return a.putHandle(out, v)
	})
}

func stringToHandle(h *Host, name string, fn func(*abi.Context, string) (resource.Handle, error)) {
	bytesToHandle(h, name, func(c *abi.Context, b []byte) (resource.Handle, error) {
		return fn(c, string(b))
	})
}

func destroy(h *Host, name string, fn func(*abi.Context, resource.Handle) error) {
	h.op(name, []api.ValueType{i64}, func(c *abi.Context, a *args) error {
		return fn(c, a.handle())
	})
}
