package main

import (
	stderrors "errors"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/citadel-abi/abi"
	"github.com/wippyai/citadel-abi/config"
	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/logging"
	"github.com/wippyai/citadel-abi/resource"
)

// argError marks a failure to take an argument across the C boundary. It is
// recorded on the caller's context without running the operation.
type argError struct {
	err error
}

func (e argError) Error() string { return e.err.Error() }
func (e argError) Unwrap() error { return e.err }

func nullArg(name string) error {
	return argError{errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
		Path(name).
		Detail("null pointer").
		Build()}
}

// bytesArg borrows n bytes at p for the duration of the call.
func bytesArg(name string, p unsafe.Pointer, n uintptr) ([]byte, error) {
	if p == nil {
		if n == 0 {
			return nil, nil
		}
		return nil, nullArg(name)
	}
	return unsafe.Slice((*byte)(p), n), nil
}

func initialize(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	abi.SetLogger(log)
	if err := abi.Init(cfg); err != nil {
		return err
	}
	log.Info("citadel initialized",
		zap.String("config", path),
		zap.String("network", cfg.Network))
	return nil
}

func boundary() (*abi.Boundary, error) {
	b := abi.Default()
	if b == nil {
		return nil, errors.New(errors.PhaseDispatch, errors.KindInvalidArgument).
			Detail("citadel_init has not been called").
			Build()
	}
	return b, nil
}

// resolve maps a context handle to its context. When it fails the status is
// returned directly since there is no record to write it to.
func resolve(ctx uint64) (*abi.Context, int32) {
	b, err := boundary()
	if err != nil {
		return nil, code(err)
	}
	c, err := b.Context(resource.Handle(ctx))
	if err != nil {
		return nil, code(err)
	}
	return c, int32(errors.CodeOK)
}

func code(err error) int32 {
	return int32(errors.CodeOf(err))
}

// settle turns the outcome of a call into its status. Argument failures
// never reached the dispatcher, so they are recorded here.
func settle(c *abi.Context, op string, err error) int32 {
	var ae argError
	if stderrors.As(err, &ae) {
		return int32(c.Fail(op, ae.err))
	}
	return code(err)
}

// exec runs an operation without a result.
func exec(ctx uint64, op string, fn func(*abi.Context) error) int32 {
	c, st := resolve(ctx)
	if c == nil {
		return st
	}
	return settle(c, op, fn(c))
}

// produce runs an operation and stores its result in *out. out is only
// written on success.
func produce[T any](ctx uint64, op string, out *T, fn func(*abi.Context) (T, error)) int32 {
	c, st := resolve(ctx)
	if c == nil {
		return st
	}
	if out == nil {
		return settle(c, op, nullArg("out"))
	}
	v, err := fn(c)
	if err != nil {
		return settle(c, op, err)
	}
	*out = v
	return int32(errors.CodeOK)
}
