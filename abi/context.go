package abi

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/metrics"
	"github.com/wippyai/citadel-abi/resource"
)

// Context carries the status record of the calls made through it.
//
// Status is per context: calls on distinct contexts never observe each
// other's status. A context shared between goroutines sees the status of
// whichever call finished last.
type Context struct {
	b      *Boundary
	handle resource.Handle
	mu     sync.Mutex
	code   errors.Code
	detail string
	freed  atomic.Bool
}

// NewContext creates a context and registers it under a context handle.
func (b *Boundary) NewContext() (*Context, error) {
	if err := b.live(); err != nil {
		return nil, err
	}
	c := &Context{b: b}
	h, err := b.contexts.Insert(c)
	if err != nil {
		return nil, err
	}
	c.handle = h
	return c, nil
}

// ContextNew is context_new: it returns the handle of a fresh context.
func (b *Boundary) ContextNew() (resource.Handle, error) {
	c, err := b.NewContext()
	if err != nil {
		return 0, err
	}
	return c.handle, nil
}

// Context resolves a context handle.
func (b *Boundary) Context(h resource.Handle) (*Context, error) {
	var c *Context
	err := b.contexts.With(h, resource.Shared, func(v *Context) error {
		c = v
		return nil
	})
	return c, err
}

// ContextFree is context_free. A pending detail string is discarded.
func (b *Boundary) ContextFree(h resource.Handle) error {
	return b.contexts.Destroy(h)
}

// Handle returns the context's handle.
func (c *Context) Handle() resource.Handle {
	return c.handle
}

// Drop implements resource.Dropper.
func (c *Context) Drop() {
	c.freed.Store(true)
	c.mu.Lock()
	c.detail = ""
	c.mu.Unlock()
}

// Status is status_last: the code of the most recent call on c.
func (c *Context) Status() errors.Code {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// Detail returns the pending detail string without taking it.
func (c *Context) Detail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detail
}

// LastErrorDetail is status_detail. It moves the pending detail string into
// a buffer owned by the caller and returns its handle, or 0 when the last
// call succeeded or the detail was already taken. It does not change the
// status record.
func (c *Context) LastErrorDetail() resource.Handle {
	c.mu.Lock()
	detail := c.detail
	c.detail = ""
	c.mu.Unlock()

	if detail == "" {
		return 0
	}
	h, err := c.b.bufs.PutString(detail)
	if err != nil {
		c.b.log.Warn("detail buffer allocation failed", zap.Error(err))
		return 0
	}
	return h
}

func (c *Context) record(err error) errors.Code {
	code := errors.CodeOf(err)
	var detail string
	if err != nil {
		detail = err.Error()
	}
	c.mu.Lock()
	c.code = code
	c.detail = detail
	c.mu.Unlock()
	return code
}

// call runs fn at the dispatcher edge. It always records a status, recovers
// panics into InternalError and releases nothing it did not acquire.
func (c *Context) call(op string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseDispatch, errors.KindInternal).
				Op(op).
				Detail("panic: %v", r).
				Build()
			c.b.log.Error("boundary call panicked",
				zap.String("op", op),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
		code := c.record(err)
		if c.b.cfg.Metrics.Enabled {
			metrics.RecordCall(op, code, time.Since(start))
		}
		if err != nil {
			c.b.logFailure(op, code, err)
		}
	}()

	if c.freed.Load() {
		return errors.WithOp(errors.InvalidHandle(errors.PhaseResolve, uint64(c.handle)), op)
	}
	if err := c.b.live(); err != nil {
		return errors.WithOp(err, op)
	}
	if e := fn(); e != nil {
		return errors.WithOp(e, op)
	}
	return nil
}

// Fail records err as the outcome of op without running anything. Foreign
// surfaces use it for arguments they could not unmarshal.
func (c *Context) Fail(op string, err error) errors.Code {
	return errors.CodeOf(c.call(op, func() error { return err }))
}

// run is call for operations that produce a value. The value is the zero
// value whenever an error is returned.
func run[T any](c *Context, op string, fn func() (T, error)) (T, error) {
	var out T
	err := c.call(op, func() error {
		var err error
		out, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (b *Boundary) logFailure(op string, code errors.Code, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Stringer("status", code),
		zap.Error(err),
	}
	if code == errors.CodeInternalError {
		b.log.Error("boundary call failed", fields...)
		return
	}
	b.log.Debug("boundary call failed", fields...)
}

const maxTimeoutMs = math.MaxInt64 / int64(time.Millisecond)

// deadline turns a caller timeout into a context. A timeout <= 0 fails
// with Timeout so the caller never blocks.
func deadline(op string, timeoutMs int64) (context.Context, context.CancelFunc, error) {
	if timeoutMs <= 0 {
		e := errors.Timeout(op, nil)
		e.Detail = "non-positive timeout"
		return nil, nil, e
	}
	if timeoutMs > maxTimeoutMs {
		timeoutMs = maxTimeoutMs
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
	return ctx, cancel, nil
}
