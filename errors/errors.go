package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in the boundary the error occurred
type Phase string

const (
	PhaseCreate    Phase = "create"    // handle construction
	PhaseResolve   Phase = "resolve"   // handle lookup
	PhaseDestroy   Phase = "destroy"   // handle release
	PhaseEncode    Phase = "encode"    // internal object to bytes
	PhaseDecode    Phase = "decode"    // bytes to internal object
	PhaseDispatch  Phase = "dispatch"  // argument validation at the call edge
	PhaseTransport Phase = "transport" // network-backed collaborator
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error. The set is closed; every Kind maps to one Code.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindInvalidHandle   Kind = "invalid_handle"
	KindTypeMismatch    Kind = "type_mismatch"
	KindMalformedInput  Kind = "malformed_input"
	KindSerialization   Kind = "serialization"
	KindAllocation      Kind = "allocation"
	KindTimeout         Kind = "timeout"
	KindInternal        Kind = "internal"
)

// Code is the fixed-width status value returned across the boundary.
// Numeric values are part of the ABI and must never change.
type Code uint32

const (
	CodeOK                 Code = 0
	CodeInvalidArgument    Code = 1
	CodeInvalidHandle      Code = 2
	CodeTypeMismatch       Code = 3
	CodeMalformedInput     Code = 4
	CodeSerializationError Code = 5
	CodeAllocationError    Code = 6
	CodeTimeout            Code = 7
	CodeInternalError      Code = 8
)

var codeNames = [...]string{
	CodeOK:                 "Ok",
	CodeInvalidArgument:    "InvalidArgument",
	CodeInvalidHandle:      "InvalidHandle",
	CodeTypeMismatch:       "TypeMismatch",
	CodeMalformedInput:     "MalformedInput",
	CodeSerializationError: "SerializationError",
	CodeAllocationError:    "AllocationError",
	CodeTimeout:            "Timeout",
	CodeInternalError:      "InternalError",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "Code(" + strconv.FormatUint(uint64(c), 10) + ")"
}

// Valid reports whether c is a member of the closed taxonomy.
func (c Code) Valid() bool {
	return c <= CodeInternalError
}

// Code returns the status code for the kind.
func (k Kind) Code() Code {
	switch k {
	case KindInvalidArgument:
		return CodeInvalidArgument
	case KindInvalidHandle:
		return CodeInvalidHandle
	case KindTypeMismatch:
		return CodeTypeMismatch
	case KindMalformedInput:
		return CodeMalformedInput
	case KindSerialization:
		return CodeSerializationError
	case KindAllocation:
		return CodeAllocationError
	case KindTimeout:
		return CodeTimeout
	default:
		return CodeInternalError
	}
}

// CodeOf maps any error to its status code.
// Errors that are not *Error are collaborator failures and classify as
// InternalError, except deadline expiry which is always Timeout.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind.Code()
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeInternalError
}

// Error is the structured error type used throughout the boundary
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Family string
	Detail string
	Path   []string
	Handle uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Family != "" || e.Handle != 0 {
		b.WriteString(": ")
		if e.Family != "" {
			b.WriteString(e.Family)
		}
		if e.Handle != 0 {
			if e.Family != "" {
				b.WriteByte(' ')
			}
			b.WriteString("handle ")
			b.WriteString(strconv.FormatUint(e.Handle, 10))
		}
	}

	if e.Detail != "" {
		if e.Family != "" || e.Handle != 0 {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Code returns the status code for the error.
func (e *Error) Code() Code {
	return e.Kind.Code()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the boundary operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Family sets the handle family name
func (b *Builder) Family(f string) *Builder {
	b.err.Family = f
	return b
}

// Handle sets the offending handle value
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the taxonomy

// InvalidArgument creates an error for input rejected before any object is touched
func InvalidArgument(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidArgument).Detail(detail, args...).Build()
}

// InvalidHandle creates an error for an unknown, destroyed or zero handle
func InvalidHandle(phase Phase, handle uint64) *Error {
	detail := "unknown or destroyed handle"
	if handle == 0 {
		detail = "null handle"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Handle: handle,
		Detail: detail,
	}
}

// TypeMismatch creates an error for a handle presented to the wrong family
func TypeMismatch(phase Phase, handle uint64, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Handle: handle,
		Family: got,
		Detail: fmt.Sprintf("expected %s", want),
	}
}

// Malformed creates an error for structurally invalid input bytes
func Malformed(phase Phase, path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedInput,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Serialization creates an internal encode failure
func Serialization(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindSerialization,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Allocation creates a collaborator construction failure
func Allocation(family string, cause error) *Error {
	return &Error{
		Phase:  PhaseCreate,
		Kind:   KindAllocation,
		Family: family,
		Detail: "construction failed",
		Cause:  cause,
	}
}

// Timeout creates an error for a blocking operation that exceeded its bound
func Timeout(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseTransport,
		Kind:   KindTimeout,
		Op:     op,
		Detail: "deadline exceeded",
		Cause:  cause,
	}
}

// Internal creates an unclassified failure. Detail is always set.
func Internal(phase Phase, detail string, cause error) *Error {
	if detail == "" {
		detail = "internal failure"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInternal,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithOp returns err annotated with the boundary operation name.
// Non-structured errors are wrapped as internal failures first.
func WithOp(err error, op string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		c := *e
		if c.Op == "" {
			c.Op = op
		}
		return &c
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Timeout(op, err)
	}
	w := Internal(PhaseDispatch, "collaborator failure", err)
	w.Op = op
	return w
}
