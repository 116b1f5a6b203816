package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindTypeMismatch,
				Op:     "wallet_balance",
				Path:   []string{"args", "wallet"},
				Family: "contract",
				Handle: 17,
				Detail: "expected wallet",
			},
			contains: []string{"[resolve]", "type_mismatch", "wallet_balance", "args.wallet", "contract", "handle 17", "expected wallet"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindMalformedInput,
			},
			contains: []string{"[decode]", "malformed_input"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCreate,
				Kind:   KindAllocation,
				Detail: "construction failed",
				Cause:  errors.New("seed too short"),
			},
			contains: []string{"[create]", "allocation", "construction failed", "caused by", "seed too short"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseTransport,
		Kind:  KindInternal,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not follow the cause chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseResolve,
		Kind:   KindInvalidHandle,
		Handle: 9,
	}

	if !errors.Is(err, &Error{Phase: PhaseResolve, Kind: KindInvalidHandle}) {
		t.Error("should match same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseDestroy, Kind: KindInvalidHandle}) {
		t.Error("should not match different phase")
	}
	if !errors.Is(err, &Error{Kind: KindInvalidHandle}) {
		t.Error("kind-only target should match")
	}
	if errors.Is(err, &Error{Kind: KindTypeMismatch}) {
		t.Error("should not match different kind")
	}
	if errors.Is(err, errors.New("other")) {
		t.Error("should not match foreign error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseDispatch, KindInvalidArgument).
		Op("contract_issue").
		Path("ticker").
		Family("contract").
		Handle(3).
		Value("toolongticker").
		Detail("ticker length %d exceeds %d", 13, 8).
		Cause(cause).
		Build()

	if err.Phase != PhaseDispatch {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDispatch)
	}
	if err.Kind != KindInvalidArgument {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidArgument)
	}
	if err.Op != "contract_issue" {
		t.Errorf("Op = %q", err.Op)
	}
	if len(err.Path) != 1 || err.Path[0] != "ticker" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Handle != 3 || err.Family != "contract" {
		t.Errorf("Handle/Family = %d/%q", err.Handle, err.Family)
	}
	if err.Value != "toolongticker" {
		t.Errorf("Value = %v", err.Value)
	}
	if err.Detail != "ticker length 13 exceeds 8" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("Cause not set")
	}
	if err.Code() != CodeInvalidArgument {
		t.Errorf("Code = %v", err.Code())
	}
}

func TestBuilder_DetailWithoutArgs(t *testing.T) {
	err := New(PhaseDecode, KindMalformedInput).Detail("100% broken").Build()
	if err.Detail != "100% broken" {
		t.Errorf("Detail = %q, want literal text", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		kind  Kind
		code  Code
		phase Phase
	}{
		{"InvalidArgument", InvalidArgument(PhaseDispatch, "bad %s", "seed"), KindInvalidArgument, CodeInvalidArgument, PhaseDispatch},
		{"InvalidHandle", InvalidHandle(PhaseResolve, 5), KindInvalidHandle, CodeInvalidHandle, PhaseResolve},
		{"TypeMismatch", TypeMismatch(PhaseResolve, 5, "wallet", "key"), KindTypeMismatch, CodeTypeMismatch, PhaseResolve},
		{"Malformed", Malformed(PhaseDecode, []string{"f"}, "short value"), KindMalformedInput, CodeMalformedInput, PhaseDecode},
		{"Serialization", Serialization(nil, "too large"), KindSerialization, CodeSerializationError, PhaseEncode},
		{"Allocation", Allocation("wallet", errors.New("x")), KindAllocation, CodeAllocationError, PhaseCreate},
		{"Timeout", Timeout("transport_fetch", nil), KindTimeout, CodeTimeout, PhaseTransport},
		{"Internal", Internal(PhaseDispatch, "", nil), KindInternal, CodeInternalError, PhaseDispatch},
		{"Wrap", Wrap(PhaseConfig, KindInvalidArgument, errors.New("x"), "parse"), KindInvalidArgument, CodeInvalidArgument, PhaseConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if CodeOf(tt.err) != tt.code {
				t.Errorf("CodeOf = %v, want %v", CodeOf(tt.err), tt.code)
			}
		})
	}
}

func TestInvalidHandle_Null(t *testing.T) {
	err := InvalidHandle(PhaseResolve, 0)
	if !strings.Contains(err.Error(), "null handle") {
		t.Errorf("expected null handle detail, got %q", err.Error())
	}
}

func TestInternal_AlwaysHasDetail(t *testing.T) {
	if Internal(PhaseDispatch, "", nil).Detail == "" {
		t.Error("internal errors must carry a detail")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, CodeOK},
		{"structured", InvalidHandle(PhaseResolve, 1), CodeInvalidHandle},
		{"wrapped structured", fmt.Errorf("ctx: %w", TypeMismatch(PhaseResolve, 1, "a", "b")), CodeTypeMismatch},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"wrapped deadline", fmt.Errorf("rpc: %w", context.DeadlineExceeded), CodeTimeout},
		{"foreign", errors.New("disk on fire"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode_StableValues(t *testing.T) {
	want := map[Code]uint32{
		CodeOK:                 0,
		CodeInvalidArgument:    1,
		CodeInvalidHandle:      2,
		CodeTypeMismatch:       3,
		CodeMalformedInput:     4,
		CodeSerializationError: 5,
		CodeAllocationError:    6,
		CodeTimeout:            7,
		CodeInternalError:      8,
	}
	for c, v := range want {
		if uint32(c) != v {
			t.Errorf("%v = %d, want %d", c, uint32(c), v)
		}
		if !c.Valid() {
			t.Errorf("%v should be valid", c)
		}
	}
	if Code(9).Valid() {
		t.Error("Code(9) should not be valid")
	}
	if Code(9).String() != "Code(9)" {
		t.Errorf("String() = %q", Code(9).String())
	}
	if CodeTimeout.String() != "Timeout" {
		t.Errorf("String() = %q", CodeTimeout.String())
	}
}

func TestWithOp(t *testing.T) {
	if WithOp(nil, "x") != nil {
		t.Fatal("nil error should stay nil")
	}

	base := InvalidHandle(PhaseResolve, 4)
	got := WithOp(base, "wallet_balance")
	if got.Op != "wallet_balance" {
		t.Errorf("Op = %q", got.Op)
	}
	if base.Op != "" {
		t.Error("WithOp must not mutate its input")
	}

	got = WithOp(errors.New("socket closed"), "transport_fetch")
	if got.Kind != KindInternal || got.Op != "transport_fetch" {
		t.Errorf("foreign error = %+v", got)
	}

	got = WithOp(context.DeadlineExceeded, "transport_fetch")
	if got.Kind != KindTimeout {
		t.Errorf("deadline Kind = %v", got.Kind)
	}
}
