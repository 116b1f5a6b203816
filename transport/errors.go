package transport

import (
	"context"
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wippyai/citadel-abi/errors"
)

var (
	ErrNotFound    = stderrors.New("transport: object not found")
	ErrInvalidID   = stderrors.New("transport: invalid content id")
	ErrIDMismatch  = stderrors.New("transport: content id does not match bytes")
	ErrEmptyObject = stderrors.New("transport: empty object")
	ErrClosed      = stderrors.New("transport: session closed")
)

// mapRPC converts a gRPC failure into a boundary error for op.
func mapRPC(op string, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(op, err)
	}
	st, ok := status.FromError(err)
	if !ok {
		return errors.WithOp(errors.Internal(errors.PhaseTransport, "rpc failed", err), op)
	}

	var e *errors.Error
	switch st.Code() {
	case codes.DeadlineExceeded:
		return errors.Timeout(op, err)
	case codes.NotFound:
		e = errors.Wrap(errors.PhaseTransport, errors.KindInvalidArgument, ErrNotFound, st.Message())
	case codes.InvalidArgument:
		cause := ErrInvalidID
		if st.Message() == ErrEmptyObject.Error() {
			cause = ErrEmptyObject
		}
		e = errors.Wrap(errors.PhaseTransport, errors.KindInvalidArgument, cause, st.Message())
	case codes.DataLoss:
		e = errors.Wrap(errors.PhaseTransport, errors.KindMalformedInput, ErrIDMismatch, st.Message())
	default:
		e = errors.Internal(errors.PhaseTransport, st.Code().String()+": "+st.Message(), err)
	}
	e.Op = op
	return e
}

func retryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
