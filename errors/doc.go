// Package errors provides the structured error type and the closed status
// taxonomy of the boundary layer.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Every Kind maps to exactly one Code, the fixed-width value that
// crosses the boundary. The Error type carries the operation name, handle
// family, handle value, field path and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindTypeMismatch).
//		Op("wallet_balance").
//		Family("contract").
//		Handle(42).
//		Detail("expected wallet").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseResolve, h)
//	err := errors.Malformed(errors.PhaseDecode, path, "short header: %d bytes", n)
//
// CodeOf maps any error, structured or not, to its Code.
package errors
