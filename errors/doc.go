// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (which lifecycle stage failed) and Kind
// (error category). Each Error also carries a numeric Code: negative codes are
// status values returned by the runtime, non-negative codes are reasons the
// bridge detected itself.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindMethodNotFound).
//		Name("BFGetSizeX").
//		Detail("no method with descriptor %s", "()I").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Status(errors.PhaseCreate, -4, "create VM")
//	err := errors.InvalidBuffer("nil pointer")
//
// Match on kind alone with KindErr:
//
//	if errors.Is(err, errors.KindErr(errors.KindClassNotFound)) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
