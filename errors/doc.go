// Package errors provides structured error types for the wordstore module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/schema type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePack, errors.KindInvalidInput).
//		Path("position", "x").
//		TyName("u32").
//		Detail("value does not fit in %d bits", 32).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidWidth(errors.PhaseLayout, path, 0, word.Bits)
//	err := errors.NotAuthorized("owner", "game-Position", caller.String())
//
// All errors implement the standard error interface and support errors.Is/As.
// A target built with Sentinel matches any phase:
//
//	errors.Is(err, errors.Sentinel(errors.KindNotAuthorized))
package errors
