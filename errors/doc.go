// Package errors provides structured error types for the binserde engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path, the Go type involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidVariant).
//		Path("shapes", "[2]").
//		GoType("example.Shape").
//		Detail("discriminant %d out of range", 7).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Overflow(errors.PhaseEncode, path, 300, "u8")
//	err := errors.StringIndex(id, tableLen)
//
// Callers that need to tell corrupt input apart from failures raised by a
// hand-written codec use IsMalformed and IsCustom.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
