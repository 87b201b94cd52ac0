// Package errors provides structured error types for the rawpsd library.
//
// Errors are categorized by Phase (which file section was being decoded) and
// Kind (error category). The Error type includes rich context: the byte
// offset in the input buffer, a human-readable detail message, and a cause
// chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLayers, errors.KindCorruptLayer).
//		Offset(pos).
//		Detail("channel count %d exceeds %d", n, max).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnexpectedEOF(errors.PhaseHeader, pos, 4)
//	err := errors.UnknownCompression(errors.PhaseChannel, pos, channelID, raw)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
