package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which part of the file was being decoded
type Phase string

const (
	PhaseHeader    Phase = "header"    // fixed file header
	PhaseColorMode Phase = "colormode" // color mode data section
	PhaseResources Phase = "resources" // image resources section
	PhaseLayers    Phase = "layers"    // layer and mask information section
	PhaseChannel   Phase = "channel"   // channel image data decompression
	PhaseComposite Phase = "composite" // flattened composite image
)

// Kind categorizes the error
type Kind string

const (
	KindBadSignature       Kind = "bad_signature"
	KindUnsupportedVariant Kind = "unsupported_variant"
	KindUnsupportedDepth   Kind = "unsupported_depth"
	KindUnexpectedEOF      Kind = "unexpected_eof"
	KindCorruptResource    Kind = "corrupt_resource"
	KindCorruptLayer       Kind = "corrupt_layer"
	KindUnknownCompression Kind = "unknown_compression"
	KindCorruptChannel     Kind = "corrupt_channel"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	// Offset is the byte position in the input buffer the error refers to.
	// HasOffset distinguishes offset 0 from no offset.
	Offset    int
	HasOffset bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.HasOffset {
		fmt.Fprintf(&b, " at offset 0x%X", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// Offset sets the byte offset the error refers to
func (b *Builder) Offset(pos int) *Builder {
	b.err.Offset = pos
	b.err.HasOffset = true
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

// Convenience constructors for common error patterns

// BadSignature creates an error for a magic constant mismatch
func BadSignature(phase Phase, pos int, want, got string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindBadSignature,
		Offset:    pos,
		HasOffset: true,
		Detail:    fmt.Sprintf("expected signature %q, got %q", want, got),
	}
}

// UnexpectedEOF creates an error for a read past the end of the input
func UnexpectedEOF(phase Phase, pos int, need int) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindUnexpectedEOF,
		Offset:    pos,
		HasOffset: true,
		Detail:    fmt.Sprintf("need %d more bytes", need),
	}
}

// UnsupportedVariant creates an error for the PSB large-document variant
// and other recognized-but-unsupported format forms
func UnsupportedVariant(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedVariant,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// UnsupportedDepth creates an error for bit depths other than 8
func UnsupportedDepth(depth uint16) *Error {
	return &Error{
		Phase:  PhaseHeader,
		Kind:   KindUnsupportedDepth,
		Detail: fmt.Sprintf("declared depth %d bits per channel, only 8 is supported", depth),
	}
}

// UnknownCompression creates an error for a compression method outside the
// defined set, attributable to a specific channel
func UnknownCompression(phase Phase, pos int, channelID int16, method uint16) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindUnknownCompression,
		Offset:    pos,
		HasOffset: true,
		Detail:    fmt.Sprintf("channel %d declares compression method %d", channelID, method),
	}
}

// CorruptChannel creates an error for a decoded plane size mismatch
func CorruptChannel(phase Phase, channelID int16, got, want int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCorruptChannel,
		Detail: fmt.Sprintf("channel %d decoded to %d bytes, expected %d", channelID, got, want),
	}
}

// CorruptResource creates an error for a malformed image resource block
func CorruptResource(pos int, detail string, args ...any) *Error {
	return &Error{
		Phase:     PhaseResources,
		Kind:      KindCorruptResource,
		Offset:    pos,
		HasOffset: true,
		Detail:    fmt.Sprintf(detail, args...),
	}
}

// CorruptLayer creates an error for a malformed layer record
func CorruptLayer(pos int, detail string, args ...any) *Error {
	return &Error{
		Phase:     PhaseLayers,
		Kind:      KindCorruptLayer,
		Offset:    pos,
		HasOffset: true,
		Detail:    fmt.Sprintf(detail, args...),
	}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Rephase returns a copy of err carrying the given phase when err is a
// structured Error, so section drivers can attribute cursor-level failures
// to the section they occurred in. Other error types pass through unchanged.
func Rephase(phase Phase, err error) error {
	if e, ok := err.(*Error); ok {
		re := *e
		re.Phase = phase
		return &re
	}
	return err
}
