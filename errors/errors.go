package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile   Phase = "compile"   // type plan construction
	PhasePrescan   Phase = "prescan"   // dedup table collection
	PhaseEncode    Phase = "encode"    // Go to bytes
	PhaseDecode    Phase = "decode"    // bytes to Go
	PhaseTable     Phase = "table"     // dedup table read/lookup
	PhaseContainer Phase = "container" // file envelope
	PhaseConfig    Phase = "config"    // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindIO             Kind = "io"
	KindOverflow       Kind = "overflow"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidLength  Kind = "invalid_length"
	KindInvalidVariant Kind = "invalid_variant"
	KindEmptyVariant   Kind = "empty_variant"
	KindTypeMismatch   Kind = "type_mismatch"
	KindUnsupported    Kind = "unsupported"
	KindNilPointer     Kind = "nil_pointer"
	KindInvalidData    Kind = "invalid_data"
	KindCustom         Kind = "custom"
	KindBadMagic       Kind = "bad_magic"
	KindBadVersion     Kind = "bad_version"
	KindChecksum       Kind = "checksum"
	KindCorrupt        Kind = "corrupt"
)

// Error is the structured error returned by every binserde package
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
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

// Convenience constructors for common error patterns

// IO wraps a failure of the underlying byte sink or source. Errors that
// are already structured pass through unchanged.
func IO(phase Phase, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if stderrors.As(cause, &e) {
		return cause
	}
	detail := "stream failure"
	if stderrors.Is(cause, io.EOF) || stderrors.Is(cause, io.ErrUnexpectedEOF) {
		detail = "unexpected end of input"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, expected string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Detail: "expected " + expected,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// StringIndex creates the error for a string reference that is not an
// entry of the dedup table
func StringIndex(id uint64, tableLen int) *Error {
	return &Error{
		Phase:  PhaseTable,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("indexed string %d out of range (table has %d entries)", id, tableLen),
		Value:  id,
	}
}

// InvalidLength creates an error for a length prefix that exceeds the decode limit
func InvalidLength(phase Phase, path []string, length uint64, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidLength,
		Path:   path,
		Detail: fmt.Sprintf("length %d exceeds limit %d", length, limit),
		Value:  length,
	}
}

// InvalidDiscriminant creates an invalid discriminant error for unions and enums
func InvalidDiscriminant(phase Phase, path []string, disc uint64, count int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("invalid variant %d (type has %d)", disc, count),
		Value:  disc,
	}
}

// EmptyVariant creates the error raised when decoding a sum type without variants
func EmptyVariant(path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindEmptyVariant,
		Path:   path,
		GoType: goType,
		Detail: "type has no variants and cannot be constructed",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
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

// Custom creates a failure raised by a hand-written codec.
func Custom(phase Phase, msg string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCustom,
		Detail: msg,
	}
}

// Customf is Custom with formatting.
func Customf(phase Phase, format string, args ...any) *Error {
	return Custom(phase, fmt.Sprintf(format, args...))
}

// WithPath prefixes the path of a structured error with seg. Other errors
// are returned unchanged.
func WithPath(err error, seg string) error {
	var e *Error
	if !stderrors.As(err, &e) {
		return err
	}
	path := make([]string, 0, len(e.Path)+1)
	path = append(path, seg)
	e.Path = append(path, e.Path...)
	return err
}

// KindOf returns the Kind of the first structured error in the chain,
// or the empty Kind.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsMalformed reports whether err was caused by bad input bytes: stream
// failures, out-of-range numbers, invalid UTF-8, table errors, unknown
// discriminants and envelope errors (magic, version, checksum, corrupt
// body or header fields).
func IsMalformed(err error) bool {
	switch KindOf(err) {
	case KindIO, KindOverflow, KindInvalidUTF8, KindOutOfBounds, KindInvalidLength,
		KindInvalidVariant, KindEmptyVariant, KindBadMagic, KindBadVersion, KindChecksum, KindCorrupt:
		return true
	}
	return false
}

// IsCustom reports whether err was raised by a hand-written codec.
func IsCustom(err error) bool {
	return KindOf(err) == KindCustom
}
