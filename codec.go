package binserde

import (
	stderrors "errors"
	"reflect"
	"slices"

	"github.com/wippyai/binserde/errors"
)

// Marshaler is implemented by types that write their own encoding.
type Marshaler interface {
	MarshalBin(s Serializer) error
}

// Unmarshaler is implemented by types that read their own encoding. The
// receiver may hold a previous value; implementations should overwrite it
// in place.
type Unmarshaler interface {
	UnmarshalBin(d Deserializer) error
}

// Enum is implemented by integer types with a closed set of values
// 0..NumVariants()-1. They are encoded as size discriminants.
type Enum interface {
	NumVariants() int
}

// Defaulter is implemented by field types that want a non-zero value when
// the field is skipped on the wire. SetDefaults runs after the field is
// reset to its zero value.
type Defaulter interface {
	SetDefaults()
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	enumType        = reflect.TypeFor[Enum]()
)

// Encode writes v to s. Pointers are followed once, so Encode(s, &v) and
// Encode(s, v) produce the same bytes. To encode an interface value as a
// registered union, pass a pointer to the interface variable.
func Encode(s Serializer, v any) error {
	if v == nil {
		return errors.NilPointer(errors.PhaseEncode, nil, "nil")
	}
	if m, ok := v.(Marshaler); ok {
		return codecError(errors.PhaseEncode, m.MarshalBin(s))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return errors.NilPointer(errors.PhaseEncode, nil, rv.Type().String())
		}
		rv = rv.Elem()
	}
	return encodeValue(s, rv)
}

// Decode reads into the value target points to, reusing what it already
// holds where possible.
func Decode(d Deserializer, target any) error {
	if u, ok := target.(Unmarshaler); ok {
		return codecError(errors.PhaseDecode, u.UnmarshalBin(d))
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer {
		goType := "nil"
		if target != nil {
			goType = rv.Type().String()
		}
		return errors.TypeMismatch(errors.PhaseDecode, nil, goType, "non-nil pointer")
	}
	if rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, nil, rv.Type().String())
	}
	return decodeValue(d, rv.Elem())
}

func encodeValue(s Serializer, v reflect.Value) error {
	ct, err := defaultCompiler.Compile(v.Type())
	if err != nil {
		return err
	}
	return encodeCompiled(s, ct, v)
}

func decodeValue(d Deserializer, v reflect.Value) error {
	ct, err := defaultCompiler.Compile(v.Type())
	if err != nil {
		return err
	}
	return decodeCompiled(d, ct, v)
}

// codecError returns an error owned by this call, so that field paths can
// be attached without touching a value the codec may share across calls.
// Plain errors become KindCustom.
func codecError(phase errors.Phase, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Path = slices.Clone(e.Path)
		return &cp
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return errors.Wrap(e.Phase, e.Kind, err, "")
	}
	return errors.Wrap(phase, errors.KindCustom, err, "")
}
