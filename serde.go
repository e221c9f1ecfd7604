package binserde

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"

	"github.com/wippyai/binserde/errors"
	"github.com/wippyai/binserde/internal/binary"
	"go.uber.org/zap"
)

// Serialize encodes v with DefaultMode.
func Serialize(v any) ([]byte, error) {
	return SerializeWith(v, DefaultMode())
}

// SerializeWith encodes v into a new byte slice.
func SerializeWith(v any, mode Mode) ([]byte, error) {
	var buf bytes.Buffer
	if err := serializeTo(binary.NewBufWriter(&buf), v, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeInto encodes v to w. With dedup enabled the string table is
// written first, then the payload. Nothing reaches w if the prescan pass
// fails.
func SerializeInto(w io.Writer, v any, mode Mode) error {
	return serializeTo(binary.NewWriter(w), v, mode)
}

func serializeTo(w *binary.Writer, v any, mode Mode) error {
	var ctx *DedupContext
	if mode.Dedup {
		var err error
		if ctx, err = Prescan(v, mode); err != nil {
			return err
		}
	}

	s := newSerializer(w, ctx, mode)
	if mode.Dedup {
		if err := ctx.WriteTable(s); err != nil {
			return err
		}
		Logger().Debug("dedup table written",
			zap.Int("strings", ctx.Len()),
			zap.Int("bytes", w.Len()))
	}
	return Encode(s, v)
}

// Prescan runs the encode traversal of v against a discard sink and returns
// the frozen string table that the real pass must use. Values whose type
// cannot carry strings skip the traversal.
func Prescan(v any, mode Mode) (*DedupContext, error) {
	ctx := NewDedupContext()
	if !mode.Dedup || !mayHoldStrings(v) {
		ctx.Freeze()
		return ctx, nil
	}

	sink := binary.NewDiscard()
	if err := Encode(newSerializer(sink, ctx, mode), v); err != nil {
		return nil, errors.Wrap(errors.PhasePrescan, errors.KindOf(err), err, "prescan pass failed")
	}
	ctx.Freeze()
	Logger().Debug("prescan complete",
		zap.Int("strings", ctx.Len()),
		zap.Int("payload_bytes", sink.Len()))
	return ctx, nil
}

func mayHoldStrings(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(Marshaler); ok {
		return true
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	ct, err := defaultCompiler.Compile(t)
	if err != nil {
		// let the traversal report it
		return true
	}
	return ct.HasStrings()
}

// Deserialize decodes a T encoded with DefaultMode. T must be the value
// type that was passed to Serialize, not a pointer to it.
func Deserialize[T any](data []byte) (T, error) {
	return DeserializeWith[T](data, DefaultMode())
}

// DeserializeWith decodes a T encoded with mode.
func DeserializeWith[T any](data []byte, mode Mode) (T, error) {
	return deserializeValue[T](binary.NewBufReader(data), mode)
}

// DeserializeFrom decodes a T from r. On error the zero T is returned.
// Bytes following the value are not read. T must not be a pointer type:
// Serialize writes the pointee of a pointer, so decode into the value type.
func DeserializeFrom[T any](r io.Reader, mode Mode) (T, error) {
	return deserializeValue[T](binary.NewReader(r), mode)
}

func deserializeValue[T any](br *binary.Reader, mode Mode) (T, error) {
	var v T
	if t := reflect.TypeFor[T](); t.Kind() == reflect.Pointer {
		return v, errors.TypeMismatch(errors.PhaseDecode, nil, t.String(), "a value type, not a pointer")
	}
	if err := deserializeFrom(br, &v, mode); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// DeserializeInto decodes data into the value target points to.
func DeserializeInto(data []byte, target any, mode Mode) error {
	return deserializeFrom(binary.NewBufReader(data), target, mode)
}

// DeserializeInPlace decodes from r into the value target points to,
// reusing its slices, maps and pointers where possible.
func DeserializeInPlace(target any, r io.Reader, mode Mode) error {
	return deserializeFrom(binary.NewReader(r), target, mode)
}

func deserializeFrom(br *binary.Reader, target any, mode Mode) error {
	var ctx *DedupContext
	if mode.Dedup {
		var err error
		ctx, err = ReadTable(newDeserializer(br, nil, mode))
		if err != nil {
			return atPosition(err, br.Position())
		}
		Logger().Debug("dedup table read",
			zap.Int("strings", ctx.Len()),
			zap.Int("bytes", br.Position()))
	}
	if err := Decode(newDeserializer(br, ctx, mode), target); err != nil {
		return atPosition(err, br.Position())
	}
	return nil
}

// atPosition records the input offset on stream failures. The returned
// error is a copy; err itself is left as it was.
func atPosition(err error, pos int) error {
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindIO {
		return err
	}
	if direct, ok := err.(*errors.Error); ok {
		cp := *direct
		cp.Detail = fmt.Sprintf("%s at byte %d", direct.Detail, pos)
		return &cp
	}
	return errors.Wrap(e.Phase, e.Kind, err, fmt.Sprintf("at byte %d", pos))
}
