package binserde

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strings"
	"testing"

	"github.com/wippyai/binserde/errors"
	"github.com/wippyai/binserde/varint"
)

func mustSerialize(t *testing.T, v any, mode Mode) []byte {
	t.Helper()
	data, err := SerializeWith(v, mode)
	if err != nil {
		t.Fatalf("SerializeWith(%T): %v", v, err)
	}
	return data
}

func TestPrimitiveEncodings(t *testing.T) {
	varintMode := DefaultMode().WithFixedIntsVarint(true)

	tests := []struct {
		value any
		name  string
		want  []byte
		mode  Mode
	}{
		{"abc", "string", []byte{0x03, 'a', 'b', 'c'}, DefaultMode()},
		{"", "empty string", []byte{0x00}, DefaultMode()},
		{true, "true", []byte{0xFF}, DefaultMode()},
		{false, "false", []byte{0x00}, DefaultMode()},
		{uint8(200), "u8", []byte{200}, DefaultMode()},
		{int8(-1), "s8", []byte{0xFF}, DefaultMode()},
		{uint16(0x1234), "u16", []byte{0x34, 0x12}, DefaultMode()},
		{int32(-2), "s32", []byte{0xFE, 0xFF, 0xFF, 0xFF}, DefaultMode()},
		{uint64(1), "u64", []byte{1, 0, 0, 0, 0, 0, 0, 0}, DefaultMode()},
		{int(-1), "int", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, DefaultMode()},
		{float32(1), "f32", []byte{0x00, 0x00, 0x80, 0x3F}, DefaultMode()},
		{float64(1), "f64", []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}, DefaultMode()},
		{uint(300), "size", []byte{0xAC, 0x02}, DefaultMode()},
		{[]byte{9, 8}, "bytes", []byte{0x02, 9, 8}, DefaultMode()},
		{[]int16{1, -3, -35}, "s16 varint", []byte{0x03, 0x02, 0x05, 0x45}, varintMode},
		{uint32(300), "u32 varint", []byte{0xAC, 0x02}, varintMode},
		{int64(-1), "s64 varint", []byte{0x01}, varintMode},
		{float32(1), "f32 ignores varint", []byte{0x00, 0x00, 0x80, 0x3F}, varintMode},
		{"abc", "u16 sizes", []byte{0x03, 0x00, 'a', 'b', 'c'}, DefaultMode().WithSizeWidth(Width16)},
		{[3]uint8{1, 2, 3}, "array", []byte{1, 2, 3}, DefaultMode()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustSerialize(t, tt.value, tt.mode)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestDecodeLenientBool(t *testing.T) {
	for _, b := range []byte{0x01, 0x7F, 0xFF} {
		got, err := Deserialize[bool]([]byte{b})
		if err != nil {
			t.Fatalf("Deserialize: %v", err)
		}
		if !got {
			t.Errorf("byte %#x decoded as false", b)
		}
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	modes := map[string]Mode{
		"fixed":  DefaultMode(),
		"varint": DefaultMode().WithFixedIntsVarint(true),
	}
	for name, mode := range modes {
		t.Run(name, func(t *testing.T) {
			type ints struct {
				U16 uint16
				S16 int16
				U32 uint32
				S32 int32
				U64 uint64
				S64 int64
				I   int
			}
			in := ints{
				U16: math.MaxUint16, S16: math.MinInt16,
				U32: math.MaxUint32, S32: math.MinInt32,
				U64: math.MaxUint64, S64: math.MinInt64,
				I: -42,
			}
			out, err := DeserializeWith[ints](mustSerialize(t, in, mode), mode)
			if err != nil {
				t.Fatalf("DeserializeWith: %v", err)
			}
			if out != in {
				t.Errorf("got %+v, want %+v", out, in)
			}
		})
	}
}

func TestVarintNarrowingOverflow(t *testing.T) {
	mode := DefaultMode().WithFixedIntsVarint(true)

	_, err := DeserializeWith[uint16](varint.AppendUvarint(nil, 1<<16), mode)
	if errors.KindOf(err) != errors.KindOverflow {
		t.Errorf("u16: got %v, want overflow", err)
	}

	_, err = DeserializeWith[int16](varint.AppendVarint(nil, math.MinInt16-1), mode)
	if errors.KindOf(err) != errors.KindOverflow {
		t.Errorf("s16: got %v, want overflow", err)
	}
}

func TestSizeWidths(t *testing.T) {
	tests := []struct {
		width Width
		want  []byte
	}{
		{WidthVariable, []byte{0xAC, 0x02}},
		{Width16, []byte{0x2C, 0x01}},
		{Width32, []byte{0x2C, 0x01, 0x00, 0x00}},
		{Width64, []byte{0x2C, 0x01, 0, 0, 0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.width.String(), func(t *testing.T) {
			mode := DefaultMode().WithSizeWidth(tt.width)
			got := mustSerialize(t, uint(300), mode)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got % x, want % x", got, tt.want)
			}
			back, err := DeserializeWith[uint](got, mode)
			if err != nil {
				t.Fatalf("DeserializeWith: %v", err)
			}
			if back != 300 {
				t.Errorf("got %d, want 300", back)
			}
		})
	}
}

func TestSizeWidthOverflow(t *testing.T) {
	mode := DefaultMode().WithSizeWidth(Width8)
	_, err := SerializeWith(string(make([]byte, 300)), mode)
	if errors.KindOf(err) != errors.KindOverflow {
		t.Fatalf("got %v, want overflow", err)
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	_, err := Deserialize[string]([]byte{0x02, 0xC3, 0x28})
	if errors.KindOf(err) != errors.KindInvalidUTF8 {
		t.Errorf("got %v, want invalid_utf8", err)
	}
	if !errors.IsMalformed(err) {
		t.Error("invalid UTF-8 should count as malformed input")
	}
}

func TestWritePath(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerializer(&buf, nil, DefaultMode())

	if err := WritePath(s, "/tmp/a"); err != nil {
		t.Fatalf("WritePath: %v", err)
	}
	if err := WritePath(s, "bad\xff"); errors.KindOf(err) != errors.KindInvalidUTF8 {
		t.Errorf("got %v, want invalid_utf8", err)
	}

	d := NewDeserializer(bytes.NewReader(buf.Bytes()), nil, DefaultMode())
	p, err := ReadPath(d)
	if err != nil {
		t.Fatalf("ReadPath: %v", err)
	}
	if p != "/tmp/a" {
		t.Errorf("got %q", p)
	}
}

func TestTruncatedInput(t *testing.T) {
	_, err := Deserialize[uint32]([]byte{1, 2})
	if errors.KindOf(err) != errors.KindIO {
		t.Fatalf("got %v, want io", err)
	}
	if !errors.IsMalformed(err) {
		t.Error("truncated input should count as malformed")
	}
	if want := "at byte 2"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not mention %q", err, want)
	}
}

func TestLengthLimit(t *testing.T) {
	data := varint.AppendUvarint(nil, MaxLength+1)
	_, err := Deserialize[[]uint8](data)
	if errors.KindOf(err) != errors.KindInvalidLength {
		t.Errorf("got %v, want invalid_length", err)
	}
}

func TestVariantHelpers(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerializer(&buf, nil, DefaultMode())
	if err := WriteVariant(s, 2); err != nil {
		t.Fatalf("WriteVariant: %v", err)
	}

	d := NewDeserializer(bytes.NewReader(buf.Bytes()), nil, DefaultMode())
	if _, err := ReadVariant(d, 2); errors.KindOf(err) != errors.KindInvalidVariant {
		t.Errorf("got %v, want invalid_variant", err)
	}

	d = NewDeserializer(bytes.NewReader(buf.Bytes()), nil, DefaultMode())
	if _, err := ReadVariant(d, 0); errors.KindOf(err) != errors.KindEmptyVariant {
		t.Errorf("got %v, want empty_variant", err)
	}
	// the empty check must not consume input
	if n, err := ReadVariant(d, 3); err != nil || n != 2 {
		t.Errorf("ReadVariant = %d, %v; want 2", n, err)
	}
}

func TestPrimitivesDocumented(t *testing.T) {
	f, err := parser.ParseFile(token.NewFileSet(), "primitives.go", nil, parser.ParseComments)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || !fn.Name.IsExported() {
			continue
		}
		t.Run(fn.Name.Name, func(t *testing.T) {
			if fn.Doc == nil || !strings.HasPrefix(fn.Doc.Text(), fn.Name.Name+" ") {
				t.Errorf("%s has no doc comment naming it", fn.Name.Name)
			}
		})
	}
}
