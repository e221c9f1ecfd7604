package binserde

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/wippyai/binserde/errors"
)

type shape interface {
	area() float64
}

type circle struct {
	R float64
}

type square struct {
	Side uint8
}

type point struct{}

type hexagon struct{}

func (circle) area() float64  { return 3 }
func (*square) area() float64 { return 1 }
func (point) area() float64   { return 0 }
func (hexagon) area() float64 { return 6 }

type nothing interface {
	never()
}

func init() {
	MustRegisterUnion[shape](circle{}, &square{}, At(5, point{}))
	MustRegisterUnion[nothing]()
}

type color uint8

func (color) NumVariants() int { return 3 }

type never uint8

func (never) NumVariants() int { return 0 }

type version struct {
	Major, Minor uint8
}

func (v version) MarshalBin(s Serializer) error {
	return WriteUint16(s, uint16(v.Major)<<8|uint16(v.Minor))
}

func (v *version) UnmarshalBin(d Deserializer) error {
	x, err := ReadUint16(d)
	if err != nil {
		return err
	}
	v.Major, v.Minor = uint8(x>>8), uint8(x)
	return nil
}

type failing struct{}

func (failing) MarshalBin(Serializer) error { return stderrors.New("boom") }

var errRejected = errors.Custom(errors.PhaseEncode, "label rejected")

type rejected struct {
	wrap bool
}

func (r rejected) MarshalBin(Serializer) error {
	if r.wrap {
		return fmt.Errorf("label: %w", errRejected)
	}
	return errRejected
}

type retries int

func (r *retries) SetDefaults() { *r = 3 }

type node struct {
	Value int32
	Next  *node
}

func TestStructRoundTrip(t *testing.T) {
	type header struct {
		Name    string
		Tags    []string
		Version version
		Color   color
		Parent  *string
		Attrs   map[string]int32
		Blob    []byte
	}
	parent := "root"
	in := header{
		Name:    "config",
		Tags:    []string{"a", "b", "a"},
		Version: version{1, 2},
		Color:   2,
		Parent:  &parent,
		Attrs:   map[string]int32{"x": -1, "y": 7},
		Blob:    []byte{0xDE, 0xAD},
	}

	for _, mode := range []Mode{DefaultMode(), DedupMode(), DedupMode().WithFixedIntsVarint(true)} {
		t.Run(mode.String(), func(t *testing.T) {
			out, err := DeserializeWith[header](mustSerialize(t, in, mode), mode)
			if err != nil {
				t.Fatalf("DeserializeWith: %v", err)
			}
			if !reflect.DeepEqual(out, in) {
				t.Errorf("got %+v, want %+v", out, in)
			}
		})
	}
}

func TestPointerAndValueEncodeAlike(t *testing.T) {
	v := version{3, 4}
	a := mustSerialize(t, v, DefaultMode())
	b := mustSerialize(t, &v, DefaultMode())
	if !bytes.Equal(a, b) || !bytes.Equal(a, []byte{0x04, 0x03}) {
		t.Errorf("value % x, pointer % x", a, b)
	}
}

func TestPointerTargetRejected(t *testing.T) {
	data := mustSerialize(t, &version{3, 4}, DefaultMode())
	tests := []struct {
		name   string
		decode func() (any, error)
		goType string
	}{
		{
			name:   "Deserialize",
			decode: func() (any, error) { return Deserialize[*version](data) },
			goType: "*binserde.version",
		},
		{
			name:   "DeserializeWith",
			decode: func() (any, error) { return DeserializeWith[**version](data, DefaultMode()) },
			goType: "**binserde.version",
		},
		{
			name:   "DeserializeFrom",
			decode: func() (any, error) { return DeserializeFrom[*node](bytes.NewReader(data), DefaultMode()) },
			goType: "*binserde.node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.decode()
			if errors.KindOf(err) != errors.KindTypeMismatch {
				t.Fatalf("got %v, want type mismatch", err)
			}
			if !reflect.ValueOf(out).IsNil() {
				t.Errorf("got non-nil result %v", out)
			}
			if !strings.Contains(err.Error(), tt.goType) {
				t.Errorf("error %q does not name %s", err, tt.goType)
			}
		})
	}

	v, err := Deserialize[version](data)
	if err != nil || v != (version{3, 4}) {
		t.Errorf("value decode = %+v, %v", v, err)
	}
}

func TestOptionEncoding(t *testing.T) {
	type holder struct {
		P *uint8
	}
	seven := uint8(7)
	if got := mustSerialize(t, holder{}, DefaultMode()); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("nil: got % x", got)
	}
	if got := mustSerialize(t, holder{P: &seven}, DefaultMode()); !bytes.Equal(got, []byte{0x01, 0x07}) {
		t.Errorf("present: got % x", got)
	}
	_, err := Deserialize[holder]([]byte{0x02})
	if errors.KindOf(err) != errors.KindInvalidVariant {
		t.Errorf("bad tag: got %v, want invalid_variant", err)
	}
}

func TestMapKeysSorted(t *testing.T) {
	m := map[string]uint8{"b": 2, "a": 1}
	want := []byte{0x02, 0x01, 'a', 0x01, 0x01, 'b', 0x02}
	for i := 0; i < 5; i++ {
		if got := mustSerialize(t, m, DefaultMode()); !bytes.Equal(got, want) {
			t.Fatalf("got % x, want % x", got, want)
		}
	}
}

func TestSetRoundTrip(t *testing.T) {
	in := map[uint16]struct{}{3: {}, 1: {}, 2: {}}
	data := mustSerialize(t, in, DefaultMode())
	if want := []byte{0x03, 1, 0, 2, 0, 3, 0}; !bytes.Equal(data, want) {
		t.Errorf("got % x, want % x", data, want)
	}
	out, err := Deserialize[map[uint16]struct{}](data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("got %v", out)
	}
}

func TestDedupLayout(t *testing.T) {
	got := mustSerialize(t, []string{"b", "a", "b"}, DedupMode())
	want := []byte{
		0x02, 0x01, 'b', 0x01, 'a', // table in first-occurrence order
		0x03, 0x00, 0x01, 0x00, // payload ids
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}

	again := mustSerialize(t, []string{"b", "a", "b"}, DedupMode())
	if !bytes.Equal(got, again) {
		t.Error("dedup output is not deterministic")
	}
}

func TestDedupIndexWidth(t *testing.T) {
	mode := DedupMode().WithDedupIndexWidth(Width16)
	got := mustSerialize(t, []string{"x", "x"}, mode)
	want := []byte{0x01, 0x01, 'x', 0x02, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
	out, err := DeserializeWith[[]string](got, mode)
	if err != nil {
		t.Fatalf("DeserializeWith: %v", err)
	}
	if !slices.Equal(out, []string{"x", "x"}) {
		t.Errorf("got %v", out)
	}
}

func TestDedupSkipsStringlessTypes(t *testing.T) {
	got := mustSerialize(t, []uint32{1, 2}, DedupMode())
	want := []byte{0x00, 0x02, 1, 0, 0, 0, 2, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestNoDedupField(t *testing.T) {
	type doc struct {
		Title  string
		Notes  []string `binserde:"nodedup"`
		Author string
	}
	in := doc{Title: "a", Notes: []string{"a", "b"}, Author: "b"}

	got := mustSerialize(t, in, DedupMode())
	// Title and Author are interned, Notes is written inline.
	want := []byte{
		0x02, 0x01, 'a', 0x01, 'b',
		0x00,
		0x02, 0x01, 'a', 0x01, 'b',
		0x01,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}

	out, err := DeserializeWith[doc](got, DedupMode())
	if err != nil {
		t.Fatalf("DeserializeWith: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("got %+v", out)
	}
}

func TestSkipField(t *testing.T) {
	type job struct {
		ID      uint8
		Cache   string  `binserde:"skip"`
		Retries retries `binserde:"-"`
		Level   uint8
	}
	data := mustSerialize(t, job{ID: 1, Cache: "x", Retries: 9, Level: 2}, DefaultMode())
	if !bytes.Equal(data, []byte{0x01, 0x02}) {
		t.Fatalf("got % x", data)
	}

	prev := job{Cache: "stale", Retries: 7}
	if err := DeserializeInto(data, &prev, DefaultMode()); err != nil {
		t.Fatalf("DeserializeInto: %v", err)
	}
	want := job{ID: 1, Retries: 3, Level: 2}
	if prev != want {
		t.Errorf("got %+v, want %+v", prev, want)
	}
}

func TestFieldOrdinals(t *testing.T) {
	type reordered struct {
		A uint8 `binserde:"index=2"`
		B uint8 `binserde:"index=0"`
		C uint8 `binserde:"index=1"`
	}
	data := mustSerialize(t, reordered{A: 1, B: 2, C: 3}, DefaultMode())
	if !bytes.Equal(data, []byte{2, 3, 1}) {
		t.Errorf("got % x", data)
	}

	type clash struct {
		A uint8 `binserde:"index=1"`
		B uint8
	}
	_, err := Serialize(clash{})
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Errorf("got %v, want invalid_data", err)
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		value shape
		name  string
		want  []byte
	}{
		{circle{R: 1}, "circle", []byte{0x00, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
		{&square{Side: 4}, "square", []byte{0x01, 0x04}},
		{point{}, "explicit ordinal", []byte{0x05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustSerialize(t, &tt.value, DefaultMode())
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got % x, want % x", got, tt.want)
			}
			out, err := Deserialize[shape](got)
			if err != nil {
				t.Fatalf("Deserialize: %v", err)
			}
			if !reflect.DeepEqual(out, tt.value) {
				t.Errorf("got %#v, want %#v", out, tt.value)
			}
		})
	}
}

func TestUnionErrors(t *testing.T) {
	_, err := Deserialize[shape]([]byte{0x03})
	if errors.KindOf(err) != errors.KindInvalidVariant {
		t.Errorf("unknown ordinal: got %v", err)
	}

	_, err = Deserialize[nothing]([]byte{0x00})
	if errors.KindOf(err) != errors.KindEmptyVariant {
		t.Errorf("empty union: got %v", err)
	}

	var sh shape
	if _, err = Serialize(&sh); errors.KindOf(err) != errors.KindNilPointer {
		t.Errorf("nil interface: got %v", err)
	}

	sh = hexagon{}
	if _, err = Serialize(&sh); errors.KindOf(err) != errors.KindUnsupported {
		t.Errorf("unregistered variant: got %v", err)
	}

	if err := RegisterUnion[shape](circle{}); err == nil {
		t.Error("second registration should fail")
	}
	if err := RegisterUnion[circle](); err == nil {
		t.Error("registering a struct type should fail")
	}
}

func TestErrorPath(t *testing.T) {
	type drawing struct {
		Shapes []shape
	}
	_, err := Deserialize[drawing]([]byte{0x02, 0x05, 0x09})
	if errors.KindOf(err) != errors.KindInvalidVariant {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "at Shapes.[1]") {
		t.Errorf("error %q lacks the element path", err)
	}
}

func TestEnum(t *testing.T) {
	if got := mustSerialize(t, color(2), DefaultMode()); !bytes.Equal(got, []byte{0x02}) {
		t.Errorf("got % x", got)
	}
	if _, err := Deserialize[color]([]byte{0x03}); errors.KindOf(err) != errors.KindInvalidVariant {
		t.Errorf("out of range: got %v", err)
	}
	if _, err := Serialize(color(7)); errors.KindOf(err) != errors.KindInvalidVariant {
		t.Errorf("encode out of range: got %v", err)
	}
	if _, err := Deserialize[never]([]byte{0x00}); errors.KindOf(err) != errors.KindEmptyVariant {
		t.Errorf("empty enum: got %v", err)
	}
	colors, err := Deserialize[[]color]([]byte{0x02, 0x00, 0x02})
	if err != nil || !slices.Equal(colors, []color{0, 2}) {
		t.Errorf("got %v, %v", colors, err)
	}
}

func TestResult(t *testing.T) {
	ok := Ok[uint8, string](7)
	if got := mustSerialize(t, ok, DefaultMode()); !bytes.Equal(got, []byte{0x00, 0x07}) {
		t.Errorf("ok: got % x", got)
	}

	bad := Err[uint8]("x")
	data := mustSerialize(t, bad, DedupMode())
	if want := []byte{0x01, 0x01, 'x', 0x01, 0x00}; !bytes.Equal(data, want) {
		t.Errorf("err: got % x, want % x", data, want)
	}
	out, err := DeserializeWith[Result[uint8, string]](data, DedupMode())
	if err != nil {
		t.Fatalf("DeserializeWith: %v", err)
	}
	if !out.IsErr || out.Err != "x" {
		t.Errorf("got %+v", out)
	}
}

func TestCustomCodecError(t *testing.T) {
	type wrapper struct {
		F failing
	}
	_, err := Serialize(wrapper{})
	if !errors.IsCustom(err) {
		t.Fatalf("got %v, want custom", err)
	}
	if !strings.Contains(err.Error(), "boom") || !strings.Contains(err.Error(), "at F") {
		t.Errorf("error %q", err)
	}
}

func TestSharedCodecErrorUntouched(t *testing.T) {
	type labels struct {
		Items []rejected
	}
	for _, wrap := range []bool{false, true} {
		t.Run(fmt.Sprintf("wrapped=%t", wrap), func(t *testing.T) {
			in := labels{Items: []rejected{{wrap: wrap}}}
			var first string
			for i := range 3 {
				_, err := Serialize(in)
				if !errors.IsCustom(err) || !stderrors.Is(err, errRejected) {
					t.Fatalf("call %d: got %v", i, err)
				}
				if i == 0 {
					first = err.Error()
				} else if err.Error() != first {
					t.Errorf("call %d: %q, first call %q", i, err, first)
				}
				if !strings.Contains(err.Error(), "at Items.[0]") {
					t.Errorf("error %q lacks the element path", err)
				}
			}
			if len(errRejected.Path) != 0 {
				t.Errorf("returned error was modified: path %v", errRejected.Path)
			}
		})
	}
}

func TestRecursiveType(t *testing.T) {
	in := node{Value: 1, Next: &node{Value: 2, Next: &node{Value: 3}}}
	out, err := Deserialize[node](mustSerialize(t, in, DefaultMode()))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("got %+v", out)
	}
}

func TestDecodeInPlace(t *testing.T) {
	type item struct {
		Name string
		N    uint32
	}
	type bag struct {
		Items []item
		Index map[string]uint8
		Ptr   *uint16
	}
	data := mustSerialize(t, bag{
		Items: []item{{"a", 1}, {"b", 2}},
		Index: map[string]uint8{"k": 1},
		Ptr:   new(uint16),
	}, DefaultMode())

	items := make([]item, 1, 8)
	ptr := new(uint16)
	*ptr = 99
	prev := bag{
		Items: items,
		Index: map[string]uint8{"stale": 5},
		Ptr:   ptr,
	}
	if err := DeserializeInPlace(&prev, bytes.NewReader(data), DefaultMode()); err != nil {
		t.Fatalf("DeserializeInPlace: %v", err)
	}

	if &prev.Items[0] != &items[0] {
		t.Error("slice backing array was not reused")
	}
	if len(prev.Items) != 2 || prev.Items[1] != (item{"b", 2}) {
		t.Errorf("items = %+v", prev.Items)
	}
	if _, ok := prev.Index["stale"]; ok || prev.Index["k"] != 1 {
		t.Errorf("index = %v", prev.Index)
	}
	if prev.Ptr != ptr || *ptr != 0 {
		t.Errorf("pointer not reused: got %p, want %p", prev.Ptr, ptr)
	}
}

func TestDeserializeReturnsZeroOnError(t *testing.T) {
	type pair struct {
		A, B uint8
	}
	out, err := Deserialize[pair]([]byte{0x01})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != (pair{}) {
		t.Errorf("got partial value %+v", out)
	}
}

func TestPrescanFailureWritesNothing(t *testing.T) {
	type labeled struct {
		Name  string
		Shape shape
	}
	var buf bytes.Buffer
	err := SerializeInto(&buf, labeled{Name: "n"}, DedupMode())
	if errors.KindOf(err) != errors.KindNilPointer {
		t.Fatalf("got %v, want nil_pointer", err)
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhasePrescan, Kind: errors.KindNilPointer}) {
		t.Errorf("error %v is not a prescan failure", err)
	}
	if buf.Len() != 0 {
		t.Errorf("%d bytes written before failing", buf.Len())
	}
}

func TestSeqAndGenericHelpers(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerializer(&buf, nil, DefaultMode())
	if err := WriteSeq(s, slices.Values([]uint16{5, 6}), WriteUint16); err != nil {
		t.Fatalf("WriteSeq: %v", err)
	}
	if err := WriteMap(s, map[int32]string{2: "b", 1: "a"}, WriteInt32, WriteString); err != nil {
		t.Fatalf("WriteMap: %v", err)
	}
	seven := int64(7)
	if err := WriteOption(s, &seven, WriteInt64); err != nil {
		t.Fatalf("WriteOption: %v", err)
	}
	if err := WriteArray(s, []bool{true, false}, WriteBool); err != nil {
		t.Fatalf("WriteArray: %v", err)
	}

	d := NewDeserializer(bytes.NewReader(buf.Bytes()), nil, DefaultMode())
	seq, err := ReadSlice(d, ReadUint16)
	if err != nil || !slices.Equal(seq, []uint16{5, 6}) {
		t.Fatalf("ReadSlice = %v, %v", seq, err)
	}
	m, err := ReadMap(d, ReadInt32, ReadString)
	if err != nil || len(m) != 2 || m[1] != "a" || m[2] != "b" {
		t.Fatalf("ReadMap = %v, %v", m, err)
	}
	opt, err := ReadOption(d, ReadInt64)
	if err != nil || opt == nil || *opt != 7 {
		t.Fatalf("ReadOption = %v, %v", opt, err)
	}
	flags := make([]bool, 2)
	if err := ReadArray(d, flags, ReadBool); err != nil || !flags[0] || flags[1] {
		t.Fatalf("ReadArray = %v, %v", flags, err)
	}
}
