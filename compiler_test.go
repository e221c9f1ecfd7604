package binserde

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/binserde/errors"
)

func TestCompileKinds(t *testing.T) {
	tests := []struct {
		goType reflect.Type
		want   TypeKind
	}{
		{reflect.TypeFor[bool](), KindBool},
		{reflect.TypeFor[int](), KindS64},
		{reflect.TypeFor[uint](), KindSize},
		{reflect.TypeFor[uintptr](), KindSize},
		{reflect.TypeFor[[]byte](), KindBytes},
		{reflect.TypeFor[[]color](), KindSlice},
		{reflect.TypeFor[[4]byte](), KindArray},
		{reflect.TypeFor[map[string]bool](), KindMap},
		{reflect.TypeFor[*int32](), KindOption},
		{reflect.TypeFor[shape](), KindUnion},
		{reflect.TypeFor[color](), KindEnum},
		{reflect.TypeFor[version](), KindMarshaler},
		{reflect.TypeFor[Result[int8, string]](), KindMarshaler},
	}
	for _, tt := range tests {
		t.Run(tt.goType.String(), func(t *testing.T) {
			ct, err := CompileType(tt.goType)
			if err != nil {
				t.Fatalf("CompileType: %v", err)
			}
			if ct.Kind != tt.want {
				t.Errorf("kind = %s, want %s", ct.Kind, tt.want)
			}
		})
	}
}

func TestCompileUnsupported(t *testing.T) {
	type withChan struct {
		C chan int
	}
	tests := []reflect.Type{
		reflect.TypeFor[chan int](),
		reflect.TypeFor[func()](),
		reflect.TypeFor[complex128](),
		reflect.TypeFor[any](),
		reflect.TypeFor[withChan](),
	}
	for _, goType := range tests {
		t.Run(goType.String(), func(t *testing.T) {
			_, err := CompileType(goType)
			if errors.KindOf(err) != errors.KindUnsupported {
				t.Errorf("got %v, want unsupported", err)
			}
		})
	}

	if _, err := CompileType(nil); errors.KindOf(err) != errors.KindNilPointer {
		t.Errorf("nil type: got %v", err)
	}
}

func TestCompileErrorPath(t *testing.T) {
	type inner struct {
		Fn func()
	}
	type outer struct {
		Items []inner
	}
	_, err := CompileType(reflect.TypeFor[outer]())
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("got %v", err)
	}
	want := []string{"Items", "[elem]", "Fn"}
	if !reflect.DeepEqual(e.Path, want) {
		t.Errorf("path = %v, want %v", e.Path, want)
	}
}

func TestCompileStructFields(t *testing.T) {
	type record struct {
		Name    string
		hidden  int
		Skip    int    `binserde:"skip"`
		Notes   string `binserde:"nodedup"`
		Counter uint32
	}
	ct, err := CompileType(reflect.TypeFor[record]())
	if err != nil {
		t.Fatalf("CompileType: %v", err)
	}
	var names []string
	for _, f := range ct.Fields {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"Name", "Notes", "Counter"}) {
		t.Errorf("fields = %v", names)
	}
	if !ct.Fields[1].NoDedup {
		t.Error("Notes should be nodedup")
	}
	if !reflect.DeepEqual(ct.Skipped, []int{2}) {
		t.Errorf("skipped = %v", ct.Skipped)
	}
}

func TestCompileBadTag(t *testing.T) {
	type bad struct {
		A int `binserde:"compress"`
	}
	_, err := CompileType(reflect.TypeFor[bad]())
	if errors.KindOf(err) != errors.KindInvalidData {
		t.Errorf("got %v", err)
	}
}

func TestCompileCache(t *testing.T) {
	a, err := CompileType(reflect.TypeFor[node]())
	if err != nil {
		t.Fatal(err)
	}
	b, err := CompileType(reflect.TypeFor[node]())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("plans are not cached")
	}
	if a.Fields[1].Type.Elem != a {
		t.Error("recursive plan does not point back at itself")
	}
}
