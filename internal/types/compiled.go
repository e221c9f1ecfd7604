package types

import (
	"reflect"
)

// CompiledType is the codec plan for one Go type.
type CompiledType struct {
	GoType reflect.Type
	Elem   *CompiledType
	Key    *CompiledType

	Fields  []Field
	Skipped []int

	Cases      []Case
	CaseByType map[reflect.Type]int
	CaseByOrd  map[uint64]int

	// Len is the element count of an array.
	Len int
	// Variants is the variant count of an enum.
	Variants int
	// SortKeys is set for maps whose keys have a natural order.
	SortKeys bool

	Kind Kind
}

// Field is an encoded struct field.
type Field struct {
	Type    *CompiledType
	Name    string
	Index   int
	Ordinal int
	NoDedup bool
}

// Case is one variant of a union. Pointer variants store the plan of the
// pointed-to type.
type Case struct {
	Type    *CompiledType
	GoType  reflect.Type
	Ordinal uint64
	Pointer bool
}

func (ct *CompiledType) IsPrimitive() bool {
	return ct.Kind.IsPrimitive()
}

// HasStrings reports whether encoding a value of the type can write a
// string. Types with hand-written codecs are assumed to.
func (ct *CompiledType) HasStrings() bool {
	return ct.hasStrings(make(map[*CompiledType]bool))
}

func (ct *CompiledType) hasStrings(seen map[*CompiledType]bool) bool {
	if seen[ct] {
		return false
	}
	seen[ct] = true

	switch ct.Kind {
	case KindString, KindMarshaler:
		return true
	case KindStruct:
		for _, f := range ct.Fields {
			if f.Type.hasStrings(seen) {
				return true
			}
		}
		return false
	case KindSlice, KindArray, KindOption:
		return ct.Elem.hasStrings(seen)
	case KindMap:
		return ct.Key.hasStrings(seen) || ct.Elem.hasStrings(seen)
	case KindUnion:
		for _, c := range ct.Cases {
			if c.Type.hasStrings(seen) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
