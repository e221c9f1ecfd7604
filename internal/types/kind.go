package types

type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindS8
	KindU16
	KindS16
	KindU32
	KindS32
	KindU64
	KindS64
	KindF32
	KindF64
	KindSize
	KindString
	KindBytes
	KindStruct
	KindSlice
	KindArray
	KindMap
	KindOption
	KindUnion
	KindEnum
	KindMarshaler
)

var kindNames = [...]string{
	KindBool:      "bool",
	KindU8:        "u8",
	KindS8:        "s8",
	KindU16:       "u16",
	KindS16:       "s16",
	KindU32:       "u32",
	KindS32:       "s32",
	KindU64:       "u64",
	KindS64:       "s64",
	KindF32:       "f32",
	KindF64:       "f64",
	KindSize:      "size",
	KindString:    "string",
	KindBytes:     "bytes",
	KindStruct:    "struct",
	KindSlice:     "slice",
	KindArray:     "array",
	KindMap:       "map",
	KindOption:    "option",
	KindUnion:     "union",
	KindEnum:      "enum",
	KindMarshaler: "marshaler",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether values of the kind are a single scalar.
func (k Kind) IsPrimitive() bool {
	return k <= KindSize
}

// FixedSize returns the encoded size of a primitive when integers are not
// varint packed, or 0 if it depends on the value or the mode.
func (k Kind) FixedSize() int {
	switch k {
	case KindBool, KindU8, KindS8:
		return 1
	case KindU16, KindS16:
		return 2
	case KindU32, KindS32, KindF32:
		return 4
	case KindU64, KindS64, KindF64:
		return 8
	default:
		return 0
	}
}
